package auth

import (
	"context"

	"github.com/iudanet/labdesk/internal/models"
	pkgapi "github.com/iudanet/labdesk/pkg/api"
)

//go:generate moq -out gateway_mock.go . Gateway

// Gateway - часть API клиента, которая нужна сервису авторизации.
// *api.Client удовлетворяет этому интерфейсу.
type Gateway interface {
	// SignIn обменивает логин и пароль на токен
	SignIn(ctx context.Context, req pkgapi.SignInRequest) (*pkgapi.TokenResponse, error)

	// SignUp регистрирует пользователя и возвращает токен
	SignUp(ctx context.Context, req pkgapi.SignUpRequest) (*pkgapi.TokenResponse, error)

	// GetUserByUsername получает профиль по username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}
