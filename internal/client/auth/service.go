// Package auth implements the console's sign-in state machine on top of the
// session store: Anonymous until a token is issued, Authenticated until the
// operator signs out or the backend rejects the token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/iudanet/labdesk/internal/client/api"
	"github.com/iudanet/labdesk/internal/client/session"
	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/validation"
	pkgapi "github.com/iudanet/labdesk/pkg/api"
)

// Service предоставляет функции авторизации
type Service struct {
	gateway Gateway
	session *session.Store
}

// NewService создает новый сервис авторизации
func NewService(gateway Gateway, store *session.Store) *Service {
	return &Service{
		gateway: gateway,
		session: store,
	}
}

// SignUpInput содержит данные формы регистрации
type SignUpInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     string
}

// SignIn выполняет вход и сохраняет выданный токен в сессии
func (s *Service) SignIn(ctx context.Context, username, password string) (session.Claims, error) {
	if username == "" {
		return session.Claims{}, fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return session.Claims{}, fmt.Errorf("password cannot be empty")
	}

	resp, err := s.gateway.SignIn(ctx, pkgapi.SignInRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return session.Claims{}, err
	}

	return s.storeToken(ctx, resp.Token)
}

// SignUp проверяет данные формы, регистрирует пользователя и сохраняет токен
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (session.Claims, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return session.Claims{}, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return session.Claims{}, fmt.Errorf("invalid password: %w", err)
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return session.Claims{}, fmt.Errorf("invalid full name: %w", err)
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return session.Claims{}, fmt.Errorf("invalid email: %w", err)
	}
	role, err := validation.ValidateRole(in.Role)
	if err != nil {
		return session.Claims{}, err
	}

	resp, err := s.gateway.SignUp(ctx, pkgapi.SignUpRequest{
		Username: in.Username,
		Password: in.Password,
		FullName: in.FullName,
		Email:    in.Email,
		Role:     string(role),
	})
	if err != nil {
		return session.Claims{}, err
	}

	return s.storeToken(ctx, resp.Token)
}

func (s *Service) storeToken(ctx context.Context, token string) (session.Claims, error) {
	if err := s.session.SetCredential(ctx, token); err != nil {
		return session.Claims{}, fmt.Errorf("failed to save session: %w", err)
	}

	claims, ok := session.ParseClaims(token)
	if !ok {
		// Токен сохранен как есть: сервер остается судьей его валидности
		slog.WarnContext(ctx, "issued token has no readable claims")
	}

	return claims, nil
}

// SignOut удаляет credential из сессии
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.session.ClearCredential(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CurrentUser загружает профиль текущего пользователя.
// 401 от сервера сбрасывает сессию.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	subject := s.session.Subject(ctx)
	if subject == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := s.gateway.GetUserByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if clearErr := s.session.ClearCredential(ctx); clearErr != nil {
				slog.WarnContext(ctx, "failed to clear rejected session", slog.Any("error", clearErr))
			}
			return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
		}
		return nil, fmt.Errorf("failed to load user %q: %w", subject, err)
	}

	return user, nil
}

// RequireRole возвращает текущего пользователя, если его роль входит в roles
func (s *Service) RequireRole(ctx context.Context, roles ...models.Role) (*models.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(roles, user.Role) {
		return nil, fmt.Errorf("%w: role %q is not allowed", ErrAccessDenied, user.Role.DisplayName())
	}

	return user, nil
}

// ProjectScope возвращает managerId для фильтра списка проектов:
// руководитель проекта видит только свои проекты, остальные роли - все (0)
func ProjectScope(user *models.User) int64 {
	if user != nil && user.Role.ScopesProjectsToManager() {
		return user.UserID
	}
	return 0
}
