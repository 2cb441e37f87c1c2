package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/pkg/api"
)

// SignIn выполняет вход и возвращает выданный токен
func (c *Client) SignIn(ctx context.Context, req api.SignInRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("sign-in response carries no token")
	}
	return &resp, nil
}

// SignUp регистрирует нового пользователя и возвращает выданный токен
func (c *Client) SignUp(ctx context.Context, req api.SignUpRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/sign-up", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("sign-up request failed: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("sign-up response carries no token")
	}
	return &resp, nil
}

// GetUserByUsername получает профиль пользователя
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	path := "/user/username/" + url.PathEscape(username)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, fmt.Errorf("get user request failed: %w", err)
	}
	return &user, nil
}
