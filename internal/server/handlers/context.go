package handlers

import (
	"context"

	"github.com/iudanet/labdesk/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UsernameKey ключ для хранения username в контексте
	UsernameKey contextKey = "username"
	// RoleKey ключ для хранения роли в контексте
	RoleKey contextKey = "role"
)

// WithIdentity кладет данные из проверенного токена в контекст
func WithIdentity(ctx context.Context, username string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, UsernameKey, username)
	return context.WithValue(ctx, RoleKey, role)
}

// GetUsername извлекает username из контекста
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetRole извлекает роль из контекста
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(RoleKey).(models.Role)
	return role, ok
}
