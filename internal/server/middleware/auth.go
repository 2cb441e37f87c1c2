package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/handlers"
)

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "missing Authorization header", slog.String("path", r.URL.Path))
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.WarnContext(ctx, "invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, tokenString)
			if err != nil {
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(ctx, "user authenticated",
				slog.String("username", claims.Subject),
				slog.String("role", string(claims.Role)))

			ctx = handlers.WithIdentity(ctx, claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Должен стоять после AuthMiddleware.
func RequireRole(logger *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := handlers.GetRole(r.Context())
			if !ok {
				writeError(w, "missing identity", http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, role) {
				username, _ := handlers.GetUsername(r.Context())
				logger.WarnContext(r.Context(), "access denied",
					slog.String("username", username),
					slog.String("role", string(role)),
					slog.String("path", r.URL.Path))
				writeError(w, "access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
