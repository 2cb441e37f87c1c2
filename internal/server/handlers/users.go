package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/labdesk/internal/server/storage"
)

// UserHandler отдает профили пользователей
type UserHandler struct {
	responder
	userStorage storage.UserStorage
}

// NewUserHandler создает новый handler профилей
func NewUserHandler(logger *slog.Logger, userStorage storage.UserStorage) *UserHandler {
	return &UserHandler{
		responder:   responder{logger: logger},
		userStorage: userStorage,
	}
}

// GetByUsername обрабатывает GET /api/user/username/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Извлекаем username из path parameter (Go 1.22+)
	username := r.PathValue("username")
	if username == "" {
		h.sendError(w, "username is required", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, user, http.StatusOK)
}
