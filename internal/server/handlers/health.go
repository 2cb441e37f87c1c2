package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	db      Pinger
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		db:        db,
		version:   version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "database ping failed", slog.Any("error", err))
			h.sendJSON(w, HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
			return
		}
	}

	h.sendJSON(w, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
