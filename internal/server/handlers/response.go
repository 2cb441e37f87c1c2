package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/labdesk/pkg/api"
)

// responder - общие помощники ответа, встраиваются в handlers
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// sendText отправляет текстовый ответ
func (h responder) sendText(w http.ResponseWriter, text string, statusCode int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		h.logger.Error("failed to write text response", slog.Any("error", err))
	}
}
