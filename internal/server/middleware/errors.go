package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/labdesk/pkg/api"
)

// writeError отвечает JSON телом в формате api.ErrorResponse
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
