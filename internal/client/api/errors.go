package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iudanet/labdesk/pkg/api"
)

// maxErrorBody limits how much of an error response is read
const maxErrorBody = 64 << 10

// Sentinel errors matched by *APIError via errors.Is
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Message    string
	StatusCode int
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		e.Message = errResp.Message
		if e.Message == "" {
			e.Message = errResp.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}

	return e
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
