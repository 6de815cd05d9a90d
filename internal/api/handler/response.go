// internal/api/handler/response.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// Error wraps error messages for consistent JSON responses
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON sends a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// WriteError sends a JSON error response with the given status code
func WriteError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status >= http.StatusInternalServerError {
		attrs := []any{"path", r.URL.Path, "error", err}
		if cause := errors.Unwrap(err); cause != nil {
			attrs = append(attrs, "cause", cause)
		}
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	}
	WriteJSON(w, r, Error{
		Status:  status,
		Message: err.Error(),
	}, status)
}

// Health reports liveness. The listener only binds once the database is
// open, so answering at all implies readiness.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}
