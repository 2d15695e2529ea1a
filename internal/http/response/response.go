package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes the payload directly: the catalog listing is a raw array and
// the frontend consumes it without an envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err)
	}
}

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Error writes {"error": message} with a stable machine-readable code.
// Details carries caller-safe structured context, such as the failing
// readiness checks; internal error detail stays in the server logs.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	JSON(w, r, status, errorBody{Error: message, Code: code, Details: details})
}
