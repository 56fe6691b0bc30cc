// Package httpx holds the JSON response helpers shared by the API
// handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorPayload is the error body shape:
// {"error": {"code":"...","message":"..."}}
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes v with the JSON content type.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with a consistent shape.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": ErrorPayload{Code: http.StatusText(statusCode), Message: message},
	})
}

// WriteErrorWithDetails writes a JSON error with a stable code and an
// additional details value (e.g. field-level validation output).
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": ErrorPayload{Code: code, Message: message, Details: details},
	})
}
