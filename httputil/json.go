// httputil/json.go

// Package httputil holds small response helpers shared by the dev server's
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as JSON with status. Status codes outside 100..599
// become 500. Encoding errors after the header is sent are returned for the
// caller to log.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// JSONError writes an ErrorResponse with a machine-readable code and a
// human message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	_ = WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}
