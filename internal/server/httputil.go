package server

import (
	"encoding/json"
	"net/http"

	"qdesigner/internal/model"
)

// violationsResponse is the 422 body.
type violationsResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	Violations []model.Violation `json:"violations"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
