package api

import (
	"encoding/json"
	"net/http"

	"github.com/trust-scanner/internal/errors"
)

// errorResponse is the wire shape for failed requests
type errorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Error:   code,
		Message: message,
		Details: details,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondCategorizedError maps a pipeline error onto the HTTP surface.
// Upstream failures carry the upstream message through.
func respondCategorizedError(w http.ResponseWriter, err error) {
	catErr := errors.Categorize(err)
	respondError(w, catErr.StatusCode, catErr.Code, catErr.Message, catErr.Details)
}
