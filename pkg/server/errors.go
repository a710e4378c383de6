package server

import (
	"encoding/json"
	"net/http"
)

// Error types returned in error bodies.
const (
	errorTypeInvalidRequest = "invalid_request"
	errorTypeInvalidPolicy  = "invalid_policy"
	errorTypePruneFailed    = "prune_failed"
	errorTypeUnavailable    = "unavailable"
	errorTypeInternal       = "internal_error"
)

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Version *int64 `json:"version,omitempty"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
