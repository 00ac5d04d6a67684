package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	RetryAfter int64       `json:"retry_after,omitempty"`
}

// Machine-readable error codes carried in the envelope.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthRequired   = "AUTHENTICATION_REQUIRED"
	CodeAdminRequired  = "ADMIN_REQUIRED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
	CodeInvalidLogin   = "INVALID_CREDENTIALS"
)

// WriteSuccess writes a success envelope with the given status and data.
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// WriteError writes a failure envelope with an error code and message.
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Error: errorCode, Message: message})
}

// WriteRateLimited writes a 429 envelope carrying the seconds until the
// current window resets, mirrored in the Retry-After header.
func WriteRateLimited(w http.ResponseWriter, retryAfter int64) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(Response{
		Success:    false,
		Error:      CodeRateLimited,
		Message:    "Too many requests",
		RetryAfter: retryAfter,
	})
}

// Convenience writers for the common error classes.

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidation, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeAuthRequired, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, message)
}
