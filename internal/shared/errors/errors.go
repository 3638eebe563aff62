// Package errors provides the API error type and its JSON rendering.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// APIError is the base error type for all errors shown to API callers.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError represents a 400 Bad Request error for invalid input.
func ValidationError(message string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NotFoundError represents a 404 Not Found error.
func NotFoundError(message string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// MethodNotAllowedError represents a 405 Method Not Allowed error.
func MethodNotAllowedError() *APIError {
	return &APIError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}
}

// RateLimitError represents a 429 Too Many Requests error.
type RateLimitError struct {
	*APIError
	RetryAfter int
}

// NewRateLimitError creates a new rate limit error with retry-after seconds.
func NewRateLimitError(retryAfter int) *RateLimitError {
	return &RateLimitError{
		APIError: &APIError{
			Code:       "RATE_LIMITED",
			Message:    "Too many requests",
			StatusCode: http.StatusTooManyRequests,
		},
		RetryAfter: retryAfter,
	}
}

// UnauthorizedError represents a 401 Unauthorized error.
func UnauthorizedError(message string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// SaveError is returned when a mutation could not be persisted, including
// when renumbering after it failed. Nothing from the mutation was applied.
func SaveError() *APIError {
	return &APIError{
		Code:       "SAVE_FAILED",
		Message:    "Could not save session",
		StatusCode: http.StatusInternalServerError,
	}
}

// InternalError represents a 500 Internal Server Error.
// Note: This should NOT expose internal details to the client.
func InternalError() *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// WriteError writes an error response to the HTTP response writer.
// Wrapped API errors keep their code; anything else becomes a generic
// internal error so no internal detail reaches the client.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := InternalError()

	var rateErr *RateLimitError
	var known *APIError
	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfter))
		apiErr = rateErr.APIError
	case errors.As(err, &known):
		apiErr = known
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}
