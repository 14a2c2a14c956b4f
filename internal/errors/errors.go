package errors

import (
	"fmt"
	"net/http"
)

// Code is the machine-readable error_code extension of a problem response.
type Code string

const (
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeRateLimited      Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal         Code = "INTERNAL_SERVER_ERROR"
	CodeGridSource       Code = "GRID_SOURCE_ERROR"
)

// APIError is an error a handler has already classified for the client.
type APIError struct {
	Status  int
	Code    Code
	Type    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	return e.Message
}

// withDetails returns a copy of e carrying details, leaving the shared
// sentinel untouched.
func (e *APIError) withDetails(message string, details any) *APIError {
	c := *e
	if message != "" {
		c.Message = message
	}
	c.Details = details
	return &c
}

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	ErrInvalidRequest    = &APIError{http.StatusBadRequest, CodeInvalidRequest, TypeValidation, "Invalid request format", nil}
	ErrValidationFailed  = &APIError{http.StatusBadRequest, CodeValidationFailed, TypeValidation, "Request validation failed", nil}
	ErrNotFound          = &APIError{http.StatusNotFound, CodeNotFound, TypeNotFound, "Resource not found", nil}
	ErrRateLimitExceeded = &APIError{http.StatusTooManyRequests, CodeRateLimited, TypeRateLimit, "Rate limit exceeded", nil}
	ErrInternalServer    = &APIError{http.StatusInternalServerError, CodeInternal, TypeInternal, "Internal server error", nil}
	ErrGridSource        = &APIError{http.StatusBadGateway, CodeGridSource, TypeGridSource, "Grid source request failed", nil}
)

// InvalidRequestWithError reports a malformed body; err's text becomes the
// details.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.withDetails("", err.Error())
}

// ErrValidation reports a single bad field.
func ErrValidation(field, message string) *APIError {
	return ErrValidationFailed.withDetails("", ValidationError{Field: field, Message: message})
}

// NewValidationErrors reports several bad fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return ErrValidationFailed.withDetails("", errs)
}

// NotFoundError reports a missing header, row or other resource.
func NotFoundError(resource string) *APIError {
	return ErrNotFound.withDetails(fmt.Sprintf("%s not found", resource), resource)
}
