package errors

import (
	"fmt"
	"maps"
	"strings"
)

// ErrorType classifies an AppError by the layer that failed.
type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError is an error raised by a grid source or the application around
// the core. The core itself never creates one.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records a key/value (a path, a sheet name) for logs and
// returns e.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// Fields returns a copy of the recorded context.
func (e *AppError) Fields() map[string]any {
	return maps.Clone(e.Context)
}

// NewAppError builds an AppError of the given type.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewNetworkError is for a remote grid backend that failed or was
// unreachable.
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError is for backing data that could not be decoded.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError is for local file reads and writes.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError is for caller input a source rejects, such as a
// bad coordinate.
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", nil)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is, or wraps, an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return As(err, &appErr) && appErr.Type == errType
}
