// Package apperror provides domain-specific error types for Foodgram.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error types. The error handler picks the response payload
// shape from these.
const (
	TypeNotFound     = "not_found"
	TypeBadRequest   = "bad_request"
	TypeUnauthorized = "unauthorized"
	TypeForbidden    = "forbidden"
	TypeConflict     = "conflict"
	TypeValidation   = "validation_error"
	TypeInternal     = "internal_error"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Fields holds per-field validation messages keyed by the JSON field name.
	// Only set for validation errors.
	Fields map[string][]string `json:"fields,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    TypeUnauthorized,
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    TypeForbidden,
		Message: message,
	}
}

// NewConflict creates a conflict error for relation toggles (adding a pair
// that already exists, removing one that doesn't). API clients expect these
// as 400 with an "errors" message, not 409.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewValidation creates a 400 validation error without field details.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeValidation,
		Message: message,
	}
}

// NewFieldError creates a validation error scoped to a single field.
func NewFieldError(field, message string) *AppError {
	return NewFieldErrors(map[string][]string{field: {message}})
}

// NewFieldErrors creates a validation error carrying messages for several
// fields at once.
func NewFieldErrors(fields map[string][]string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// errMissingContext is the shared internal error for nil precondition checks.
var errMissingContext = errors.New("missing required context")

// NewMissingContext creates a 500 error for handler nil-context guards
// (e.g. viewer not set, dependency not wired).
func NewMissingContext() *AppError {
	return NewInternal(errMissingContext)
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     TypeInternal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
