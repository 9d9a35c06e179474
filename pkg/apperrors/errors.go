// Package apperrors provides structured error handling for taskforge.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport-level mapping.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindAuth       Kind = "AUTH_ERROR"
	KindForbidden  Kind = "FORBIDDEN"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindStorage    Kind = "STORAGE_ERROR"
)

// Error is the structured error type used across service boundaries.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new structured error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new structured error with a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation error constructors

func NewValidationError(message string) *Error {
	return New(KindValidation, message)
}

func NewMissingFieldError(field string) *Error {
	return New(KindValidation, fmt.Sprintf("missing required field: %s", field))
}

func NewInvalidFieldError(field string) *Error {
	return New(KindValidation, fmt.Sprintf("field not allowed: %s", field))
}

// Authentication/Authorization error constructors

// NewAuthError creates the uniform authorization failure. All token-gate
// failures share this message so the response never reveals which check failed.
func NewAuthError() *Error {
	return New(KindAuth, "authorization error")
}

func NewCredentialsError(message string) *Error {
	return New(KindAuth, message)
}

func NewForbiddenError(message string) *Error {
	return New(KindForbidden, message)
}

// Resource error constructors

func NewNotFoundError(resource string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource))
}

func NewConflictError(message string) *Error {
	return New(KindConflict, message)
}

// Storage error constructors

func NewStorageError(message string, cause error) *Error {
	return Wrap(KindStorage, message, cause)
}

// KindOf returns the Kind of a structured error, or KindStorage for any
// error that did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the HTTP status code it should produce.
// Unrecognized errors are treated as opaque storage failures.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to send to a client. Storage errors
// are deliberately opaque so internals never leak through the API.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage {
		return e.Message
	}
	return "internal server error"
}
