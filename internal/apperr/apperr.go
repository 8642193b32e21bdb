// Package apperr defines the error taxonomy every public operation maps
// its failures into: validation (400), unauthorized (401), access denied
// (403), not found (404), everything else internal (500). Cross-tenant
// references are always reported as not found, never as access denied.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// Error pairs a taxonomy sentinel with a caller-safe message. The
// underlying cause of internal errors is kept for logging and never
// serialized.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.kind }

// Cause returns the wrapped internal failure, if any.
func (e *Error) Cause() error { return e.cause }

func Validation(msg string) error {
	return &Error{kind: ErrValidation, message: msg}
}

func Unauthorized(msg string) error {
	return &Error{kind: ErrUnauthorized, message: msg}
}

func AccessDenied(msg string) error {
	return &Error{kind: ErrAccessDenied, message: msg}
}

func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, message: msg}
}

// Internal wraps a backing-service failure. The caller-visible message is
// generic; err is retained for server-side logs only.
func Internal(err error) error {
	return &Error{kind: ErrInternal, message: "internal server error", cause: err}
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to put in the {message} envelope.
// Unclassified and internal errors collapse to a generic message so
// backing-store detail never leaks.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(err, ErrInternal) {
		return e.message
	}
	return "internal server error"
}
