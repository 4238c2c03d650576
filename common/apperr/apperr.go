package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP status mapping
type Kind int

const (
	KindValidation Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error is a typed application error with a client-safe message
type Error struct {
	Kind    Kind
	Message string
	err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.err
}

// HTTPStatus maps the error kind to an HTTP status code
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error (400)
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated creates an authentication error (401)
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden creates an authorization error (403)
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound creates a not-found error (404)
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error (409)
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error; the message shown to clients is
// generic, the cause stays available for logging via Unwrap
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", err: err}
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	if appErr, ok := As(err); ok {
		return appErr.Kind == kind
	}
	return false
}
