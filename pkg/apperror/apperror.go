// Package apperror provides the error taxonomy surfaced to API callers and its
// HTTP status mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Type string

const (
	TypeBadRequest   Type = "bad_request"
	TypeConflict     Type = "conflict"
	TypeUnauthorized Type = "unauthorized"
	TypeNotFound     Type = "not_found"
	TypeInternal     Type = "internal"
)

// Error is a categorized error. Message is safe to show to clients; Cause is
// kept for logs only.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeBadRequest:
		return http.StatusBadRequest
	case TypeConflict:
		return http.StatusConflict
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(message string) *Error {
	return &Error{Type: TypeBadRequest, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Type: TypeConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// As converts any error into a structured one. Unknown errors become internal
// faults with a generic message so that details never reach the caller.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}

// Is reports whether err carries the given type.
func Is(err error, t Type) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Type == t
}
