package apperror

import (
	"errors"
	"net/http"
)

// Category sentinels. Business code wraps these through the constructors
// below; the HTTP layer maps them to status codes with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

// AppError is a typed business-rule error carrying a category sentinel, a
// human-readable message, and optionally the field that caused it.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error category to an HTTP status code.
func (e *AppError) Status() int {
	switch {
	case errors.Is(e.Err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(e.Err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(e.Err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(e.Err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e.Err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInput reports a missing or malformed field.
func InvalidInput(field, message string) *AppError {
	return &AppError{Err: ErrInvalidInput, Message: message, Field: field}
}

// Unauthenticated reports a missing, invalid, or expired credential.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// Forbidden reports that the authenticated caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// NotFound reports an absent entity, or one failing a visibility predicate.
func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

// Conflict reports a uniqueness violation.
func Conflict(field, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Field: field}
}

// Internal wraps a store, transaction, or collaborator failure. The cause is
// kept for logging but never serialized to clients.
func Internal(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrInternal
	}
	return &AppError{Err: errors.Join(ErrInternal, cause), Message: message}
}
