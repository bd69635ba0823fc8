// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer (handler.writeError and the
// auth middleware) is the only place that turns them into status codes:
//
//	ErrValidation   → 400  missing/malformed field, password policy violation
//	ErrConflict     → 400  duplicate username
//	ErrUnauthorized → 401  missing/invalid/expired token, bad credentials
//	ErrForbidden    → 403  valid identity, insufficient role
//	ErrNotFound     → 404  resource absent (or owned by someone else)
//	anything else   → 500  logged, never shown to the caller
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource, e.g. NotFound("Class") → "Class Not Found".
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s Not Found", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingField is the validation error for an absent required body field.
func MissingField(field string) *AppError {
	return ValidationFailed(field, fmt.Sprintf("Missing '%s' in request body", field))
}

func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for a caller whose identity could not be
// established. The message must not say which check failed.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
