// Package apperror defines the application's error taxonomy.
//
// Every failure the API reports to a client is an *AppError. Each one carries
// the three things the error envelope needs (application code, title and
// message) plus a sentinel Err so callers can classify it with errors.Is.
//
// Anything that is NOT an *AppError is, by definition, unexpected and is
// reported to the client as a generic server error.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrDomain       = errors.New("domain rule violated")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// Application error codes returned in the error_code field.
//
// CodeDomain used to share 102 with CodeConflict; self-messaging now has its
// own code so clients can tell the two apart.
const (
	CodeValidation   = 100
	CodeUnauthorized = 101
	CodeConflict     = 102
	CodeDomain       = 103
	CodeNotFound     = 104
	CodeInternal     = 500
)

type AppError struct {
	Err     error  // sentinel, used with errors.Is
	Code    int    // application error code
	Title   string // short human-readable category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *AppError) Status() int {
	switch {
	case errors.Is(e.Err, ErrValidation), errors.Is(e.Err, ErrDomain):
		return http.StatusBadRequest
	case errors.Is(e.Err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(e.Err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(e.Err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    CodeValidation,
		Title:   "Validation Error",
		Message: message,
		Field:   field,
	}
}

// InvalidCredentials is returned for BOTH an unknown email and a wrong
// password. The two cases must be indistinguishable to the client.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Code:    CodeUnauthorized,
		Title:   "Login Failure",
		Message: "Invalid email or password.",
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeConflict,
		Title:   "Registration Failure",
		Message: message,
	}
}

// DomainRule reports a business-rule violation on well-formed input.
func DomainRule(message string) *AppError {
	return &AppError{
		Err:     ErrDomain,
		Code:    CodeDomain,
		Title:   "Message Failure",
		Message: message,
	}
}

func NotFound(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Title:   "User Not Found",
		Message: message,
	}
}

// Internal is the only error shape a client ever sees for unexpected
// failures. The real cause stays in the server logs.
func Internal() *AppError {
	return &AppError{
		Err:     ErrInternal,
		Code:    CodeInternal,
		Title:   "Server Error",
		Message: "An unexpected error occurred.",
	}
}
