package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrQuerySyntax         = errors.New("query syntax error")
	ErrInvalidPattern      = errors.New("invalid pattern")
	ErrNotFound            = errors.New("not found")
	ErrUnknownMethod       = errors.New("unknown retrieval method")
	ErrInternalComputation = errors.New("internal computation error")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrTimeout             = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Validation builds a 400 AppError wrapping ErrValidation.
func Validation(format string, args ...any) *AppError {
	return Newf(ErrValidation, http.StatusBadRequest, format, args...)
}

// Syntax builds a 400 AppError wrapping ErrQuerySyntax.
func Syntax(format string, args ...any) *AppError {
	return Newf(ErrQuerySyntax, http.StatusBadRequest, format, args...)
}

// NotFound builds a 404 AppError wrapping ErrNotFound.
func NotFound(format string, args ...any) *AppError {
	return Newf(ErrNotFound, http.StatusNotFound, format, args...)
}

// Internal builds a 500 AppError wrapping ErrInternalComputation.
func Internal(format string, args ...any) *AppError {
	return Newf(ErrInternalComputation, http.StatusInternalServerError, format, args...)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownMethod):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrQuerySyntax), errors.Is(err, ErrInvalidPattern):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a caller. Client errors carry
// their own message; anything that maps to 5xx is reduced to a generic one.
func PublicMessage(err error) string {
	status := HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		if errors.Is(err, ErrTimeout) {
			return ErrTimeout.Error()
		}
		return "internal error"
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
