package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotImplemented    ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Business rule violations
	ErrCodeApplication     ErrorCode = "APPLICATION_ERROR"
	ErrCodeLoginNotAllowed ErrorCode = "LOGIN_NOT_ALLOWED"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// Name returns the client-facing error class for this error
func (e *Error) Name() string {
	return MapErrorCodeToName(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// As is a re-export of the standard library errors.As so callers importing
// this package under the name errors keep access to it.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a re-export of the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeApplication, ErrCodeLoginNotAllowed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorCodeToName maps error codes to the error class name rendered to clients
func MapErrorCodeToName(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed:
		return "ValidationError"
	case ErrCodeApplication, ErrCodeLoginNotAllowed:
		return "ApplicationError"
	case ErrCodeUnauthorized:
		return "UnauthorizedError"
	case ErrCodeForbidden:
		return "ForbiddenError"
	case ErrCodeNotFound:
		return "NotFoundError"
	case ErrCodeRateLimitExceeded:
		return "RateLimitError"
	case ErrCodeNotImplemented:
		return "NotImplementedError"
	default:
		return "InternalServerError"
	}
}

// Common error constructors

// Validation creates a "validation failed" error
func Validation(message string) *Error {
	return New(ErrCodeValidationFailed, message)
}

// ValidationFailed creates a "validation failed" error carrying per-field errors
func ValidationFailed(message string, fields map[string]interface{}) *Error {
	err := New(ErrCodeValidationFailed, message)
	if len(fields) > 0 {
		err.WithDetail("errors", fields)
	}
	return err
}

// Application creates a business rule violation error
func Application(message string) *Error {
	return New(ErrCodeApplication, message)
}

// Forbidden creates a "forbidden" error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// Unauthorized creates an "unauthorized" error
func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

// NotImplemented creates the opaque error returned for unexpected failures
func NotImplemented() *Error {
	return New(ErrCodeNotImplemented, "Not implemented")
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}

// RateLimitExceeded creates a "rate limit exceeded" error
func RateLimitExceeded(retryAfter string) *Error {
	err := New(ErrCodeRateLimitExceeded, "Too many requests, please try again later.")
	if retryAfter != "" {
		err.WithDetail("retry_after", retryAfter)
	}
	return err
}
