package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeCapacity indicates a server-side capacity check rejected a write.
	ErrCodeCapacity ErrorCode = "capacity"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeForeignKey indicates a foreign key constraint violation.
	ErrCodeForeignKey ErrorCode = "foreign_key"
	// ErrCodeConfig indicates missing or placeholder configuration. It is terminal.
	ErrCodeConfig ErrorCode = "config"
	// ErrCodeUnauthenticated indicates an operation needs a signed-in identity.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeInvalidCredentials indicates the gateway rejected the credentials.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeNetwork indicates the gateway could not be reached or answered unexpectedly.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Config creates a new Config error.
func Config(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: message, Cause: cause}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsCapacity checks if an error is a Capacity error.
func IsCapacity(err error) bool {
	return isCode(err, ErrCodeCapacity)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsConfig checks if an error is a Config error.
func IsConfig(err error) bool {
	return isCode(err, ErrCodeConfig)
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
