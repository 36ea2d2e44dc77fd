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
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeForeignKey indicates a foreign key constraint violation.
	ErrCodeForeignKey ErrorCode = "foreign_key"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"

	// ErrCodeUnavailable marks a transient failure of an upstream provider.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeFirstPageFailure marks a roster cycle that could not fetch page 1.
	ErrCodeFirstPageFailure ErrorCode = "first_page_failure"
	// ErrCodePartialIngestion marks roster pages lost after retries.
	ErrCodePartialIngestion ErrorCode = "partial_ingestion"
	// ErrCodeBindingConflict marks a bind that did not produce a new binding.
	ErrCodeBindingConflict ErrorCode = "binding_conflict"
	// ErrCodeNotificationFailure marks a message that could not be delivered.
	ErrCodeNotificationFailure ErrorCode = "notification_failure"
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

func newf(code ErrorCode, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Code: code, Message: msg}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return newf(ErrCodeNotFound, "%s", message) }

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError { return newf(ErrCodeNotFound, format, args...) }

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return newf(ErrCodeConflict, "%s", message) }

// Validation creates a new Validation error.
func Validation(message string) *AppError { return newf(ErrCodeValidation, "%s", message) }

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newf(ErrCodeValidation, format, args...)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	e := newf(ErrCodeValidation, "%s", message)
	e.Field = field
	return e
}

// Internal creates a new Internal error.
func Internal(message string) *AppError { return newf(ErrCodeInternal, "%s", message) }

// Unavailable wraps a transient upstream failure.
func Unavailable(err error, format string, args ...any) *AppError {
	return wrapOrNew(err, ErrCodeUnavailable, format, args...)
}

// FirstPageFailure wraps the error that prevented page 1 of the roster from being fetched.
func FirstPageFailure(err error) *AppError {
	return wrapOrNew(err, ErrCodeFirstPageFailure, "roster page 1 unavailable")
}

// PartialIngestion reports roster pages that were skipped after exhausting retries.
func PartialIngestion(lost []int) *AppError {
	return newf(ErrCodePartialIngestion, "roster pages lost after retries: %v", lost)
}

// BindingConflict reports a bind that returned a non-success result code.
func BindingConflict(result string) *AppError {
	return newf(ErrCodeBindingConflict, "bind rejected: %s", result)
}

// NotificationFailure wraps a message delivery failure.
func NotificationFailure(err error, target string) *AppError {
	return wrapOrNew(err, ErrCodeNotificationFailure, "deliver message to %s", target)
}

func wrapOrNew(err error, code ErrorCode, format string, args ...any) *AppError {
	e := newf(code, format, args...)
	e.Cause = err
	return e
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
	if err == nil {
		return nil
	}
	return wrapOrNew(err, code, format, args...)
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsForeignKey checks if an error is a ForeignKey error.
func IsForeignKey(err error) bool { return isCode(err, ErrCodeForeignKey) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// IsUnavailable checks if an error is a transient provider failure.
func IsUnavailable(err error) bool { return isCode(err, ErrCodeUnavailable) }

// IsFirstPageFailure checks if an error aborted a roster cycle.
func IsFirstPageFailure(err error) bool { return isCode(err, ErrCodeFirstPageFailure) }

// IsBindingConflict checks if an error is a rejected bind.
func IsBindingConflict(err error) bool { return isCode(err, ErrCodeBindingConflict) }

// IsNotificationFailure checks if an error is an undelivered message.
func IsNotificationFailure(err error) bool { return isCode(err, ErrCodeNotificationFailure) }

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
