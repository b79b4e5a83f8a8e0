package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// LitError is the structured error type for Litmesh.
// It provides rich context for error handling, logging, and user presentation.
type LitError struct {
	// Code is the unique error code (e.g., "ERR_301_SOURCE_TIMEOUT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Source, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *LitError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LitError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with LitError.
func (e *LitError) Is(target error) bool {
	if t, ok := target.(*LitError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *LitError) WithDetail(key, value string) *LitError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new LitError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *LitError {
	return &LitError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a LitError from an existing error.
// The error's message becomes the LitError message.
func Wrap(code string, err error) *LitError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *LitError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *LitError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a LitError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var le *LitError
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// IsValidation reports whether the error belongs to the validation category.
// Only validation errors surface to the caller as hard failures.
func IsValidation(err error) bool {
	var le *LitError
	if errors.As(err, &le) {
		return le.Category == CategoryValidation
	}
	return false
}

// GetCode extracts the error code from a LitError.
// Returns empty string if not a LitError.
func GetCode(err error) string {
	var le *LitError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// ClassifySourceError maps a raw adapter failure to a coded source error
// so the retry policy can decide eligibility. Connection resets, timeouts,
// HTTP 5xx and HTTP 429 classify as transient; everything else is a
// permanent source failure.
func ClassifySourceError(source string, err error) *LitError {
	if err == nil {
		return nil
	}

	// Already classified by the adapter.
	var le *LitError
	if errors.As(err, &le) {
		return le
	}

	code := ErrCodeSourceFailed
	switch {
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		code = ErrCodeSourceTimeout
	case errors.Is(err, syscall.ECONNRESET) || strings.Contains(err.Error(), "connection reset"):
		code = ErrCodeConnectionReset
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			code = ErrCodeSourceTimeout
		}
	}

	return Wrap(code, err).WithDetail("source", source)
}

// FromHTTPStatus maps an HTTP response status to a coded source error.
// Returns nil for 2xx statuses.
func FromHTTPStatus(source string, status int) *LitError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return New(ErrCodeSourceRateLimited, fmt.Sprintf("%s rate limited (HTTP 429)", source), nil).
			WithDetail("source", source)
	case status >= 500:
		return New(ErrCodeSourceUnavailable, fmt.Sprintf("%s returned HTTP %d", source, status), nil).
			WithDetail("source", source)
	default:
		return New(ErrCodeSourceFailed, fmt.Sprintf("%s returned HTTP %d", source, status), nil).
			WithDetail("source", source)
	}
}
