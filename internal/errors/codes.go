// Package errors provides structured error handling for Litmesh.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (index files, locks)
//   - 3XX: Source and network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index file and lock I/O errors.
	CategoryIO Category = "IO"
	// CategorySource indicates upstream source and network errors.
	CategorySource Category = "SOURCE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIndexLocked  = "ERR_201_INDEX_LOCKED"
	ErrCodeIndexCorrupt = "ERR_202_INDEX_CORRUPT"

	// Source errors (300-399). The first four are the classifier-approved
	// transient failures: the resilient invoker retries these and only these.
	ErrCodeSourceTimeout     = "ERR_301_SOURCE_TIMEOUT"
	ErrCodeSourceRateLimited = "ERR_302_SOURCE_RATE_LIMITED"
	ErrCodeSourceUnavailable = "ERR_303_SOURCE_UNAVAILABLE"
	ErrCodeConnectionReset   = "ERR_304_CONNECTION_RESET"
	ErrCodeSourceFailed      = "ERR_305_SOURCE_FAILED"
	ErrCodeBreakerOpen       = "ERR_306_BREAKER_OPEN"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty        = "ERR_402_QUERY_EMPTY"
	ErrCodeInvalidFilter     = "ERR_403_INVALID_FILTER"
	ErrCodeDimensionMismatch = "ERR_404_DIMENSION_MISMATCH"
	ErrCodeEmptyEmbedInput   = "ERR_405_EMPTY_EMBED_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeCacheFailed     = "ERR_504_CACHE_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion starts at offset 4 (e.g., "301" in "ERR_301_SOURCE_TIMEOUT").
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategorySource
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeIndexCorrupt {
		return SeverityFatal
	}

	// Transient source errors degrade to reduced result counts.
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Matches the retry classifier: connection reset, timeout, HTTP 5xx and
// HTTP 429 are transient; everything else propagates immediately.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeSourceTimeout, ErrCodeSourceRateLimited, ErrCodeSourceUnavailable, ErrCodeConnectionReset:
		return true
	default:
		return false
	}
}
