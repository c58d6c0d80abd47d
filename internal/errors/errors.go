package errors

import (
	"fmt"
)

// FuseError is the structured error type for FuseMCP.
// It provides rich context for error handling, logging, and user presentation.
type FuseError struct {
	// Code is the unique error code (e.g., "ERR_402_QUERY_EMPTY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Provider, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *FuseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FuseError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with FuseError.
func (e *FuseError) Is(target error) bool {
	if t, ok := target.(*FuseError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *FuseError) WithDetail(key, value string) *FuseError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *FuseError) WithSuggestion(suggestion string) *FuseError {
	e.Suggestion = suggestion
	return e
}

// New creates a new FuseError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *FuseError {
	return &FuseError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a FuseError from an existing error.
// The error's message becomes the FuseError message.
func Wrap(code string, err error) *FuseError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *FuseError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates a persistent-store error.
func StoreError(message string, cause error) *FuseError {
	return New(ErrCodeStoreOpen, message, cause)
}

// ProviderError creates a provider-related error.
// Provider errors are typically retryable.
func ProviderError(message string, cause error) *FuseError {
	return New(ErrCodeProviderUnavailable, message, cause)
}

// ValidationError creates a request validation error.
func ValidationError(message string, cause error) *FuseError {
	return New(ErrCodeInvalidRequest, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *FuseError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a FuseError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FuseError); ok {
		return fe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FuseError); ok {
		return fe.Severity == SeverityFatal
	}
	return false
}

// IsValidation checks if an error is a request validation error.
// Validation errors are the only category surfaced to callers as-is.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FuseError); ok {
		return fe.Category == CategoryValidation
	}
	return false
}

// GetCode extracts the error code from a FuseError.
// Returns empty string if not a FuseError.
func GetCode(err error) string {
	if fe, ok := err.(*FuseError); ok {
		return fe.Code
	}
	return ""
}

// GetCategory extracts the category from a FuseError.
// Returns empty string if not a FuseError.
func GetCategory(err error) Category {
	if fe, ok := err.(*FuseError); ok {
		return fe.Category
	}
	return ""
}
