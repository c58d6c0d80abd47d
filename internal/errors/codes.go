// Package errors provides structured error handling for FuseMCP.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Store errors (SQLite, data directory)
//   - 3XX: Provider errors (search backends, network)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates persistent store errors.
	CategoryStore Category = "STORE"
	// CategoryProvider indicates search provider and network errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryValidation indicates request validation errors.
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
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Store errors (200-299)
	ErrCodeStoreOpen    = "ERR_201_STORE_OPEN"
	ErrCodeStoreLocked  = "ERR_202_STORE_LOCKED"
	ErrCodeStoreCorrupt = "ERR_203_STORE_CORRUPT"
	ErrCodeStoreWrite   = "ERR_204_STORE_WRITE"

	// Provider errors (300-399)
	ErrCodeProviderTimeout     = "ERR_301_PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "ERR_302_PROVIDER_UNAVAILABLE"
	ErrCodeProviderStatus      = "ERR_303_PROVIDER_STATUS"
	ErrCodeProviderPayload     = "ERR_304_PROVIDER_PAYLOAD"

	// Validation errors (400-499)
	ErrCodeInvalidRequest = "ERR_401_INVALID_REQUEST"
	ErrCodeQueryEmpty     = "ERR_402_QUERY_EMPTY"
	ErrCodeNoSources      = "ERR_403_NO_SOURCES"
	ErrCodeInvalidLimit   = "ERR_404_INVALID_LIMIT"
	ErrCodeUnknownSource  = "ERR_405_UNKNOWN_SOURCE"
	ErrCodeUnknownMode    = "ERR_406_UNKNOWN_MODE"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeFusionFailed   = "ERR_502_FUSION_FAILED"
	ErrCodeDispatchFailed = "ERR_503_DISPATCH_FAILED"
	ErrCodeTelemetryWrite = "ERR_504_TELEMETRY_WRITE"
	ErrCodeCacheFailed    = "ERR_505_CACHE_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Fatal errors
	switch code {
	case ErrCodeStoreCorrupt, ErrCodeStoreLocked:
		return SeverityFatal
	}

	// Retryable provider errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeProviderTimeout, ErrCodeProviderUnavailable, ErrCodeProviderStatus:
		return true
	default:
		return false
	}
}
