package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Structural violations abort a pass
	ErrStructural      ErrorCode = "STRUCTURAL_VIOLATION"
	ErrTypeMismatch    ErrorCode = "TYPE_MISMATCH"
	ErrInvalidDelta    ErrorCode = "INVALID_DELTA"
	ErrMissingArgument ErrorCode = "MISSING_ARGUMENT"

	// Resource operation failures are recovered per node
	ErrResourceCopy   ErrorCode = "RESOURCE_COPY"
	ErrResourceDelete ErrorCode = "RESOURCE_DELETE"
	ErrResourceCreate ErrorCode = "RESOURCE_CREATE"

	// Persistence errors
	ErrPersistenceCorrupt ErrorCode = "PERSISTENCE_CORRUPT"
	ErrPersistenceWrite   ErrorCode = "PERSISTENCE_WRITE"
	ErrStateVersion       ErrorCode = "STATE_VERSION"

	// Relocation errors
	ErrRelocation ErrorCode = "RELOCATION_FAILED"

	// Concurrency guards
	ErrPassInProgress ErrorCode = "PASS_IN_PROGRESS"
	ErrScanInProgress ErrorCode = "SCAN_IN_PROGRESS"

	// Configuration and model errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigValid   ErrorCode = "CONFIG_INVALID"
	ErrItemNotFound  ErrorCode = "ITEM_NOT_FOUND"
	ErrExporterFault ErrorCode = "EXPORTER_FAILED"
)

// structuralCodes are the codes that make a pass fail as a whole.
var structuralCodes = map[ErrorCode]bool{
	ErrStructural:      true,
	ErrTypeMismatch:    true,
	ErrInvalidDelta:    true,
	ErrMissingArgument: true,
}

// CopyfoldError represents a structured error with code and details
type CopyfoldError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *CopyfoldError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *CopyfoldError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *CopyfoldError) Is(target error) bool {
	var targetErr *CopyfoldError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new CopyfoldError with the given code and message
func New(code ErrorCode, message string) *CopyfoldError {
	return &CopyfoldError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new CopyfoldError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *CopyfoldError {
	return &CopyfoldError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a CopyfoldError
func Wrap(err error, code ErrorCode, message string) *CopyfoldError {
	if err == nil {
		return nil
	}
	return &CopyfoldError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *CopyfoldError {
	if err == nil {
		return nil
	}
	return &CopyfoldError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *CopyfoldError) WithDetail(key string, value interface{}) *CopyfoldError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *CopyfoldError) WithDetails(details map[string]interface{}) *CopyfoldError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var cfErr *CopyfoldError
	if errors.As(err, &cfErr) {
		return cfErr.Code == code
	}
	return false
}

// IsStructural reports whether err belongs to the fatal structural class.
func IsStructural(err error) bool {
	var cfErr *CopyfoldError
	if errors.As(err, &cfErr) {
		return structuralCodes[cfErr.Code]
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a CopyfoldError
func GetErrorCode(err error) ErrorCode {
	var cfErr *CopyfoldError
	if errors.As(err, &cfErr) {
		return cfErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a CopyfoldError
func GetErrorDetails(err error) map[string]interface{} {
	var cfErr *CopyfoldError
	if errors.As(err, &cfErr) {
		return cfErr.Details
	}
	return nil
}
