package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// HasCode reports whether err is an AppError carrying the given code,
// directly or anywhere along its cause chain.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			if appErr.Code == code {
				return true
			}
			err = appErr.Cause
			continue
		}
		return false
	}
	return false
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeFileNotFound        = "FILE_NOT_FOUND"
	CodeEncodingUnresolved  = "ENCODING_UNRESOLVED"
	CodeInsufficientColumns = "INSUFFICIENT_COLUMNS"
	CodeColumnComputation   = "COLUMN_COMPUTATION_ERROR"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Common error constructors

func FileNotFound(path string) *AppError {
	return New(CodeFileNotFound, fmt.Sprintf("file not found: %s", path))
}

func EncodingUnresolved(path string, tried []string) *AppError {
	return New(CodeEncodingUnresolved, fmt.Sprintf("no candidate encoding decodes %s (tried %v)", path, tried))
}

func InsufficientColumns(have, want int) *AppError {
	return New(CodeInsufficientColumns, fmt.Sprintf("table has %d columns, positional analysis needs at least %d", have, want))
}

func ColumnComputation(column string, cause error) *AppError {
	return &AppError{
		Code:    CodeColumnComputation,
		Message: fmt.Sprintf("failed to compute statistics for column %q", column),
		Cause:   cause,
	}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}
