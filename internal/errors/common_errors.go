package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema              ErrorType = "SCHEMA"
	ErrTypeMalformedTimestamp  ErrorType = "MALFORMED_TIMESTAMP"
	ErrTypeMalformedIdentifier ErrorType = "MALFORMED_IDENTIFIER"
	ErrTypeMalformedValue      ErrorType = "MALFORMED_VALUE"
	ErrTypeStorage             ErrorType = "STORAGE"
	ErrTypeValidation          ErrorType = "VALIDATION"
	ErrTypeNotFound            ErrorType = "NOT_FOUND"
	ErrTypeConfig              ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// AsAppError returns the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain holds an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}

// NewSchemaError reports required columns absent from a sheet
func NewSchemaError(sheet string, missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("sheet %q is missing required columns: %s", sheet, strings.Join(missing, ", ")), nil).
		WithContext("sheet", sheet).
		WithContext("missing_columns", missing)
}

// NewMalformedTimestampError reports a timestamp cell that could not be parsed
func NewMalformedTimestampError(row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedTimestamp,
		fmt.Sprintf("row %d: cannot parse scan timestamp %q", row, value), cause).
		WithContext("row", row).
		WithContext("value", value)
}

// NewMalformedIdentifierError reports an identifier without the expected separator
func NewMalformedIdentifierError(row int, value string) *AppError {
	return NewAppError(ErrTypeMalformedIdentifier,
		fmt.Sprintf("row %d: identifier %q has no device separator", row, value), nil).
		WithContext("row", row).
		WithContext("value", value)
}

// NewMalformedValueError reports a numeric cell that could not be parsed
func NewMalformedValueError(row int, column, value string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedValue,
		fmt.Sprintf("row %d: column %s holds non-numeric value %q", row, column, value), cause).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
