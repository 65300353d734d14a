package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConnection     ErrorType = "CONNECTION"
	ErrTypeMalformedData  ErrorType = "MALFORMED_DATA"
	ErrTypeSchemaMismatch ErrorType = "SCHEMA_MISMATCH"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeConfig         ErrorType = "CONFIG"
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

// NewConnectionError reports that the source could not be reached or read.
func NewConnectionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConnection, message, cause)
}

// NewMalformedDataError reports an empty or unparsable payload.
func NewMalformedDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedData, message, cause)
}

// NewSchemaMismatchError reports a required column missing from the source.
// The pipeline logs these and degrades; they are never returned to callers.
func NewSchemaMismatchError(column string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, fmt.Sprintf("column %q not present", column), nil).
		WithContext("column", column)
}

// NewParseError reports a single cell that could not be coerced.
func NewParseError(column, value string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, fmt.Sprintf("cannot parse %q in column %q", value, column), cause).
		WithContext("column", column).
		WithContext("value", value)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsConnectionError reports whether err is a ConnectionError
func IsConnectionError(err error) bool {
	return TypeOf(err) == ErrTypeConnection
}

// IsMalformedData reports whether err is a MalformedDataError
func IsMalformedData(err error) bool {
	return TypeOf(err) == ErrTypeMalformedData
}
