package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFileNotFound ErrorType = "FILE_NOT_FOUND"
	ErrTypeKeyNotFound  ErrorType = "KEY_NOT_FOUND"
	ErrTypeEmptyResult  ErrorType = "EMPTY_RESULT"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeStorage      ErrorType = "STORAGE"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrFileNotFound = &AppError{Type: ErrTypeFileNotFound, Message: "file not found"}
	ErrKeyNotFound  = &AppError{Type: ErrTypeKeyNotFound, Message: "key not found"}
	ErrEmptyResult  = &AppError{Type: ErrTypeEmptyResult, Message: "empty result"}
	ErrValidation   = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
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

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
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

// NewFileNotFoundError reports a missing input file.
func NewFileNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeFileNotFound, fmt.Sprintf("%s not found", path), cause).
		WithContext("path", path)
}

// NewKeyNotFoundError reports a lookup key (cell id, column name) absent from the data.
func NewKeyNotFoundError(kind, key string) *AppError {
	return NewAppError(ErrTypeKeyNotFound, fmt.Sprintf("%s %q not found", kind, key), nil).
		WithContext(kind, key)
}

// NewEmptyResultError reports a step that produced no rows.
func NewEmptyResultError(step string) *AppError {
	return NewAppError(ErrTypeEmptyResult, fmt.Sprintf("%s produced no rows", step), nil).
		WithContext("step", step)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
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
