// Package errors defines the structured error type shared by the loader,
// the preference stores and the CLI.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeState      ErrorType = "state"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeMissingField    = "ERR_MISSING_FIELD"
	ErrCodeMalformedRecord = "ERR_MALFORMED_RECORD"
	ErrCodeDuplicateID     = "ERR_DUPLICATE_ID"
	ErrCodeUnsafeID        = "ERR_UNSAFE_ID"
	ErrCodeUnknownTheme    = "ERR_UNKNOWN_THEME"
	ErrCodeUnknownLocale   = "ERR_UNKNOWN_LOCALE"
	ErrCodeUnknownKind     = "ERR_UNKNOWN_KIND"
	ErrCodeStorage         = "ERR_STORAGE"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInvalidPath     = "ERR_INVALID_PATH"
	ErrCodePathTraversal   = "ERR_PATH_TRAVERSAL"
	ErrCodeFileNotFound    = "ERR_FILE_NOT_FOUND"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// Error is a structured error type with context.
type Error struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same type and code, so sentinel
// values match errors built later with extra context.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *Error) WithLocation(filePath string, line int) *Error {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithComponent adds component context.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewParseError creates an error for a record that could not be decoded.
func NewParseError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeParse,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewStateError creates an error for a rejected state transition. The
// previous state is always retained, so these are recoverable.
func NewStateError(code, message string) *Error {
	return &Error{
		Type:        ErrorTypeState,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps err with a type, code and message. Location and component
// information from an inner *Error is preserved.
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeParse || errType == ErrorTypeState,
	}

	var inner *Error
	if errors.As(err, &inner) {
		wrapped.Context = inner.Context
		wrapped.Component = inner.Component
		wrapped.FilePath = inner.FilePath
		wrapped.Line = inner.Line
	}

	return wrapped
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable
	}

	return false
}

// HasErrorType checks if any error in the chain has the specified type.
func HasErrorType(err error, errType ErrorType) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Type == errType {
			return true
		}
	}

	return false
}

// HasErrorCode checks if any error in the chain has the specified code.
func HasErrorCode(err error, code string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
	}

	return false
}

// IsParseError checks if an error is a malformed-record error.
func IsParseError(err error) bool {
	return HasErrorType(err, ErrorTypeParse)
}

// IsValidationError checks if an error is an advisory validation finding.
func IsValidationError(err error) bool {
	return HasErrorType(err, ErrorTypeValidation)
}

// IsStateError checks if an error is a rejected state transition.
func IsStateError(err error) bool {
	return HasErrorType(err, ErrorTypeState)
}

// GetRootCause returns the deepest underlying error in the chain.
func GetRootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}

	return nil
}

// MissingFields reports required front-matter keys that were absent or empty.
func MissingFields(filePath string, fields []string) *Error {
	return NewValidationError(
		ErrCodeMissingField,
		"missing required fields: "+strings.Join(fields, ", "),
	).WithLocation(filePath, 0).WithContext("fields", fields)
}

// MalformedRecord reports a content file that could not be read or decoded.
func MalformedRecord(filePath string, cause error) *Error {
	return NewParseError(ErrCodeMalformedRecord, "malformed record", cause).
		WithLocation(filePath, 0)
}

// DuplicateID reports a record whose identity was already taken.
func DuplicateID(filePath, id, firstPath string) *Error {
	return NewValidationError(
		ErrCodeDuplicateID,
		fmt.Sprintf("duplicate id %q, first defined in %s", id, firstPath),
	).WithLocation(filePath, 0).WithContext("id", id)
}

// UnsafeID reports an identity that cannot be used to address a file.
func UnsafeID(id string) *Error {
	return NewSecurityError(ErrCodeUnsafeID, fmt.Sprintf("unsafe id %q", id)).
		WithContext("id", id)
}

// ErrPathTraversal creates a path traversal security error.
func ErrPathTraversal(path string) *Error {
	return NewSecurityError(ErrCodePathTraversal, "path traversal attempt: "+path)
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *Error {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ConfigurationError reports an invalid configuration setting.
func ConfigurationError(setting, message string, value interface{}) *Error {
	return NewConfigError(ErrCodeConfigInvalid, setting+": "+message).
		WithContext("setting", setting).
		WithContext("value", value)
}
