// Package errors defines the application error taxonomy. Most degradations
// in this system are silent by design - a missing artifact, a malformed
// file, an unresolvable column all degrade to absence - but they must stay
// observable, so each carries a distinguishable type for structured logging.
// Insufficient forecast history is the one case reported as a genuine
// failure.
package errors

import "fmt"

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrTypeMissingArtifact   ErrorType = "MISSING_ARTIFACT"
	ErrTypeMalformedArtifact ErrorType = "MALFORMED_ARTIFACT"
	ErrTypeSchemaMismatch    ErrorType = "SCHEMA_MISMATCH"
	ErrTypeInsufficientData  ErrorType = "INSUFFICIENT_DATA"
	ErrTypeValidation        ErrorType = "VALIDATION"
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeStorage           ErrorType = "STORAGE"
	ErrTypeConfig            ErrorType = "CONFIG"
)

// AppError is an application-specific error with a classified type and
// optional context for logging.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for structured logging.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a classified application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewMissingArtifactError reports an artifact whose source path is absent.
func NewMissingArtifactError(path string) *AppError {
	return NewAppError(ErrTypeMissingArtifact, fmt.Sprintf("artifact not found: %s", path), nil)
}

// NewMalformedArtifactError reports an artifact whose content could not be
// parsed as tabular data.
func NewMalformedArtifactError(path string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedArtifact, fmt.Sprintf("artifact not tabular: %s", path), cause)
}

// NewSchemaMismatchError reports a domain concept that could not be resolved
// to any column of a dataset.
func NewSchemaMismatchError(concept, artifact string) *AppError {
	e := NewAppError(ErrTypeSchemaMismatch, fmt.Sprintf("concept %q not resolvable", concept), nil)
	return e.WithContext("artifact", artifact)
}

// NewInsufficientDataError reports that no usable numeric history exists.
func NewInsufficientDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, cause)
}

// NewConfigError reports invalid configuration.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError reports a filesystem failure outside the tolerant load
// path, e.g. when writing a report.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
