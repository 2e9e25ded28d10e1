package platformerrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeUnknownProperty ErrorType = "UNKNOWN_PROPERTY"
	ErrorTypeRemoteService   ErrorType = "REMOTE_SERVICE"
	ErrorTypeTransport       ErrorType = "TRANSPORT"
	ErrorTypeDatabaseError   ErrorType = "DATABASE_ERROR"
	ErrorTypeInternal        ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred.
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerInfrastructure Layer = "infrastructure"
	LayerCommon         Layer = "common"
)

// PlatformError represents an error with context and metadata.
type PlatformError struct {
	Type      ErrorType
	Message   string
	Err       error
	Context   map[string]any
	Layer     Layer
	Timestamp time.Time

	// StatusCode is the upstream HTTP status for REMOTE_SERVICE errors.
	StatusCode int
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the error type.
func (e *PlatformError) GetErrorType() ErrorType {
	return e.Type
}

// NewError creates a new PlatformError with the specified parameters.
func NewError(layer Layer, errorType ErrorType, message string, err error) *PlatformError {
	return NewErrorWithContext(layer, errorType, message, err, nil)
}

// NewErrorWithContext creates a new PlatformError with additional context fields.
func NewErrorWithContext(layer Layer, errorType ErrorType, message string, err error, contextFields map[string]any) *PlatformError {
	errorContext := make(map[string]any)
	for k, v := range contextFields {
		errorContext[k] = v
	}

	return &PlatformError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		Layer:     layer,
		Timestamp: time.Now().UTC(),
		Context:   errorContext,
	}
}

// NewRemoteServiceError creates a REMOTE_SERVICE error carrying the upstream status code.
func NewRemoteServiceError(layer Layer, statusCode int, message string) *PlatformError {
	perr := NewError(layer, ErrorTypeRemoteService, message, nil)
	perr.StatusCode = statusCode
	return perr
}

// IsType reports whether err is (or wraps) a PlatformError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type == errorType
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict reports whether err is a CONFLICT error.
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// AsError wraps an error with layer context, preserving the type of an
// existing PlatformError.
func AsError(layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		wrapped := NewError(layer, platformErr.Type, fmt.Sprintf("%s: %s", message, platformErr.Message), platformErr)
		wrapped.StatusCode = platformErr.StatusCode
		return wrapped
	}

	return NewError(layer, ErrorTypeInternal, message, err)
}
