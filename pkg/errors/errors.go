// Package errors defines structured error types for the Crowdlens service.
// Errors carry a machine-readable code so the retry wrapper and the HTTP
// layer can classify them without string matching.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable classification of an error.
type Code string

const (
	// CodeTransient indicates a connectivity or timeout class failure that
	// may succeed on retry.
	CodeTransient Code = "transient_failure"

	// CodeValidation indicates malformed or missing input. Never retried.
	CodeValidation Code = "validation_failure"

	// CodeConfiguration indicates invalid service configuration. Fatal at
	// startup, never per-follower.
	CodeConfiguration Code = "configuration_failure"

	// CodeNotFound indicates a requested entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeInternal indicates an unexpected internal failure.
	CodeInternal Code = "internal_error"
)

// AppError is the structured application error used across the service.
type AppError struct {
	ErrCode Code
	Message string
	Cause   error
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Code returns the error classification code.
func (e *AppError) Code() Code {
	return e.ErrCode
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches a cause error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail attaches a key/value pair of context metadata.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *AppError) HTTPStatus() int {
	switch e.ErrCode {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError with the given code and message.
func New(code Code, message string) *AppError {
	return &AppError{ErrCode: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err into an AppError with the given code and message. A nil err
// yields nil.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{ErrCode: code, Message: message, Cause: err}
}

// ================================================================================
// Domain-Specific Constructors
// ================================================================================

// ErrMissingUsername reports a follower record without the required username.
func ErrMissingUsername() *AppError {
	return New(CodeValidation, "follower record is missing required field: username")
}

// ErrMetricOutOfRange reports an engagement metric value outside [0,1].
func ErrMetricOutOfRange(name string, value float64) *AppError {
	return Newf(CodeValidation, "engagement metric %q value %v is outside [0,1]", name, value).
		WithDetail("metric", name).
		WithDetail("value", value)
}

// ErrUnknownMetric reports an engagement metric name outside the fixed set.
func ErrUnknownMetric(name string) *AppError {
	return Newf(CodeValidation, "unknown engagement metric: %s", name).
		WithDetail("metric", name)
}

// ErrWeightsNotNormalized reports risk weights that do not sum to 1.0.
func ErrWeightsNotNormalized(sum float64) *AppError {
	return Newf(CodeConfiguration, "risk weights must sum to 1.0, got %v", sum).
		WithDetail("sum", sum)
}

// ErrSourceUnavailable reports a transient lookup/connectivity failure
// against an upstream metrics or profile source.
func ErrSourceUnavailable(source string, cause error) *AppError {
	return Newf(CodeTransient, "%s source unavailable", source).
		WithCause(cause).
		WithDetail("source", source)
}

// ErrFollowerNotFound reports a username absent from a source that requires
// known followers.
func ErrFollowerNotFound(username string) *AppError {
	return Newf(CodeNotFound, "follower not found: %s", username).
		WithDetail("username", username)
}

// ================================================================================
// Classification Utilities
// ================================================================================

// CodeOf extracts the error code, defaulting to CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ErrCode
	}
	return CodeInternal
}

// AsAppError attempts to cast an error chain to *AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsTransient reports whether err is a retryable transient failure.
func IsTransient(err error) bool {
	return CodeOf(err) == CodeTransient
}

// IsValidation reports whether err is a non-retryable validation failure.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return CodeOf(err) == CodeConfiguration
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
