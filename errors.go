package relay

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the caller provided invalid input that must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is a categorized error with metadata for error handling decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.Cat
}

// Retryable returns true if the error is transient and can be retried.
func (e *Error) Retryable() bool {
	return e.Cat == ErrorTransient
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a transient error with a suggested retry delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating invalid caller input.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// IsTransient returns true if the error is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if the error is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// IsUserInput returns true if the error is categorized as user input error.
func IsUserInput(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorUserInput
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a categorized error, or 0.
func StatusCodeOf(err error) int {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// ConfigurationValidationError reports a recognized setting whose value has
// the wrong shape. The offending value is never included in the message.
type ConfigurationValidationError struct {
	Key    string // e.g. "HUNYUAN_OPENAI_BASE_URL"
	Reason string
	Cause  error
}

// Error returns a message naming the key and the reason.
func (e *ConfigurationValidationError) Error() string {
	msg := fmt.Sprintf("invalid setting %s: %s", e.Key, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigurationValidationError) Unwrap() error {
	return e.Cause
}

// ServiceInitializationError is returned when a client cannot be constructed.
// Msg carries the remedy, such as which environment variable to set.
type ServiceInitializationError struct {
	Profile string
	Msg     string
	Cause   error
}

// Error returns the formatted initialization failure.
func (e *ServiceInitializationError) Error() string {
	prefix := "relay: "
	if e.Profile != "" {
		prefix = fmt.Sprintf("relay: %s: ", e.Profile)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %v", prefix, e.Msg, e.Cause)
	}
	return prefix + e.Msg
}

// Unwrap returns the underlying error.
func (e *ServiceInitializationError) Unwrap() error {
	return e.Cause
}
