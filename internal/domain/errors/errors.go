package errors

import (
	"net/http"

	"keyauth/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // Client-facing error message
	Details() any      // Structured detail for the response body (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   any
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message string, details any) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the client-facing error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() any {
	return e.details
}

// Predefined error types
var (
	ErrUsernameTaken = NewBaseError(
		http.StatusConflict,
		"USERNAME_TAKEN",
		"username already exists",
		nil,
	)

	// Unknown username and wrong password share this value so callers cannot tell them apart.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"invalid credentials",
		nil,
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"validation failed",
		nil,
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		nil,
	)

	ErrServiceUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"SERVICE_UNAVAILABLE",
		"service unavailable",
		nil,
	)
)

// StoreFaultError marks a failure of the backing key-value store, implementing the AppError interface.
// The underlying cause stays server-side; clients only ever see the generic message.
type StoreFaultError struct {
	op  string
	err error
}

// NewStoreFaultError creates a store-related error for the named operation
func NewStoreFaultError(op string, err error) *StoreFaultError {
	return &StoreFaultError{
		op:  op,
		err: err,
	}
}

// Error implements the error interface
func (e *StoreFaultError) Error() string {
	return errors.Wrapf(e.err, "store %s failed", e.op).Error()
}

// Unwrap exposes the transport error
func (e *StoreFaultError) Unwrap() error {
	return e.err
}

// Op returns the store operation that failed
func (e *StoreFaultError) Op() string {
	return e.op
}

// HTTPCode returns the HTTP status code
func (e *StoreFaultError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StoreFaultError) ErrorCode() string {
	return "STORE_UNAVAILABLE"
}

// Message returns the client-facing error message
func (e *StoreFaultError) Message() string {
	return ErrInternalError.Message()
}

// Details is always empty so no transport detail reaches a client
func (e *StoreFaultError) Details() any {
	return nil
}

// IsStoreFault reports whether err was caused by the key-value store.
func IsStoreFault(err error) bool {
	_, ok := errors.AsType[*StoreFaultError](err)

	return ok
}
