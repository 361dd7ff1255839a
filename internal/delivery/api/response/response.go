package response

import (
	"net/http"

	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	"github.com/labstack/echo/v4"
)

// MessageResponse is the body of a successful auth call
type MessageResponse struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

// ErrorResponse defines the structure for error responses
type ErrorResponse struct {
	Message string `json:"message"`          // Client-facing error message
	Errors  any    `json:"errors,omitempty"` // Field-level detail (only for 4xx errors)
}

// Success returns a successful response
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Message returns a successful response carrying a message and the affected username
func Message(c echo.Context, statusCode int, message, username string) error {
	return Success(c, statusCode, MessageResponse{Message: message, Username: username})
}

// Error returns an error response
func Error(c echo.Context, statusCode int, message string, details any) error {
	// Details should not be included for 5xx errors or authentication/authorization errors
	if statusCode >= 500 || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Message: message,
		Errors:  details,
	})
}

// ValidationFailed returns a 400 error listing the rejected fields
func ValidationFailed(c echo.Context, violations ...domainerrors.FieldViolation) error {
	verr := domainerrors.NewValidationError(violations...)

	return Error(c, verr.HTTPCode(), verr.Message(), verr.Details())
}

// InternalServerError returns a 500 error that reveals nothing about the cause
func InternalServerError(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, domainerrors.ErrInternalError.Message(), nil)
}

// HandleAppError writes client errors directly. Server faults are handed back to the
// central error handler so they are logged before the generic 500 is sent.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) && appErr.HTTPCode() < http.StatusInternalServerError {
		return Error(c, appErr.HTTPCode(), appErr.Message(), appErr.Details())
	}

	return errors.WithStack(err)
}
