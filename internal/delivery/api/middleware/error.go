package middleware

import (
	"log/slog"
	"net/http"

	"keyauth/internal/delivery/api/response"
	deliverycontext "keyauth/internal/delivery/context"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Attempt to parse as AppError
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			m.logFailure(c, err, "Request failed")
		}

		_ = response.Error(c, appErr.HTTPCode(), appErr.Message(), appErr.Details())

		return
	}

	// Check if it is an Echo HTTPError (unknown route, wrong method, body too large)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		if httpErr.Code >= http.StatusInternalServerError {
			m.logFailure(c, err, "Request failed")
		}

		_ = response.Error(c, httpErr.Code, message, nil)

		return
	}

	// Default to internal error, log the error but return a generic message (do not expose internal details)
	m.logFailure(c, err, "Unhandled error")

	_ = response.InternalServerError(c)
}

func (m *ErrorMiddleware) logFailure(c echo.Context, err error, msg string) {
	req := c.Request()

	deliverycontext.GetLoggerOrDefault(req.Context(), m.logger).Error(msg,
		slog.Any("error", err),
		slog.String("stack", errors.StackTrace(err)),
		slog.String("path", req.URL.Path),
		slog.String("method", req.Method),
		slog.String("request_id", deliverycontext.GetRequestID(c)),
	)
}
