package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"keyauth/internal/delivery/api/response"
	deliverycontext "keyauth/internal/delivery/context"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const readinessTimeout = 3 * time.Second

// Pinger is anything whose availability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerParams holds dependencies for HealthHandler, injected by Fx.
type HealthHandlerParams struct {
	fx.In

	Store  Pinger
	Logger *slog.Logger
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler is the constructor for HealthHandler
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	return &HealthHandler{
		store:  params.Store,
		logger: params.Logger,
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports liveness. It never touches the store.
func (h *HealthHandler) Health(c echo.Context) error {
	return response.Success(c, http.StatusOK, healthResponse{Status: "ok"})
}

// Ready reports whether the store answers a ping. The cause of a failure is logged, never returned.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		unavailable := errors.Wrap(domainerrors.ErrServiceUnavailable, err.Error())
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Readiness check failed", slog.Any("error", unavailable))

		return response.Success(c, domainerrors.ErrServiceUnavailable.HTTPCode(), healthResponse{
			Status: "unavailable",
			Checks: map[string]string{"redis": "down"},
		})
	}

	return response.Success(c, http.StatusOK, healthResponse{
		Status: "ok",
		Checks: map[string]string{"redis": "ok"},
	})
}
