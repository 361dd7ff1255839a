// Package router contains routing for the HTTP delivery.
package router

import (
	"keyauth/internal/delivery/api/router/handler"
	"keyauth/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
	Metrics       *metrics.Prometheus
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler
	metrics       *metrics.Prometheus
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:   params.AuthHandler,
		healthHandler: params.HealthHandler,
		metrics:       params.Metrics,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Probes
	e.GET("/health", r.healthHandler.Health)
	e.GET("/ready", r.healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(r.metrics.Handler()))

	// Auth routes
	e.POST("/register", r.authHandler.Register)
	e.POST("/login", r.authHandler.Login)
}
