package middleware

import (
	"time"

	"keyauth/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records the latency and status of every request.
type MetricsMiddleware struct {
	metrics *metrics.Prometheus
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(prom *metrics.Prometheus) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: prom}
}

// Handle resolves the handler error first so the recorded status is the one the client receives.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		if err := next(c); err != nil {
			c.Error(err)
		}

		m.metrics.ObserveHTTPRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))

		return nil
	}
}
