package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/hbnb-api/internal/middleware"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/storage"
	"github.com/labstack/echo/v4"
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type checkResult map[string]any

// CheckHealth probes the configured dependencies. An unhealthy store makes
// the whole service unhealthy (503); Redis only degrades background jobs.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	obs := h.server.Config.Observability

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]checkResult{}
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"engine":      h.server.Config.Storage.Engine,
		"checks":      checks,
	}
	isHealthy := true

	if obs == nil || obs.HealthCheckEnabled("storage") {
		result, err := h.probe(c.Request().Context(), func(ctx context.Context) error {
			if pinger, ok := h.server.Store.(storage.Pinger); ok {
				return pinger.Ping(ctx)
			}
			return nil
		})
		checks["storage"] = result
		if err != nil {
			isHealthy = false
			logger.Error().Err(err).Msg("storage health check failed")
			h.recordFailure("storage", err)
		}
	}

	if h.server.Redis != nil && (obs == nil || obs.HealthCheckEnabled("redis")) {
		result, err := h.probe(c.Request().Context(), func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
		checks["redis"] = result
		if err != nil {
			logger.Error().Err(err).Msg("redis health check failed")
			h.recordFailure("redis", err)
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}

func (h *HealthHandler) probe(parent context.Context, check func(ctx context.Context) error) (checkResult, error) {
	timeout := 5 * time.Second
	if obs := h.server.Config.Observability; obs != nil {
		timeout = obs.HealthCheckTimeout()
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	started := time.Now()
	err := check(ctx)
	result := checkResult{
		"status":        "healthy",
		"response_time": time.Since(started).String(),
	}
	if err != nil {
		result["status"] = "unhealthy"
		result["error"] = err.Error()
	}
	return result, err
}

func (h *HealthHandler) recordFailure(check string, err error) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", map[string]any{
			"check_type":    check,
			"operation":     "health_check",
			"error_type":    check + "_unhealthy",
			"error_message": err.Error(),
		})
	}
}
