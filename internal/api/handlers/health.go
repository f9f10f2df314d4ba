package handlers

import (
	"context"

	"github.com/dhima/filplus-aggregator/internal/api/response"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "filplus-aggregator"
	serviceVersion = "1.0.0"
)

// HealthIndicator contributes one check to the health endpoint.
type HealthIndicator interface {
	Health(ctx context.Context) models.HealthCheck
}

// PingIndicator reports a dependency healthy when Ping succeeds.
type PingIndicator struct {
	Name string
	Ping func(ctx context.Context) error
}

func (p PingIndicator) Health(ctx context.Context) models.HealthCheck {
	check := models.HealthCheck{Name: p.Name, Healthy: true}
	if err := p.Ping(ctx); err != nil {
		check.Healthy = false
		check.Error = err.Error()
	}
	return check
}

// HealthHandler aggregates health indicators.
type HealthHandler struct {
	logger     logging.Logger
	indicators []HealthIndicator
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(logger logging.Logger, indicators ...HealthIndicator) *HealthHandler {
	return &HealthHandler{logger: logger, indicators: indicators}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string               `json:"status" example:"ok"`
	Service string               `json:"service" example:"filplus-aggregator"`
	Version string               `json:"version" example:"1.0.0"`
	Checks  []models.HealthCheck `json:"checks"`
} // @name HealthResponse

// Health godoc
// @Summary Health check endpoint
// @Description Aggregates every health indicator. Any failing indicator turns the response into a 503.
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Service: serviceName,
		Version: serviceVersion,
		Checks:  make([]models.HealthCheck, 0, len(h.indicators)),
	}

	for _, indicator := range h.indicators {
		check := indicator.Health(c.Request.Context())
		if !check.Healthy {
			resp.Status = "unhealthy"
			h.logger.Warn("health check failed",
				zap.String("check", check.Name),
				zap.String("error", check.Error),
				zap.String("request_id", response.GetRequestID(c)),
			)
		}
		resp.Checks = append(resp.Checks, check)
	}

	if resp.Status != "ok" {
		response.ServiceUnavailable(c, resp, "one or more health checks failed")
		return
	}
	response.OK(c, resp)
}
