package handlers

import (
	"net/http"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus registry.
type MetricsHandler struct {
	logger  logging.Logger
	handler http.Handler
}

// NewMetricsHandler serves gatherer in the Prometheus text format.
func NewMetricsHandler(logger logging.Logger, gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{
		logger:  logger,
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// Metrics godoc
// @Summary Prometheus metrics
// @Description Returns runner phase durations and cycle outcomes in the Prometheus exposition format
// @Tags System
// @Produce plain
// @Success 200 {string} string "Prometheus metrics"
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	h.handler.ServeHTTP(c.Writer, c.Request)
}
