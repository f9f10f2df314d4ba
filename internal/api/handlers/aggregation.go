package handlers

import (
	"context"
	"errors"

	"github.com/dhima/filplus-aggregator/internal/api/response"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/dhima/filplus-aggregator/internal/tasks"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CycleTrigger starts cycles and reports trigger state.
type CycleTrigger interface {
	TryStart(ctx context.Context) error
	Health(ctx context.Context) models.HealthCheck
}

// RunLister reads the aggregation run history.
type RunLister interface {
	ListRuns(ctx context.Context, query models.ListRunsQuery) ([]models.AggregationRun, error)
}

// Planner computes the execution order of the registered runners.
type Planner interface {
	Plan() models.ExecutionPlan
}

// AggregationHandler handles aggregation requests.
type AggregationHandler struct {
	logger  logging.Logger
	trigger CycleTrigger
	runs    RunLister
	planner Planner
}

// NewAggregationHandler creates a new aggregation handler.
func NewAggregationHandler(logger logging.Logger, trigger CycleTrigger, runs RunLister, planner Planner) *AggregationHandler {
	return &AggregationHandler{
		logger:  logger.With(zap.String("handler", "aggregation")),
		trigger: trigger,
		runs:    runs,
		planner: planner,
	}
}

// StatusResponse describes the trigger.
type StatusResponse struct {
	Healthy   bool                  `json:"healthy" example:"true"`
	LastError string                `json:"last_error,omitempty"`
	State     models.HealthMetadata `json:"state"`
} // @name StatusResponse

// StartRun godoc
// @Summary Start an aggregation cycle
// @Description Starts a cycle in the background. Only one cycle runs at a time.
// @Tags Aggregation
// @Produce json
// @Success 202 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse "A cycle is already running"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/aggregation/runs [post]
func (h *AggregationHandler) StartRun(c *gin.Context) {
	err := h.trigger.TryStart(c.Request.Context())
	if errors.Is(err, tasks.ErrAlreadyRunning) {
		response.Conflict(c, "aggregation already in progress", nil)
		return
	}
	if err != nil {
		h.logger.Error("failed to start aggregation",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "failed to start aggregation")
		return
	}

	h.logger.Info("aggregation started on request", zap.String("request_id", response.GetRequestID(c)))
	response.Accepted(c, nil, "aggregation started")
}

// ListRuns godoc
// @Summary List aggregation runs
// @Description Returns the most recent cycles, newest first
// @Tags Aggregation
// @Produce json
// @Param status query string false "Filter by cycle status" Enums(succeeded, partial, failed)
// @Param limit query int false "Maximum number of runs" default(20) minimum(1) maximum(100)
// @Success 200 {array} models.AggregationRun
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/aggregation/runs [get]
func (h *AggregationHandler) ListRuns(c *gin.Context) {
	var query models.ListRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("invalid list runs query",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}

	if h.runs == nil {
		response.OK(c, []models.AggregationRun{})
		return
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("failed to list aggregation runs",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "failed to list aggregation runs")
		return
	}
	response.OK(c, runs)
}

// Status godoc
// @Summary Aggregation trigger status
// @Description Returns whether a cycle is running, the last run and success times and the next scheduled run
// @Tags Aggregation
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/v1/aggregation/status [get]
func (h *AggregationHandler) Status(c *gin.Context) {
	health := h.trigger.Health(c.Request.Context())
	response.OK(c, StatusResponse{
		Healthy:   health.Healthy,
		LastError: health.Error,
		State:     health.Metadata,
	})
}

// Runners godoc
// @Summary Planned runner order
// @Description Returns the order the next cycle would execute runners in, and any runners whose dependencies can never be met
// @Tags Aggregation
// @Produce json
// @Success 200 {object} models.ExecutionPlan
// @Router /api/v1/aggregation/runners [get]
func (h *AggregationHandler) Runners(c *gin.Context) {
	response.OK(c, h.planner.Plan())
}
