package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/dhima/filplus-aggregator/internal/tasks"
	"github.com/dhima/filplus-aggregator/internal/testutil/fakes"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrigger struct {
	startErr error
	started  int
	health   models.HealthCheck
}

func (f *fakeTrigger) TryStart(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeTrigger) Health(context.Context) models.HealthCheck { return f.health }

type fakePlanner models.ExecutionPlan

func (f fakePlanner) Plan() models.ExecutionPlan { return models.ExecutionPlan(f) }

func newAggregationRouter(h *AggregationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/aggregation/runs", h.StartRun)
	r.GET("/api/v1/aggregation/runs", h.ListRuns)
	r.GET("/api/v1/aggregation/status", h.Status)
	r.GET("/api/v1/aggregation/runners", h.Runners)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestStartRun_WhenIdle_ThenReturns202(t *testing.T) {
	// Arrange
	trigger := &fakeTrigger{}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), trigger, nil, fakePlanner{}))

	// Act
	w := do(r, http.MethodPost, "/api/v1/aggregation/runs")

	// Assert
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, trigger.started)
}

func TestStartRun_WhenAlreadyRunning_ThenReturns409(t *testing.T) {
	// Arrange
	trigger := &fakeTrigger{startErr: tasks.ErrAlreadyRunning}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), trigger, nil, fakePlanner{}))

	// Act
	w := do(r, http.MethodPost, "/api/v1/aggregation/runs")

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "aggregation already in progress")
}

func TestStartRun_WhenUnexpectedError_ThenReturns500(t *testing.T) {
	// Arrange
	trigger := &fakeTrigger{startErr: errors.New("boom")}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), trigger, nil, fakePlanner{}))

	// Act
	w := do(r, http.MethodPost, "/api/v1/aggregation/runs")

	// Assert
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRuns_WhenFiltered_ThenReturnsMatchingRunsNewestFirst(t *testing.T) {
	// Arrange
	base := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	runs := &fakes.FakeRunStore{Runs: []models.AggregationRun{
		{ID: "a", Status: models.CycleStatusFailed, StartedAt: base},
		{ID: "b", Status: models.CycleStatusSucceeded, StartedAt: base.Add(time.Minute)},
		{ID: "c", Status: models.CycleStatusFailed, StartedAt: base.Add(2 * time.Minute)},
	}}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), &fakeTrigger{}, runs, fakePlanner{}))

	// Act
	w := do(r, http.MethodGet, "/api/v1/aggregation/runs?status=failed&limit=5")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var wrapper struct {
		Data []models.AggregationRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	require.Len(t, wrapper.Data, 2)
	assert.Equal(t, "c", wrapper.Data[0].ID)
	assert.Equal(t, "a", wrapper.Data[1].ID)
}

func TestListRuns_WhenQueryInvalid_ThenReturns400(t *testing.T) {
	// Arrange
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), &fakeTrigger{}, &fakes.FakeRunStore{}, fakePlanner{}))

	// Act
	w := do(r, http.MethodGet, "/api/v1/aggregation/runs?status=exploded")

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRuns_WhenStoreFails_ThenReturns500(t *testing.T) {
	// Arrange
	runs := &fakes.FakeRunStore{Err: errors.New("db down")}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), &fakeTrigger{}, runs, fakePlanner{}))

	// Act
	w := do(r, http.MethodGet, "/api/v1/aggregation/runs")

	// Assert
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatus_WhenCalled_ThenReturnsTriggerState(t *testing.T) {
	// Arrange
	next := time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC)
	trigger := &fakeTrigger{health: models.HealthCheck{
		Name:     "aggregation",
		Healthy:  false,
		Error:    "runner exploded",
		Metadata: models.HealthMetadata{Running: true, NextRunAt: &next},
	}}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), trigger, nil, fakePlanner{}))

	// Act
	w := do(r, http.MethodGet, "/api/v1/aggregation/status")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var wrapper struct {
		Data StatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.False(t, wrapper.Data.Healthy)
	assert.Equal(t, "runner exploded", wrapper.Data.LastError)
	assert.True(t, wrapper.Data.State.Running)
	require.NotNil(t, wrapper.Data.State.NextRunAt)
	assert.True(t, next.Equal(*wrapper.Data.State.NextRunAt))
}

func TestRunners_WhenCalled_ThenReturnsPlan(t *testing.T) {
	// Arrange
	planner := fakePlanner{Order: []models.RunnerInfo{
		{Position: 1, Name: "ProvidersWeeklyRunner", Fills: []models.LogicalTable{models.TableProvidersWeekly}},
	}}
	r := newAggregationRouter(NewAggregationHandler(logging.NewNoOpLogger(), &fakeTrigger{}, nil, planner))

	// Act
	w := do(r, http.MethodGet, "/api/v1/aggregation/runners")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var wrapper struct {
		Data models.ExecutionPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	require.Len(t, wrapper.Data.Order, 1)
	assert.Equal(t, "ProvidersWeeklyRunner", wrapper.Data.Order[0].Name)
}
