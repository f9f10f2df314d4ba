package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/api/handlers"
	"github.com/dhima/filplus-aggregator/internal/api/middleware"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/dhima/filplus-aggregator/internal/tasks"
	"github.com/dhima/filplus-aggregator/internal/testutil/fakes"
	"github.com/dhima/filplus-aggregator/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleScheduler struct{}

func (idleScheduler) RunCycle(context.Context) (*models.CycleReport, error) {
	return &models.CycleReport{Status: models.CycleStatusSucceeded}, nil
}

func newTestServer(t *testing.T, cfg config.App, indicators ...handlers.HealthIndicator) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	trigger, err := tasks.NewTrigger(tasks.TriggerConfig{Scheduler: idleScheduler{}})
	require.NoError(t, err)
	t.Cleanup(trigger.Stop)

	registry, err := aggregation.NewRegistry(&aggregation.FuncRunner{RunnerName: "A", Fills: []models.LogicalTable{"X"}})
	require.NoError(t, err)
	scheduler := aggregation.NewScheduler(aggregation.SchedulerConfig{Registry: registry})

	reg := prometheus.NewRegistry()
	metrics.NewPrometheusTimer(reg)

	return NewServer(Dependencies{
		Config:     cfg,
		Logger:     logging.NewNoOpLogger(),
		Trigger:    trigger,
		Runs:       &fakes.FakeRunStore{},
		Planner:    scheduler,
		Gatherer:   reg,
		Indicators: append([]handlers.HealthIndicator{trigger}, indicators...),
	})
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_WhenRoutesRequested_ThenEveryEndpointIsMounted(t *testing.T) {
	// Arrange
	s := newTestServer(t, config.App{CORSOrigins: []string{"*"}})

	for _, path := range []string{
		"/health",
		"/metrics",
		"/api/v1/aggregation/runs",
		"/api/v1/aggregation/status",
		"/api/v1/aggregation/runners",
	} {
		t.Run(path, func(t *testing.T) {
			// Act
			w := get(s, path)

			// Assert
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestServer_WhenDependencyUnhealthy_ThenHealthReturns503(t *testing.T) {
	// Arrange
	s := newTestServer(t, config.App{}, handlers.PingIndicator{
		Name: "mysql",
		Ping: func(context.Context) error { return assert.AnError },
	})

	// Act
	w := get(s, "/health")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"mysql"`)
}

func TestServer_WhenManualRunRequested_ThenAccepted(t *testing.T) {
	// Arrange
	s := newTestServer(t, config.App{})
	w := httptest.NewRecorder()

	// Act
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/aggregation/runs", nil))

	// Assert
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestServer_WhenPreflightFromAllowedOrigin_ThenCORSHeadersSet(t *testing.T) {
	// Arrange
	s := newTestServer(t, config.App{CORSOrigins: []string{"https://dashboard.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/aggregation/status", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()

	// Act
	s.Handler().ServeHTTP(w, req)

	// Assert
	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowsAnyOrigin(t *testing.T) {
	assert.True(t, allowsAnyOrigin([]string{"https://a", "*"}))
	assert.False(t, allowsAnyOrigin([]string{"https://a"}))
	assert.False(t, allowsAnyOrigin(nil))
}
