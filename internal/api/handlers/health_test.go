package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIndicator models.HealthCheck

func (s staticIndicator) Health(context.Context) models.HealthCheck { return models.HealthCheck(s) }

func serveHealth(t *testing.T, indicators ...HealthIndicator) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", NewHealthHandler(logging.NewNoOpLogger(), indicators...).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var wrapper struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	return w, wrapper.Data
}

func TestHealth_WhenNoIndicators_ThenReturns200(t *testing.T) {
	// Act
	w, resp := serveHealth(t)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "filplus-aggregator", resp.Service)
	assert.Empty(t, resp.Checks)
}

func TestHealth_WhenAllIndicatorsHealthy_ThenReturns200WithChecks(t *testing.T) {
	// Act
	w, resp := serveHealth(t,
		staticIndicator{Name: "aggregation", Healthy: true},
		PingIndicator{Name: "mysql", Ping: func(context.Context) error { return nil }},
	)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "aggregation", resp.Checks[0].Name)
	assert.Equal(t, "mysql", resp.Checks[1].Name)
}

func TestHealth_WhenAnyIndicatorFails_ThenReturns503WithDetails(t *testing.T) {
	// Act
	w, resp := serveHealth(t,
		staticIndicator{Name: "aggregation", Healthy: false, Error: "runner exploded"},
		PingIndicator{Name: "mysql", Ping: func(context.Context) error { return nil }},
	)

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.False(t, resp.Checks[0].Healthy)
	assert.Equal(t, "runner exploded", resp.Checks[0].Error)
	assert.True(t, resp.Checks[1].Healthy)
}

func TestPingIndicator_WhenPingFails_ThenUnhealthy(t *testing.T) {
	// Arrange
	indicator := PingIndicator{Name: "postgres", Ping: func(context.Context) error { return errors.New("refused") }}

	// Act
	check := indicator.Health(context.Background())

	// Assert
	assert.False(t, check.Healthy)
	assert.Equal(t, "refused", check.Error)
}
