// Package api serves the aggregator's HTTP surface: health, metrics, swagger
// and the aggregation endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dhima/filplus-aggregator/internal/api/handlers"
	"github.com/dhima/filplus-aggregator/internal/api/middleware"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/pkg/config"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP layer reads from.
type Dependencies struct {
	Config     config.App
	Logger     logging.Logger
	Trigger    handlers.CycleTrigger
	Runs       handlers.RunLister
	Planner    handlers.Planner
	Gatherer   prometheus.Gatherer
	Indicators []handlers.HealthIndicator
}

// Server orchestrates HTTP routing for the aggregator.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine
}

// NewServer wires the routes.
func NewServer(deps Dependencies) *Server {
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{config: deps.Config, logger: deps.Logger}
	s.setupRouter(deps)
	return s
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter(deps Dependencies) {
	router := gin.New()
	zapLogger := s.logger.Zap()

	// Recovery first so it catches panics from the other middleware.
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(middleware.RequestID())
	router.Use(ginzap.GinzapWithConfig(zapLogger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health", "/metrics"},
		Context: func(c *gin.Context) []zap.Field {
			return []zap.Field{zap.String("request_id", c.GetString(middleware.RequestIDKey))}
		},
	}))
	// No configured origins means no cross-origin access at all.
	if len(s.config.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: !allowsAnyOrigin(s.config.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/health", handlers.NewHealthHandler(s.logger, deps.Indicators...).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, deps.Gatherer).Metrics)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		aggregationHandler := handlers.NewAggregationHandler(s.logger, deps.Trigger, deps.Runs, deps.Planner)
		aggregation := v1.Group("/aggregation")
		{
			aggregation.POST("/runs", aggregationHandler.StartRun)
			aggregation.GET("/runs", aggregationHandler.ListRuns)
			aggregation.GET("/status", aggregationHandler.Status)
			aggregation.GET("/runners", aggregationHandler.Runners)
		}
	}

	s.router = router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// allowsAnyOrigin reports whether origins is the wildcard, which browsers
// reject in combination with credentials.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
