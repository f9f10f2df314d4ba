package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/api/handlers"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/runners"
	"github.com/dhima/filplus-aggregator/internal/storage"
	"github.com/dhima/filplus-aggregator/internal/tasks"
	"github.com/dhima/filplus-aggregator/pkg/config"
	platformEvents "github.com/dhima/filplus-aggregator/platform/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds every long-lived dependency of a command.
type app struct {
	cfg    config.App
	logger logging.Logger

	db        *sql.DB
	tables    *storage.MySQLClient
	source    *storage.PostgresSource
	publisher *platformEvents.Publisher

	registry  *prometheus.Registry
	scheduler *aggregation.Scheduler
	trigger   *tasks.Trigger
}

// loadConfig resolves configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.App, error) {
	cfg := config.Load()
	if manifest, _ := cmd.Flags().GetString("manifest"); manifest != "" {
		cfg.RunnerManifestPath = manifest
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildRegistry loads the runners from the manifest or the built-in catalogue.
func buildRegistry(cfg config.App) (*aggregation.Registry, error) {
	list, err := runners.Build(cfg.RunnerManifestPath)
	if err != nil {
		return nil, err
	}
	return aggregation.NewRegistry(list...)
}

func newApp(ctx context.Context, cfg config.App, logger logging.Logger) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SourceDatabaseURL == "" {
		return nil, fmt.Errorf("SOURCE_DATABASE_URL is required")
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if a.db, err = storage.OpenMySQL(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}
	a.tables = storage.NewMySQLClient(a.db, cfg.StorageTimeout)
	if err := a.tables.EnsureRunsTable(ctx); err != nil {
		a.close()
		return nil, err
	}

	pool, err := storage.OpenPostgres(ctx, cfg.SourceDatabaseURL)
	if err != nil {
		a.close()
		return nil, err
	}
	a.source = storage.NewPostgresSource(pool)

	integrations := map[string]string{}
	if cfg.IPNIURL != "" {
		integrations[runners.IntegrationIPNI] = cfg.IPNIURL
	}

	timer := metrics.NewPrometheusTimer(a.registry)
	a.scheduler = aggregation.NewScheduler(aggregation.SchedulerConfig{
		Registry: registry,
		Retry:    aggregation.NewRetryExecutor(cfg.MaxAttempts, cfg.RetryDelay, logger),
		Timer:    timer,
		Logger:   logger,
		Services: aggregation.ExecutionContext{
			Source:       a.source,
			Derived:      a.tables,
			Tables:       a.tables,
			Integrations: integrations,
		},
		StrictDeadlock: cfg.StrictDeadlock,
	})

	triggerCfg := tasks.TriggerConfig{
		Schedule:  cfg.AggregationSchedule,
		Timezone:  cfg.AggregationTimezone,
		Scheduler: a.scheduler,
		Timer:     timer,
		Cycles:    timer,
		Runs:      a.tables,
		Logger:    logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = platformEvents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Zap())
		triggerCfg.Publisher = a.publisher
	}
	if a.trigger, err = tasks.NewTrigger(triggerCfg); err != nil {
		a.close()
		return nil, err
	}

	logger.Info("aggregator initialised",
		zap.Int("runners", registry.Len()),
		zap.String("schedule", cfg.AggregationSchedule),
		zap.Bool("kafka", a.publisher != nil),
		zap.Bool("ipni", cfg.IPNIURL != ""),
	)
	return a, nil
}

// indicators lists the health checks served on /health.
func (a *app) indicators() []handlers.HealthIndicator {
	return []handlers.HealthIndicator{
		a.trigger,
		handlers.PingIndicator{Name: "mysql", Ping: a.tables.Ping},
		handlers.PingIndicator{Name: "postgres", Ping: a.source.Ping},
	}
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close kafka publisher", zap.Error(err))
		}
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database connection", zap.Error(err))
		}
	}
}
