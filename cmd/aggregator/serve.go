package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/dhima/filplus-aggregator/internal/api"
	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/tasks"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run cycles on the configured schedule and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Command: "serve"})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialise aggregator", zap.Error(err))
				return err
			}
			defer a.close()

			if err := a.trigger.Start(ctx); err != nil {
				return err
			}
			defer a.trigger.Stop()

			if cfg.RunOnStartup {
				if err := a.trigger.TryStart(ctx); err != nil && !errors.Is(err, tasks.ErrAlreadyRunning) {
					logger.Warn("failed to start initial cycle", zap.Error(err))
				}
			}

			server := api.NewServer(api.Dependencies{
				Config:     cfg,
				Logger:     logger,
				Trigger:    a.trigger,
				Runs:       a.tables,
				Planner:    a.scheduler,
				Gatherer:   a.registry,
				Indicators: a.indicators(),
			})
			if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("api server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
