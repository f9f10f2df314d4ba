package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runOnceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single aggregation cycle and exit",
		Long: `Run a single aggregation cycle and exit.

The command exits non-zero when the cycle fails. A scheduling deadlock only
fails the command with --strict.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if strict, _ := cmd.Flags().GetBool("strict"); strict {
				cfg.StrictDeadlock = true
			}
			logger, err := logging.New(logging.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Command: "run-once"})
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

			report, err := a.trigger.Fire(ctx)
			if report != nil {
				writeReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	cmd.Flags().Bool("strict", false, "fail when runners are left pending by a scheduling deadlock")
	return cmd
}

func writeReport(w io.Writer, report *models.CycleReport) {
	fmt.Fprintf(w, "cycle %s %s in %s (%d passes)\n", report.CycleID, report.Status, report.Duration(), report.Passes)
	fmt.Fprintf(w, "executed: %s\n", strings.Join(report.Executed, ", "))
	for _, p := range report.Skipped {
		fmt.Fprintf(w, "skipped: %s (missing %s)\n", p.Name, strings.Join(models.TableNames(p.Missing), ", "))
	}
	if report.Error != "" {
		fmt.Fprintf(w, "error: %s\n", report.Error)
	}
}
