package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the order the next cycle would run runners in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			plan := aggregation.Plan(registry.Runners())
			writePlan(cmd.OutOrStdout(), plan)
			if len(plan.Deadlocked) > 0 {
				return fmt.Errorf("%d runner(s) can never become ready", len(plan.Deadlocked))
			}
			return nil
		},
	}
}

func writePlan(w io.Writer, plan models.ExecutionPlan) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetBorder(true)
	table.SetHeader([]string{"#", "Runner", "Fills", "Depends"})

	for _, r := range plan.Order {
		table.Append([]string{
			fmt.Sprintf("%d", r.Position),
			r.Name,
			strings.Join(models.TableNames(r.Fills), "\n"),
			strings.Join(models.TableNames(r.Depends), "\n"),
		})
	}
	for _, p := range plan.Deadlocked {
		table.Append([]string{
			"-",
			p.Name,
			"",
			"missing: " + strings.Join(models.TableNames(p.Missing), "\n"),
		})
	}
	table.Render()
}
