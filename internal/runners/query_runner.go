// Package runners holds the concrete ETL runners that fill the derived tables.
package runners

import (
	"context"
	"fmt"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
	"go.uber.org/zap"
)

// Origin selects which store a query reads from.
type Origin string

const (
	// OriginSource reads raw chain data from the source database.
	OriginSource Origin = "source"
	// OriginDerived reads tables filled earlier in the cycle.
	OriginDerived Origin = "derived"
)

// TableQuery pairs a destination table with the query that produces it.
type TableQuery struct {
	Table models.LogicalTable `json:"table"`
	From  Origin              `json:"from,omitempty"`
	Query string              `json:"query"`
}

// QueryRunner extracts every output with one source query each and then
// replaces all outputs in a single storage call.
type QueryRunner struct {
	name     string
	outputs  []TableQuery
	depends  []models.LogicalTable
	requires string
}

// NewQueryRunner builds a runner. requires names an optional integration; when
// it is not configured the runner skips itself.
func NewQueryRunner(name string, outputs []TableQuery, depends []models.LogicalTable, requires string) *QueryRunner {
	return &QueryRunner{name: name, outputs: outputs, depends: depends, requires: requires}
}

func (r *QueryRunner) Name() string { return r.name }

func (r *QueryRunner) FilledTables() []models.LogicalTable {
	out := make([]models.LogicalTable, len(r.outputs))
	for i, o := range r.outputs {
		out[i] = o.Table
	}
	return out
}

func (r *QueryRunner) DependingTables() []models.LogicalTable { return r.depends }

// Requires returns the optional integration the runner needs, if any.
func (r *QueryRunner) Requires() string { return r.requires }

func (r *QueryRunner) Run(ctx context.Context, exec *aggregation.ExecutionContext) error {
	if r.requires != "" {
		if _, ok := exec.Integration(r.requires); !ok {
			exec.Logger.Warn("integration not configured, skipping runner",
				zap.String("integration", r.requires),
				zap.Strings("tables", models.TableNames(r.FilledTables())),
			)
			return nil
		}
	}

	data, err := r.extract(ctx, exec)
	if err != nil {
		return err
	}

	stop := exec.Timer.StartTimer(r.name, metrics.PhaseStore)
	defer stop()
	if err := exec.Tables.ReplaceTables(ctx, data...); err != nil {
		return fmt.Errorf("failed to store %s: %w", r.name, err)
	}

	rows := 0
	for _, d := range data {
		rows += len(d.Rows)
	}
	exec.Logger.Debug("runner output stored", zap.Int("rows", rows))
	return nil
}

func (r *QueryRunner) extract(ctx context.Context, exec *aggregation.ExecutionContext) ([]models.TableData, error) {
	stop := exec.Timer.StartTimer(r.name, metrics.PhaseExtract)
	defer stop()

	data := make([]models.TableData, 0, len(r.outputs))
	for _, o := range r.outputs {
		store := exec.Source
		if o.From == OriginDerived {
			store = exec.Derived
		}
		d, err := store.Query(ctx, o.Table, o.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", o.Table, err)
		}
		d.Table = o.Table
		data = append(data, *d)
	}
	return data, nil
}
