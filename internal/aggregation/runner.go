// Package aggregation orchestrates the ETL runners that fill the derived
// Filecoin Plus tables. Runners declare the logical tables they fill and
// depend on; the Scheduler rediscovers a valid order on every cycle.
package aggregation

import (
	"context"
	"reflect"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
)

// Runner is a unit of ETL work.
//
// Run must fully replace the runner's own output tables (delete-then-insert
// inside one transaction), so that re-running after a failure converges to the
// same state. It must not write any table outside FilledTables.
type Runner interface {
	FilledTables() []models.LogicalTable
	DependingTables() []models.LogicalTable
	Run(ctx context.Context, exec *ExecutionContext) error
}

// Named is implemented by runners that want a name other than their type name.
type Named interface {
	Name() string
}

// NameOf returns the runner's stable name: Name() when implemented and
// non-empty, otherwise the runner's type name.
func NameOf(r Runner) string {
	if n, ok := r.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(r)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// SourceStore runs a read query and returns its result as the content of table.
type SourceStore interface {
	Query(ctx context.Context, table models.LogicalTable, query string, args ...any) (*models.TableData, error)
}

// TableStore atomically replaces the content of destination tables.
type TableStore interface {
	ReplaceTables(ctx context.Context, tables ...models.TableData) error
}

// ExecutionContext holds the capability handles handed to a runner. Only the
// fields a runner uses need to be set in tests.
type ExecutionContext struct {
	Source SourceStore
	// Derived reads tables already filled in the destination store.
	Derived SourceStore
	Tables  TableStore
	Timer   metrics.Timer
	Logger  logging.Logger
	// Integrations maps optional upstream integration names (e.g. "ipni") to
	// their endpoints. A missing entry means the integration is not configured.
	Integrations map[string]string
}

// Integration returns the endpoint of an optional integration and whether it
// is configured.
func (e *ExecutionContext) Integration(name string) (string, bool) {
	endpoint, ok := e.Integrations[name]
	return endpoint, ok && endpoint != ""
}

func (e *ExecutionContext) forRunner(logger logging.Logger, timer metrics.Timer) *ExecutionContext {
	scoped := *e
	scoped.Logger = logger
	if scoped.Timer == nil {
		scoped.Timer = timer
	}
	return &scoped
}

// FuncRunner adapts a function into a Runner.
type FuncRunner struct {
	RunnerName string
	Fills      []models.LogicalTable
	Depends    []models.LogicalTable
	Fn         func(ctx context.Context, exec *ExecutionContext) error
}

func (f *FuncRunner) Name() string                           { return f.RunnerName }
func (f *FuncRunner) FilledTables() []models.LogicalTable    { return f.Fills }
func (f *FuncRunner) DependingTables() []models.LogicalTable { return f.Depends }

func (f *FuncRunner) Run(ctx context.Context, exec *ExecutionContext) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(ctx, exec)
}
