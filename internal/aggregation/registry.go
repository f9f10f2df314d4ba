package aggregation

import (
	"fmt"
	"slices"
)

// Registry is the ordered runner collection handed to the Scheduler.
// Registration order is the tie-break order inside every scheduling pass.
type Registry struct {
	runners []Runner
	names   map[string]struct{}
}

// NewRegistry registers runners in the given order.
func NewRegistry(runners ...Runner) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{}, len(runners))}
	for _, runner := range runners {
		if err := r.Register(runner); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a runner. Names must be unique and a runner may not depend
// on a table it fills itself. Whole-graph cycles are not checked here; the
// scheduler discovers them at run time.
func (r *Registry) Register(runner Runner) error {
	name := NameOf(runner)
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRunner, name)
	}
	fills := runner.FilledTables()
	for _, dep := range runner.DependingTables() {
		if slices.Contains(fills, dep) {
			return fmt.Errorf("%w: %s depends on %s", ErrSelfDependency, name, dep)
		}
	}
	r.names[name] = struct{}{}
	r.runners = append(r.runners, runner)
	return nil
}

// Runners returns a copy of the registered runners in registration order.
func (r *Registry) Runners() []Runner {
	return slices.Clone(r.runners)
}

func (r *Registry) Len() int {
	return len(r.runners)
}
