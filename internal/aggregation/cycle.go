package aggregation

import "github.com/dhima/filplus-aggregator/internal/models"

// cycle is the scheduling state of one invocation. It is created fresh for
// every run and only touched by the scheduler's sequential loop.
type cycle struct {
	pending []Runner
	filled  map[models.LogicalTable]struct{}
	order   []models.LogicalTable
	passes  int
}

func newCycle(runners []Runner) *cycle {
	pending := make([]Runner, len(runners))
	copy(pending, runners)
	return &cycle{
		pending: pending,
		filled:  make(map[models.LogicalTable]struct{}),
	}
}

// run scans pending runners in registration order, executing every runner
// whose dependencies are filled. A runner unblocked earlier in the same pass
// runs in that pass. It stops when nothing is pending, when execute fails, or
// when a full pass executes nothing; in the last case the still-pending
// runners are returned with their unmet dependencies.
func (c *cycle) run(execute func(Runner) error) ([]models.PendingRunner, error) {
	for len(c.pending) > 0 {
		c.passes++
		progressed := false
		remaining := make([]Runner, 0, len(c.pending))

		for i, r := range c.pending {
			if !c.ready(r) {
				remaining = append(remaining, r)
				continue
			}
			if err := execute(r); err != nil {
				c.pending = append(remaining, c.pending[i:]...)
				return nil, err
			}
			c.fill(r)
			progressed = true
		}

		c.pending = remaining
		if !progressed {
			return c.unmet(), nil
		}
	}
	return nil, nil
}

func (c *cycle) ready(r Runner) bool {
	for _, dep := range r.DependingTables() {
		if _, ok := c.filled[dep]; !ok {
			return false
		}
	}
	return true
}

func (c *cycle) fill(r Runner) {
	for _, t := range r.FilledTables() {
		if _, ok := c.filled[t]; !ok {
			c.filled[t] = struct{}{}
			c.order = append(c.order, t)
		}
	}
}

func (c *cycle) unmet() []models.PendingRunner {
	out := make([]models.PendingRunner, 0, len(c.pending))
	for _, r := range c.pending {
		var missing []models.LogicalTable
		for _, dep := range r.DependingTables() {
			if _, ok := c.filled[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		out = append(out, models.PendingRunner{Name: NameOf(r), Missing: missing})
	}
	return out
}

// filledTables returns the filled tables in the order they were produced.
func (c *cycle) filledTables() []models.LogicalTable {
	out := make([]models.LogicalTable, len(c.order))
	copy(out, c.order)
	return out
}
