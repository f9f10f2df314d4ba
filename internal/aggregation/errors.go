package aggregation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhima/filplus-aggregator/internal/models"
)

var (
	// ErrDuplicateRunner is returned when two runners share a name.
	ErrDuplicateRunner = errors.New("duplicate runner name")
	// ErrSelfDependency is returned when a runner depends on a table it fills itself.
	ErrSelfDependency = errors.New("runner depends on a table it fills")
)

// RunnerError is a runner failure that survived every retry attempt.
type RunnerError struct {
	Runner   string
	Attempts int
	Err      error
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("runner %s failed after %d attempt(s): %v", e.Runner, e.Attempts, e.Err)
}

func (e *RunnerError) Unwrap() error {
	return e.Err
}

// DeadlockError lists the runners whose dependencies could never be satisfied.
// It is only returned when the scheduler runs in strict mode.
type DeadlockError struct {
	Pending []models.PendingRunner
}

func (e *DeadlockError) Error() string {
	parts := make([]string, len(e.Pending))
	for i, p := range e.Pending {
		parts[i] = fmt.Sprintf("%s (missing %s)", p.Name, strings.Join(models.TableNames(p.Missing), ", "))
	}
	return fmt.Sprintf("scheduling deadlock: %d runner(s) never became ready: %s", len(e.Pending), strings.Join(parts, "; "))
}
