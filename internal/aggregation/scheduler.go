package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/dhima/filplus-aggregator/pkg/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Registry *Registry
	Retry    *RetryExecutor
	Timer    metrics.Timer
	Logger   logging.Logger
	Clock    clock.Clock
	// Services is copied for every runner execution with a runner-scoped logger.
	Services ExecutionContext
	// StrictDeadlock makes a scheduling deadlock fail the cycle with a
	// *DeadlockError instead of completing it as partial.
	StrictDeadlock bool
}

// Scheduler executes every registered runner once per cycle, in an order that
// respects table dependencies. Runners run strictly one at a time.
type Scheduler struct {
	runners        []Runner
	retry          *RetryExecutor
	timer          metrics.Timer
	logger         logging.Logger
	clock          clock.Clock
	services       ExecutionContext
	strictDeadlock bool
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		retry:          cfg.Retry,
		timer:          cfg.Timer,
		logger:         cfg.Logger,
		clock:          cfg.Clock,
		services:       cfg.Services,
		strictDeadlock: cfg.StrictDeadlock,
	}
	if cfg.Registry != nil {
		s.runners = cfg.Registry.Runners()
	}
	if s.logger == nil {
		s.logger = logging.NewNoOpLogger()
	}
	if s.timer == nil {
		s.timer = metrics.NopTimer{}
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.retry == nil {
		s.retry = NewRetryExecutor(1, 0, s.logger)
	}
	return s
}

// Plan returns the order the next cycle would execute runners in.
func (s *Scheduler) Plan() models.ExecutionPlan {
	return Plan(s.runners)
}

// RunCycle executes one full cycle. The returned report is never nil.
//
// A runner error that survives its retries aborts the cycle and is returned;
// outputs committed earlier in the cycle stay in place. A pass in which no
// runner becomes ready ends the cycle as partial: the pending runners are
// logged and listed in the report, and no error is returned unless the
// scheduler is strict.
func (s *Scheduler) RunCycle(ctx context.Context) (*models.CycleReport, error) {
	report := &models.CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: s.clock.Now(),
		Executed:  []string{},
	}
	log := s.logger.With(zap.String("cycle_id", report.CycleID))
	log.Info("aggregation cycle started", zap.Int("runners", len(s.runners)))

	c := newCycle(s.runners)
	deadlocked, err := c.run(func(r Runner) error {
		name := NameOf(r)
		if err := s.execute(ctx, log, r, name); err != nil {
			return err
		}
		report.Executed = append(report.Executed, name)
		return nil
	})

	report.Passes = c.passes
	report.Filled = c.filledTables()
	report.FinishedAt = s.clock.Now()

	if err != nil {
		report.Status = models.CycleStatusFailed
		report.Error = err.Error()
		return report, err
	}

	if len(deadlocked) > 0 {
		report.Status = models.CycleStatusPartial
		report.Skipped = deadlocked
		names := make([]string, len(deadlocked))
		for i, p := range deadlocked {
			names[i] = p.Name
			log.Error("runner dependencies not satisfied",
				zap.String("runner", p.Name),
				zap.Strings("missing_tables", models.TableNames(p.Missing)),
			)
		}
		log.Error("scheduling deadlock: no runner became ready in a full pass",
			zap.Strings("pending_runners", names),
			zap.Int("executed", len(report.Executed)),
		)
		if s.strictDeadlock {
			derr := &DeadlockError{Pending: deadlocked}
			report.Error = derr.Error()
			return report, derr
		}
		return report, nil
	}

	report.Status = models.CycleStatusSucceeded
	log.Info("aggregation cycle finished",
		zap.Int("executed", len(report.Executed)),
		zap.Int("passes", report.Passes),
		zap.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (s *Scheduler) execute(ctx context.Context, log logging.Logger, r Runner, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cycle cancelled before runner %s: %w", name, err)
	}

	runLog := log.With(zap.String("runner", name))
	exec := s.services.forRunner(runLog, s.timer)

	stop := s.timer.StartTimer(name, metrics.PhaseRunner)
	defer stop()

	runLog.Info("runner started", zap.Strings("fills", models.TableNames(r.FilledTables())))
	start := time.Now()
	if err := s.retry.ExecuteWithRetries(ctx, name, func(ctx context.Context) error {
		return r.Run(ctx, exec)
	}); err != nil {
		return err
	}
	runLog.Info("runner finished", zap.Duration("duration", time.Since(start)))
	return nil
}

// Plan computes the execution order for runners without running them, using
// the same pass rules as a real cycle.
func Plan(runners []Runner) models.ExecutionPlan {
	plan := models.ExecutionPlan{Order: []models.RunnerInfo{}}
	c := newCycle(runners)
	plan.Deadlocked, _ = c.run(func(r Runner) error {
		plan.Order = append(plan.Order, models.RunnerInfo{
			Position: len(plan.Order) + 1,
			Name:     NameOf(r),
			Fills:    r.FilledTables(),
			Depends:  r.DependingTables(),
		})
		return nil
	})
	return plan
}
