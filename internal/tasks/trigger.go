// Package tasks drives aggregation cycles on a cron schedule and on demand,
// with at most one cycle in flight.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhima/filplus-aggregator/internal/logging"
	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/dhima/filplus-aggregator/pkg/clock"
	platformEvents "github.com/dhima/filplus-aggregator/platform/events"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a cycle is requested while one is in flight.
var ErrAlreadyRunning = errors.New("aggregation already in progress")

// ErrAlreadyStarted is returned by Start when the schedule is already running.
var ErrAlreadyStarted = errors.New("trigger already started")

// CycleRunner executes one aggregation cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*models.CycleReport, error)
}

// RunRecorder persists finished cycles.
type RunRecorder interface {
	RecordRun(ctx context.Context, run models.AggregationRun) error
}

// EventPublisher announces finished cycles.
type EventPublisher interface {
	Publish(ctx context.Context, event platformEvents.CycleEvent) error
}

// TriggerConfig wires a Trigger. Only Scheduler is required.
type TriggerConfig struct {
	Name      string
	Schedule  string
	Timezone  string
	Scheduler CycleRunner
	Timer     metrics.Timer
	Cycles    metrics.CycleRecorder
	Runs      RunRecorder
	Publisher EventPublisher
	Logger    logging.Logger
	Clock     clock.Clock
}

// Trigger is the single-flight entry point for aggregation cycles. It is the
// only place cycle errors are caught; they turn the trigger unhealthy until the
// next successful cycle.
type Trigger struct {
	name      string
	schedule  string
	next      cron.Schedule
	location  *time.Location
	scheduler CycleRunner
	timer     metrics.Timer
	cycles    metrics.CycleRecorder
	runs      RunRecorder
	publisher EventPublisher
	logger    logging.Logger
	clock     clock.Clock

	busy atomic.Bool

	mu            sync.RWMutex
	healthy       bool
	lastRunAt     *time.Time
	lastSuccessAt *time.Time
	lastError     string

	cron *cron.Cron
	wg   sync.WaitGroup
}

// NewTrigger validates the schedule and builds an idle, healthy trigger.
func NewTrigger(cfg TriggerConfig) (*Trigger, error) {
	if cfg.Scheduler == nil {
		return nil, errors.New("trigger requires a scheduler")
	}
	if cfg.Name == "" {
		cfg.Name = metrics.CycleLabel
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "*/5 * * * *"
	}
	next, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	loc, err := resolveTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if cfg.Timer == nil {
		cfg.Timer = metrics.NopTimer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoOpLogger()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}

	return &Trigger{
		name:      cfg.Name,
		schedule:  cfg.Schedule,
		next:      next,
		location:  loc,
		scheduler: cfg.Scheduler,
		timer:     cfg.Timer,
		cycles:    cfg.Cycles,
		runs:      cfg.Runs,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With(zap.String("trigger", cfg.Name)),
		clock:     cfg.Clock,
		healthy:   true,
	}, nil
}

// Fire runs one cycle synchronously. When a cycle is already in flight it does
// nothing and returns ErrAlreadyRunning.
func (t *Trigger) Fire(ctx context.Context) (*models.CycleReport, error) {
	if !t.busy.CompareAndSwap(false, true) {
		t.logger.Debug("aggregation already in progress, skipping")
		return nil, ErrAlreadyRunning
	}
	defer t.busy.Store(false)
	return t.run(ctx)
}

// TryStart starts one cycle in the background and returns immediately. The
// cycle outlives ctx's cancellation; Stop waits for it.
func (t *Trigger) TryStart(ctx context.Context) error {
	if !t.busy.CompareAndSwap(false, true) {
		t.logger.Debug("aggregation already in progress, skipping")
		return ErrAlreadyRunning
	}

	runCtx := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.busy.Store(false)
		_, _ = t.run(runCtx)
	}()
	return nil
}

func (t *Trigger) run(ctx context.Context) (*models.CycleReport, error) {
	now := t.clock.Now()
	t.mu.Lock()
	t.lastRunAt = &now
	t.mu.Unlock()

	report, err := t.runCycle(ctx, now)

	t.mu.Lock()
	if err != nil {
		t.healthy = false
		t.lastError = err.Error()
	} else {
		finished := t.clock.Now()
		t.healthy = true
		t.lastSuccessAt = &finished
		t.lastError = ""
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("aggregation cycle failed", zap.Error(err))
	}
	if report != nil {
		t.afterCycle(ctx, report, err)
	}
	if err != nil {
		return report, fmt.Errorf("aggregation cycle failed: %w", err)
	}
	return report, nil
}

// runCycle times one scheduler call and turns a panic into a failed cycle.
func (t *Trigger) runCycle(ctx context.Context, startedAt time.Time) (report *models.CycleReport, err error) {
	stop := t.timer.StartTimer(t.name, metrics.PhaseCycle)
	defer stop()
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("aggregation cycle panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("panic during aggregation cycle: %v", r)
			report = &models.CycleReport{
				CycleID:    uuid.NewString(),
				StartedAt:  startedAt,
				FinishedAt: t.clock.Now(),
				Status:     models.CycleStatusFailed,
				Error:      err.Error(),
			}
		}
	}()
	return t.scheduler.RunCycle(ctx)
}

// afterCycle records and announces a finished cycle. Failures here are logged
// and never change the trigger's health.
func (t *Trigger) afterCycle(ctx context.Context, report *models.CycleReport, cycleErr error) {
	if t.cycles != nil {
		t.cycles.RecordCycle(report, cycleErr)
	}

	ctx = context.WithoutCancel(ctx)
	if t.runs != nil {
		if err := t.runs.RecordRun(ctx, models.RunFromReport(report)); err != nil {
			t.logger.Warn("failed to record aggregation run",
				zap.String("cycle_id", report.CycleID),
				zap.Error(err))
		}
	}
	if t.publisher != nil {
		if err := t.publisher.Publish(ctx, platformEvents.NewCycleEvent(report)); err != nil {
			t.logger.Warn("failed to publish cycle event",
				zap.String("cycle_id", report.CycleID),
				zap.Error(err))
		}
	}
}

// Running reports whether a cycle is in flight.
func (t *Trigger) Running() bool {
	return t.busy.Load()
}

// State returns a snapshot of the trigger's timestamps.
func (t *Trigger) State() models.HealthMetadata {
	t.mu.RLock()
	meta := models.HealthMetadata{
		LastRunAt:     copyTime(t.lastRunAt),
		LastSuccessAt: copyTime(t.lastSuccessAt),
		Running:       t.busy.Load(),
	}
	t.mu.RUnlock()

	next := t.next.Next(t.clock.Now().In(t.location)).UTC()
	meta.NextRunAt = &next
	return meta
}

// Health reports the trigger as a health indicator. A failed last cycle makes
// it unhealthy.
func (t *Trigger) Health(context.Context) models.HealthCheck {
	meta := t.State()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return models.HealthCheck{
		Name:     t.name,
		Healthy:  t.healthy,
		Metadata: meta,
		Error:    t.lastError,
	}
}

// Start schedules cycles on the cron expression until Stop is called. ctx is
// handed to every scheduled cycle.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cron != nil {
		return ErrAlreadyStarted
	}

	c := cron.New(cron.WithParser(scheduleParser), cron.WithLocation(t.location))
	if _, err := c.AddFunc(t.schedule, func() {
		if _, err := t.Fire(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			t.logger.Debug("scheduled cycle finished with error", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule aggregation: %w", err)
	}

	t.cron = c
	c.Start()
	t.logger.Info("aggregation trigger started", zap.String("schedule", t.schedule))
	return nil
}

// Stop halts the schedule and waits for the cycle in flight, if any.
func (t *Trigger) Stop() {
	t.mu.Lock()
	c := t.cron
	t.cron = nil
	t.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	t.wg.Wait()
	t.logger.Info("aggregation trigger stopped")
}

func copyTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
