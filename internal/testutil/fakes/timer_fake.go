package fakes

import (
	"sync"

	"github.com/dhima/filplus-aggregator/internal/metrics"
	"github.com/dhima/filplus-aggregator/internal/models"
)

// TimerCall is one StartTimer invocation.
type TimerCall struct {
	Label string
	Phase metrics.Phase
}

// FakeTimer records started and stopped timers and finished cycles.
type FakeTimer struct {
	mu      sync.Mutex
	Started []TimerCall
	Stopped []TimerCall
	Cycles  []*models.CycleReport
	Errors  []error
}

func (f *FakeTimer) StartTimer(label string, phase metrics.Phase) metrics.StopFunc {
	call := TimerCall{Label: label, Phase: phase}
	f.mu.Lock()
	f.Started = append(f.Started, call)
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.Stopped = append(f.Stopped, call)
			f.mu.Unlock()
		})
	}
}

func (f *FakeTimer) RecordCycle(report *models.CycleReport, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cycles = append(f.Cycles, report)
	f.Errors = append(f.Errors, err)
}

// StoppedFor returns the phases stopped for label, in order.
func (f *FakeTimer) StoppedFor(label string) []metrics.Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []metrics.Phase
	for _, c := range f.Stopped {
		if c.Label == label {
			out = append(out, c.Phase)
		}
	}
	return out
}

func (f *FakeTimer) CycleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Cycles)
}
