package fakes

import (
	"context"
	"errors"
	"sync"

	platformEvents "github.com/dhima/filplus-aggregator/platform/events"
)

// FakePublisher captures published cycle events and can simulate failures.
type FakePublisher struct {
	mu        sync.Mutex
	Events    []platformEvents.CycleEvent
	FailNext  bool
	FailError error
}

func (p *FakePublisher) Publish(_ context.Context, e platformEvents.CycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		if p.FailError == nil {
			p.FailError = errors.New("publish failed")
		}
		return p.FailError
	}
	p.Events = append(p.Events, e)
	return nil
}

func (p *FakePublisher) Published() []platformEvents.CycleEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platformEvents.CycleEvent(nil), p.Events...)
}
