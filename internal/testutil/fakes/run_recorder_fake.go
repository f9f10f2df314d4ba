package fakes

import (
	"context"
	"sync"

	"github.com/dhima/filplus-aggregator/internal/models"
)

// FakeRunStore is an in-memory aggregation run history.
type FakeRunStore struct {
	mu   sync.Mutex
	Runs []models.AggregationRun
	Err  error
}

func (f *FakeRunStore) RecordRun(_ context.Context, run models.AggregationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Runs = append(f.Runs, run)
	return nil
}

// ListRuns returns runs newest first, filtered by status when set.
func (f *FakeRunStore) ListRuns(_ context.Context, query models.ListRunsQuery) ([]models.AggregationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]models.AggregationRun, 0)
	for i := len(f.Runs) - 1; i >= 0; i-- {
		r := f.Runs[i]
		if query.Status != "" && string(r.Status) != query.Status {
			continue
		}
		out = append(out, r)
		if query.Limit > 0 && len(out) >= query.Limit {
			break
		}
	}
	return out, nil
}

func (f *FakeRunStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Runs)
}
