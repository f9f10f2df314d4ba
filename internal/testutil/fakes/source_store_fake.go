package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhima/filplus-aggregator/internal/models"
)

// FakeSourceStore serves canned query results keyed by destination table.
type FakeSourceStore struct {
	mu      sync.Mutex
	Data    map[models.LogicalTable]models.TableData
	Queries []string
	Err     error
}

func NewFakeSourceStore() *FakeSourceStore {
	return &FakeSourceStore{Data: make(map[models.LogicalTable]models.TableData)}
}

func (s *FakeSourceStore) Query(_ context.Context, table models.LogicalTable, query string, _ ...any) (*models.TableData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)
	if s.Err != nil {
		return nil, s.Err
	}
	data, ok := s.Data[table]
	if !ok {
		return nil, fmt.Errorf("no canned data for %s", table)
	}
	data.Table = table
	return &data, nil
}
