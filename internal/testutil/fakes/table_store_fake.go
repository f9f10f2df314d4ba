package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/filplus-aggregator/internal/models"
)

// FakeTableStore is an in-memory destination store with replace semantics.
type FakeTableStore struct {
	mu     sync.Mutex
	Tables map[models.LogicalTable]models.TableData
	// Writes counts successful replacements per table.
	Writes map[models.LogicalTable]int
	// FailTimes makes the next N ReplaceTables calls fail without writing.
	FailTimes int
	FailError error
}

func NewFakeTableStore() *FakeTableStore {
	return &FakeTableStore{
		Tables: make(map[models.LogicalTable]models.TableData),
		Writes: make(map[models.LogicalTable]int),
	}
}

func (s *FakeTableStore) ReplaceTables(_ context.Context, tables ...models.TableData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTimes > 0 {
		s.FailTimes--
		if s.FailError == nil {
			return errors.New("replace failed")
		}
		return s.FailError
	}
	for _, t := range tables {
		s.Tables[t.Table] = t
		s.Writes[t.Table]++
	}
	return nil
}

func (s *FakeTableStore) Get(table models.LogicalTable) (models.TableData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Tables[table]
	return t, ok
}

func (s *FakeTableStore) WriteCount(table models.LogicalTable) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Writes[table]
}
