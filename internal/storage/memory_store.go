package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in memory in insertion order.
type MemoryStore[T Record] struct {
	mu      sync.RWMutex
	records []T
}

func NewMemoryStore[T Record](records ...T) *MemoryStore[T] {
	return &MemoryStore[T]{records: slices.Clone(records)}
}

func (s *MemoryStore[T]) GetAll(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

func (s *MemoryStore[T]) Put(_ context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = upsert(s.records, record)
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = remove(s.records, id)
	return nil
}

func upsert[T Record](records []T, record T) []T {
	index := slices.IndexFunc(records, func(r T) bool {
		return r.RecordID() == record.RecordID()
	})
	if index < 0 {
		return append(records, record)
	}
	records[index] = record
	return records
}

func remove[T Record](records []T, id string) []T {
	return slices.DeleteFunc(records, func(r T) bool {
		return r.RecordID() == id
	})
}
