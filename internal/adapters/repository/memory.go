package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/pkg/metrics"
)

const memoryStoreName = "memory"

// MemoryStore keeps assessments in a map with a rank-ordered index.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]engine.Assessment
	ranked  []Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]engine.Assessment)}
}

func (s *MemoryStore) Save(_ context.Context, a engine.Assessment) error { //nolint:gocritic // hugeParam: stored by value
	defer observe(memoryStoreName, "save", time.Now())
	if err := validateSave(&a); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.records[a.ID]; ok {
		s.removeLocked(entryOf(&old))
	}
	s.records[a.ID] = a
	s.insertLocked(entryOf(&a))
	metrics.UpdateRepositoryRecords(len(s.records))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (engine.Assessment, error) {
	defer observe(memoryStoreName, "get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.records[id]
	if !ok {
		return engine.Assessment{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return a, nil
}

func (s *MemoryStore) Top(_ context.Context, n int) ([]Entry, error) {
	defer observe(memoryStoreName, "top", time.Now())
	if n <= 0 {
		return nil, fmt.Errorf("top %d: %w", n, ErrInvalidLimit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n = min(n, len(s.ranked))
	out := make([]Entry, n)
	copy(out, s.ranked[:n])
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (s *MemoryStore) Distribution(_ context.Context) ([]GradeStats, error) {
	defer observe(memoryStoreName, "distribution", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc := statsAccumulator{}
	for _, e := range s.ranked {
		acc.add(e.Grade, 1, e.CuppingScore, e.DefectPct)
	}
	return acc.stats(), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) position(e Entry) int {
	return sort.Search(len(s.ranked), func(i int) bool { return !ranksBefore(s.ranked[i], e) })
}

func (s *MemoryStore) insertLocked(e Entry) {
	i := s.position(e)
	s.ranked = append(s.ranked, Entry{})
	copy(s.ranked[i+1:], s.ranked[i:])
	s.ranked[i] = e
}

func (s *MemoryStore) removeLocked(e Entry) {
	i := s.position(e)
	if i < len(s.ranked) && s.ranked[i].ID == e.ID {
		s.ranked = append(s.ranked[:i], s.ranked[i+1:]...)
	}
}

func observe(store, op string, start time.Time) {
	metrics.RecordRepositoryLatency(store, op, float64(time.Since(start).Microseconds())/1000)
}
