package store

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/dayplan/internal/task"
)

// MemoryStore is an in-memory Store for tests and ephemeral hosts.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []*task.MasterTask
}

// NewMemoryStore creates an empty in-memory store, optionally seeded.
func NewMemoryStore(seed ...*task.MasterTask) *MemoryStore {
	s := &MemoryStore{}
	for _, t := range seed {
		s.tasks = append(s.tasks, t.Clone())
	}
	return s
}

// Load returns deep copies so callers can never mutate stored state
// behind the store's back.
func (s *MemoryStore) Load(_ context.Context) ([]*task.MasterTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*task.MasterTask, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

// Save replaces the stored record set.
func (s *MemoryStore) Save(_ context.Context, tasks []*task.MasterTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]*task.MasterTask, len(tasks))
	for i, t := range tasks {
		s.tasks[i] = t.Clone()
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
