package store

import (
	"context"
	"sync"

	"raffled/internal/raffle/models"
	"raffled/pkg/platform/sentinel"
)

// InMemoryStore keeps the snapshot in process memory. It is the default
// store for development and tests; it provides serialization but no
// durability across restarts.
type InMemoryStore struct {
	mu       sync.RWMutex
	snapshot models.Snapshot
	saved    bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot.Clone()
	s.saved = true
	return nil
}

func (s *InMemoryStore) Load(_ context.Context) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return s.snapshot.Clone(), nil
}
