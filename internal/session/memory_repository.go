package session

import (
	"context"
	"sync"

	"github.com/fjod/go_billing/internal/cart"
)

// MemoryRepository keeps snapshots in process. Used when no MONGO_URI is set.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]cart.Snapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]cart.Snapshot)}
}

func (m *MemoryRepository) Get(_ context.Context, id string) (cart.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.sessions[id]
	if !ok {
		return cart.Snapshot{}, ErrSessionNotFound
	}
	return cart.Restore(snap).Snapshot(), nil
}

func (m *MemoryRepository) Save(_ context.Context, snap cart.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[snap.ID] = cart.Restore(snap).Snapshot()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
