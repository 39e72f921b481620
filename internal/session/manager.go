package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Manager owns every billing session. Mutations take the session's lock, load
// from the repository, apply one cart operation, then save and cache the result.
type Manager struct {
	repo  Repository
	cache Cache
	log   *zap.Logger
	sfg   singleflight.Group

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager wires a manager. cache may be nil.
func NewManager(repo Repository, cache Cache, log *zap.Logger) *Manager {
	if cache == nil {
		cache = noopCache{}
	}
	return &Manager{
		repo:  repo,
		cache: cache,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// Open starts a new empty session.
func (m *Manager) Open(ctx context.Context) (cart.Snapshot, error) {
	snap := cart.New(uuid.NewString()).Snapshot()
	if err := m.repo.Save(ctx, snap); err != nil {
		return cart.Snapshot{}, err
	}
	m.log.Info("session opened", zap.String("session_id", snap.ID))
	return snap, nil
}

// Get returns the session through the cache. A miss is filled under the
// session lock so it cannot overwrite a newer snapshot written by mutate.
func (m *Manager) Get(ctx context.Context, id string) (cart.Snapshot, error) {
	v, err, _ := m.sfg.Do(id, func() (interface{}, error) {
		snap, err := m.cache.Get(ctx, id)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			m.log.Warn("session cache get failed", zap.String("session_id", id), zap.Error(err))
		}

		lock := m.lockFor(id)
		lock.Lock()
		defer lock.Unlock()

		snap, err = m.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		m.store(ctx, snap)
		return snap, nil
	})
	if err != nil {
		return cart.Snapshot{}, err
	}
	return v.(cart.Snapshot), nil
}

func (m *Manager) AddLine(ctx context.Context, id string, product domain.Product, qty int) (cart.Snapshot, error) {
	return m.mutate(ctx, id, func(s *cart.Session) (cart.Snapshot, error) {
		return s.AddLine(product, qty)
	})
}

func (m *Manager) SetQuantity(ctx context.Context, id string, productID int64, qty int) (cart.Snapshot, error) {
	return m.mutate(ctx, id, func(s *cart.Session) (cart.Snapshot, error) {
		return s.SetQuantity(productID, qty)
	})
}

func (m *Manager) RemoveLine(ctx context.Context, id string, productID int64) (cart.Snapshot, error) {
	return m.mutate(ctx, id, func(s *cart.Session) (cart.Snapshot, error) {
		return s.RemoveLine(productID), nil
	})
}

func (m *Manager) SetCustomer(ctx context.Context, id, name, phone string) (cart.Snapshot, error) {
	return m.mutate(ctx, id, func(s *cart.Session) (cart.Snapshot, error) {
		return s.SetCustomer(name, phone), nil
	})
}

// Clear empties the session's cart and customer details. The session itself
// stays open for the next customer.
func (m *Manager) Clear(ctx context.Context, id string) (cart.Snapshot, error) {
	return m.mutate(ctx, id, func(s *cart.Session) (cart.Snapshot, error) {
		return s.Clear(), nil
	})
}

// Close removes the session entirely.
func (m *Manager) Close(ctx context.Context, id string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	err := m.repo.Delete(ctx, id)
	m.invalidate(id)

	m.mu.Lock()
	delete(m.locks, id)
	m.mu.Unlock()
	return err
}

// mutate applies op under the session's lock. A failed op leaves the stored
// session untouched and returns the unchanged snapshot alongside the error.
func (m *Manager) mutate(ctx context.Context, id string, op func(*cart.Session) (cart.Snapshot, error)) (cart.Snapshot, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	current, err := m.repo.Get(ctx, id)
	if err != nil {
		return cart.Snapshot{}, err
	}

	snap, opErr := op(cart.Restore(current))
	if opErr != nil {
		return snap, opErr
	}

	if err := m.repo.Save(ctx, snap); err != nil {
		return current, err
	}
	m.store(ctx, snap)
	return snap, nil
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// store writes snap through to the cache, dropping the entry if that fails.
func (m *Manager) store(ctx context.Context, snap cart.Snapshot) {
	if err := m.cache.Set(ctx, snap); err != nil {
		m.log.Warn("session cache set failed", zap.String("session_id", snap.ID), zap.Error(err))
		m.invalidate(snap.ID)
	}
}

func (m *Manager) invalidate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.cache.Delete(ctx, id); err != nil {
		m.log.Warn("session cache invalidate failed", zap.String("session_id", id), zap.Error(err))
	}
}
