package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Manager applies key assignment and idle expiry on top of a Store.
type Manager struct {
	store Store
	idle  time.Duration
	now   func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides the 30 minute inactivity window.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idle = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager wraps store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		idle:  DefaultConfig().IdleTimeout,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IdleTimeout returns the configured inactivity window.
func (m *Manager) IdleTimeout() time.Duration {
	return m.idle
}

// Create persists a new record under a fresh key and returns it.
func (m *Manager) Create(ctx context.Context, rec Record) (*Record, error) {
	if rec.Identity.ID == "" || rec.Role == "" {
		return nil, ErrInvalidRecord
	}
	now := m.now()
	rec.Key = uuid.NewString()
	rec.CreatedAt = now
	rec.LastActivityAt = now
	if err := m.store.Save(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Current loads the record for key, expiring it when idle and touching it otherwise.
func (m *Manager) Current(ctx context.Context, key string) (*Record, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	rec, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if rec.IdleSince(now) > m.idle {
		if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, ErrExpired
	}

	rec.LastActivityAt = now
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Replace overwrites an existing record, keeping its key and creation time.
func (m *Manager) Replace(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Key == "" {
		return ErrInvalidRecord
	}
	rec.LastActivityAt = m.now()
	return m.store.Save(ctx, rec)
}

// Destroy removes the record. Missing records are not an error.
func (m *Manager) Destroy(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
