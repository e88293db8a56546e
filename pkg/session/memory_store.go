package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	idle    time.Duration
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store. With a positive cleanupInterval, records idle
// longer than idle are swept in the background until Close.
func NewMemoryStore(idle, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*Record),
		idle:    idle,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 && idle > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || rec.Key == "" {
		return ErrInvalidRecord
	}
	s.mu.Lock()
	s.records[rec.Key] = rec.clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the cleanup loop.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if rec.IdleSince(now) > s.idle {
			delete(s.records, key)
		}
	}
}
