package identity

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jrmsu/libraryid/pkg/envelope"
)

// MemoryStore keeps identities in process. It backs development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Record
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns a store holding recs. It fails on the first invalid
// record or duplicate email.
func NewMemoryStore(recs ...Record) (*MemoryStore, error) {
	s := &MemoryStore{
		byID:    make(map[string]Record),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
	for _, rec := range recs {
		if err := s.Upsert(context.Background(), rec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.Email = NormalizeEmail(rec.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Email != "" {
		if owner, ok := s.byEmail[rec.Email]; ok && owner != rec.ID {
			return ErrDuplicateEmail
		}
	}
	if prev, ok := s.byID[rec.ID]; ok && prev.Email != "" {
		delete(s.byEmail, prev.Email)
	}
	rec.UpdatedAt = s.now()
	s.byID[rec.ID] = rec
	if rec.Email != "" {
		s.byEmail[rec.Email] = rec.ID
	}
	return nil
}

func (s *MemoryStore) Authenticate(_ context.Context, id, password string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()

	if !checkPassword(rec.PasswordHash, password) || !ok {
		return Record{}, ErrInvalidCredentials
	}
	if !rec.Active {
		return Record{}, ErrInactive
	}
	return rec, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) ListAdmins(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var admins []Record
	for _, rec := range s.byID {
		if rec.Role == envelope.Admin && rec.Active {
			admins = append(admins, rec)
		}
	}
	slices.SortFunc(admins, func(a, b Record) int { return strings.Compare(a.ID, b.ID) })
	return admins, nil
}

func (s *MemoryStore) UpdateSecondFactor(_ context.Context, id, secret string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.TOTPSecret = secret
	rec.SecondFactorEnabled = enabled
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.UpdatedAt = s.now()
	s.byID[id] = rec
	return nil
}
