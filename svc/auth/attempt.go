package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/svc/identity"
)

// Method is the first factor an attempt started with.
type Method string

const (
	MethodPassword Method = "password"
	MethodQR       Method = "qr"
)

// Attempt is one sign-in in progress.
type Attempt struct {
	ID        string
	Method    Method
	Identity  identity.Record
	Warnings  []string
	CreatedAt time.Time

	fsm     *machine
	session *session.Record
}

// State returns the attempt's current state.
func (a *Attempt) State() State { return a.fsm.Current() }

// Trail returns the states the attempt passed through.
func (a *Attempt) Trail() []State { return a.fsm.Trail() }

// attempts holds attempts parked in AwaitingSecondFactor until they finish
// or exceed ttl.
type attempts struct {
	mu    sync.Mutex
	items map[string]*Attempt
	ttl   time.Duration
}

func newAttempts(ttl time.Duration) *attempts {
	return &attempts{items: make(map[string]*Attempt), ttl: ttl}
}

func (r *attempts) put(a *Attempt, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
	r.items[a.ID] = a
}

func (r *attempts) get(id string, now time.Time) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, false
	}
	if r.expired(a, now) {
		delete(r.items, id)
		return nil, false
	}
	return a, true
}

func (r *attempts) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *attempts) sweepLocked(now time.Time) {
	for id, a := range r.items {
		if r.expired(a, now) {
			delete(r.items, id)
		}
	}
}

func (r *attempts) expired(a *Attempt, now time.Time) bool {
	return r.ttl > 0 && now.Sub(a.CreatedAt) > r.ttl
}

func newAttemptID() string { return uuid.NewString() }
