package resetlimit

import (
	"context"
	"time"
)

// Result describes an accepted request.
type Result struct {
	Attempts     int
	BlockedUntil time.Time // zero unless this request triggered a block
}

// Blocked reports whether this request started a lockout.
func (r Result) Blocked() bool { return !r.BlockedUntil.IsZero() }

// Limiter applies the attempt counter and lockout.
type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter.
func New(store Store, config Config, opts ...Option) (*Limiter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	l := &Limiter{store: store, config: config, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Request records one reset request for email.
func (l *Limiter) Request(ctx context.Context, email string) (Result, error) {
	key := Key(email)
	if key == "" {
		return Result{}, ErrInvalidEmail
	}

	rec, err := l.store.Load(ctx, key)
	if err != nil {
		return Result{}, err
	}

	now := l.now()
	if until, blocked := rec.BlockedAt(now); blocked {
		return Result{}, &BlockedError{Until: until}
	}

	next := Record{Count: rec.Count + 1}
	res := Result{Attempts: next.Count}
	if next.Count >= l.config.MaxAttempts {
		until := now.Add(l.config.BlockDuration)
		ms := until.UnixMilli()
		next.BlockUntil = &ms
		res.BlockedUntil = time.UnixMilli(ms)
	}

	if err := l.store.Save(ctx, key, next); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Status returns the stored record for email without modifying it.
func (l *Limiter) Status(ctx context.Context, email string) (Record, error) {
	return l.store.Load(ctx, Key(email))
}

// Clear forgets all attempts for email.
func (l *Limiter) Clear(ctx context.Context, email string) error {
	return l.store.Delete(ctx, Key(email))
}
