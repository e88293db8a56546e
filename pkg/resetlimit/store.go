package resetlimit

import (
	"context"
	"strings"
	"time"
)

// Record is the persisted attempt state for one email.
type Record struct {
	Count      int    `json:"count"`
	BlockUntil *int64 `json:"blockUntil,omitempty"` // epoch milliseconds
}

// BlockedAt reports whether the record is blocked at now and until when.
func (r Record) BlockedAt(now time.Time) (time.Time, bool) {
	if r.BlockUntil == nil {
		return time.Time{}, false
	}
	until := time.UnixMilli(*r.BlockUntil)
	return until, now.Before(until)
}

// Store persists records keyed by lowercase email. Load returns a zero Record
// when nothing is stored.
type Store interface {
	Load(ctx context.Context, key string) (Record, error)
	Save(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, key string) error
}

// Key normalizes an email into a store key.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
