package session

import "context"

// Store persists session records by key. Save creates or overwrites.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, key string) (*Record, error)
	Delete(ctx context.Context, key string) error
}
