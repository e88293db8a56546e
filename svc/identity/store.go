package identity

import "context"

// Store is the identity backend consulted by authentication and the reset
// flow. Lookups return ErrNotFound for unknown ids or emails.
type Store interface {
	// Authenticate returns the record for id when password matches.
	// Unknown ids and wrong passwords both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, id, password string) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	GetByEmail(ctx context.Context, email string) (Record, error)
	ListAdmins(ctx context.Context) ([]Record, error)
	// UpdateSecondFactor stores secret and the enabled flag together.
	UpdateSecondFactor(ctx context.Context, id, secret string, enabled bool) error
}

// Writer inserts or replaces records. Both stores implement it; it is used
// for seeding.
type Writer interface {
	Upsert(ctx context.Context, rec Record) error
}
