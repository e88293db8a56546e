package session

import "context"

type recordContextKey struct{}

// WithRecord stores rec in ctx.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// FromContext returns the record stored by WithRecord.
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(recordContextKey{}).(*Record)
	return rec, ok && rec != nil
}
