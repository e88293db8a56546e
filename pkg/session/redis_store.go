package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records as JSON strings. Keys expire after the idle timeout
// so abandoned sessions disappear without a sweeper.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store using prefix for keys and ttl as key expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultConfig().RedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Key == "" {
		return ErrInvalidRecord
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}
	return s.client.Set(ctx, s.prefix+rec.Key, b, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Record, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
