package resetlimit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps all records in one hash, one field per email, matching the
// map-of-records layout of the browser store it replaces.
type RedisStore struct {
	client redis.UniversalClient
	hash   string
}

func NewRedisStore(client redis.UniversalClient, hash string) *RedisStore {
	if hash == "" {
		hash = DefaultConfig().RedisKey
	}
	return &RedisStore{client: client, hash: hash}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Record, error) {
	b, err := s.client.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		// A corrupt entry counts as no attempts.
		return Record{}, nil
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.hash, key, b).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.HDel(ctx, s.hash, key).Err()
}
