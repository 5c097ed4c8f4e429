package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/artgallery/server/internal/observability"
)

// RedisStore implements KeyValueStore on a Redis server. Keys never expire.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore creates a store with its own client
func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.StartStoreSpan(ctx, "redis", "Get", key)
	defer span.End()

	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := observability.StartStoreSpan(ctx, "redis", "Set", key)
	defer span.End()

	err := s.Client.Set(ctx, key, value, 0).Err()
	observability.RecordError(span, err)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, span := observability.StartStoreSpan(ctx, "redis", "Delete", key)
	defer span.End()

	err := s.Client.Del(ctx, key).Err()
	observability.RecordError(span, err)
	return err
}

// Ping checks connectivity at startup
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Close releases the client connections
func (s *RedisStore) Close() error {
	return s.Client.Close()
}
