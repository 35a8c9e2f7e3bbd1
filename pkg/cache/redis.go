package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dokyun/folio/pkg/redis"
)

// RedisStore backs the cache with Redis. When the wrapped client is
// disabled every operation reports a backend error, which pushes the
// read-through layer onto its in-memory fallback.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// ErrBackendUnavailable marks the Redis backend as unusable.
var ErrBackendUnavailable = errors.New("cache backend unavailable")

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", r.prefix, key)
}

// Get retrieves a cached value.
func (r *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !r.client.Enabled() {
		return false, ErrBackendUnavailable
	}

	data, err := r.client.Redis().Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value in cache with TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !r.client.Enabled() {
		return ErrBackendUnavailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return r.client.Redis().Set(ctx, r.key(key), data, ttl).Err()
}

// Delete removes a cached value.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if !r.client.Enabled() {
		return ErrBackendUnavailable
	}
	return r.client.Redis().Del(ctx, r.key(key)).Err()
}
