package cache

import (
	"context"
	"time"

	"github.com/dokyun/folio/pkg/logger"
)

// ReadThrough is the engine-facing cache: it tries the primary backend
// first and degrades to an in-memory store when the primary fails,
// never surfacing backend errors to the data path.
// ⭐ SSOT: 외부 데이터 캐싱 정책은 여기서만
type ReadThrough struct {
	primary  Store
	fallback *MemoryStore
	logger   *logger.Logger
}

// NewReadThrough wires a primary backend with an in-memory fallback.
// primary may be nil, in which case only the fallback is used.
func NewReadThrough(primary Store, fallback *MemoryStore, log *logger.Logger) *ReadThrough {
	if fallback == nil {
		fallback = NewMemoryStore()
	}
	return &ReadThrough{primary: primary, fallback: fallback, logger: log}
}

// Fallback exposes the in-memory store for maintenance (sweeps).
func (c *ReadThrough) Fallback() *MemoryStore {
	return c.fallback
}

// Get tries the primary backend, then the in-memory fallback.
func (c *ReadThrough) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.primary != nil {
		found, err := c.primary.Get(ctx, key, dest)
		if err == nil {
			if found {
				return true
			}
		} else {
			c.logger.WithError(err).WithField("key", key).Debug("Primary cache unavailable, using fallback")
		}
	}

	found, err := c.fallback.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return found
}

// Set writes to both backends; failures are logged, never propagated.
func (c *ReadThrough) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.primary != nil {
		if err := c.primary.Set(ctx, key, value, ttl); err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("Primary cache set failed")
		}
	}
	if err := c.fallback.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Fallback cache set failed")
	}
}

// GetOrFetch returns the cached value or fetches and caches it.
// dest must be a pointer; fetch's result is stored and decoded into dest.
func (c *ReadThrough) GetOrFetch(
	ctx context.Context,
	key string,
	dest interface{},
	ttl time.Duration,
	fetch func(ctx context.Context) (interface{}, error),
) error {
	if c.Get(ctx, key, dest) {
		return nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return err
	}
	c.Set(ctx, key, value, ttl)

	// 캐시를 거치지 않고 dest에 직접 채움
	return decodeInto(value, dest)
}
