// Package cache stores upstream catalog and content responses in Redis as
// JSON with a per-entry TTL.
//
// Redis failures never fail a request: reads fall through to the loader and
// write errors are reported to the caller's error hook only.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON value cache. A nil *Cache is valid and never hits.
type Cache struct {
	redis   redis.UniversalClient
	prefix  string
	onError func(key string, err error)
}

// New returns a Cache. onError may be nil.
func New(client redis.UniversalClient, prefix string, onError func(key string, err error)) *Cache {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Cache{redis: client, prefix: prefix, onError: onError}
}

// Get decodes the entry for key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.redis.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key for ttl. Non-positive ttl skips the write.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.redis.Del(ctx, full...).Err()
}

func (c *Cache) key(k string) string {
	return c.prefix + ":cache:" + k
}

// Load returns the cached value for key or calls load and caches its result.
// The boolean reports a cache hit. Loader errors are never cached.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if c != nil && ttl > 0 {
		hit, err := c.Get(ctx, key, &cached)
		if err != nil {
			c.onError(key, err)
		} else if hit {
			return cached, true, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil {
			c.onError(key, err)
		}
	}
	return v, false, nil
}
