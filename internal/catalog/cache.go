package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "apptrail:catalog:document"

// Cache stores the raw catalog document in Redis so restarts and refresh
// cycles do not always hit the upstream.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a catalog document cache backed by the given Redis client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached document, or (nil, nil) on a miss.
func (c *Cache) Get(ctx context.Context) ([]byte, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog from cache: %w", err)
	}
	return raw, nil
}

// Put stores the document with the configured TTL.
func (c *Cache) Put(ctx context.Context, raw []byte) error {
	if err := c.client.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put catalog in cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached document, forcing the next load to refetch.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
