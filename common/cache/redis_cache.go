package cache

import (
	"context"
	"errors"
	"time"

	commonredis "github.com/inkwell/publisher/common/redis"
)

// RedisCache is a Redis-backed cache implementation for multi-node deployments
type RedisCache struct {
	client *commonredis.Client
}

// NewRedisCache creates a new Redis-backed cache
func NewRedisCache(client *commonredis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, commonredis.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, key, value, ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

// Close closes the underlying Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
