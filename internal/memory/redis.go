// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/library-index/pkg/types"
)

// keyPrefix namespaces cache entries in a shared Redis instance.
const keyPrefix = "library-index:analysis:"

// RedisCache stores analyses in Redis for deployments where multiple
// engine instances share one cache.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates and pings a Redis-backed cache.
func NewRedisCache(ctx context.Context, cfg types.CacheConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: cfg.TTL}, nil
}

// Lookup returns the cached analysis for id.
func (c *RedisCache) Lookup(ctx context.Context, id string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup for %s: %w", id, err)
	}
	return val, true, nil
}

// Store saves the analysis for id under the configured TTL.
func (c *RedisCache) Store(ctx context.Context, id, analysis string) error {
	if err := c.rdb.Set(ctx, keyPrefix+id, analysis, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache store for %s: %w", id, err)
	}
	return nil
}

// HealthCheck pings the Redis server.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check: %w", err)
	}
	return nil
}

// Stats counts entries under the cache prefix.
func (c *RedisCache) Stats(ctx context.Context) (int64, error) {
	var count int64
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("cache stats: %w", err)
	}
	return count, nil
}

// Clear removes all entries under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
