package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trust-scanner/internal/config"
	"github.com/trust-scanner/internal/errors"
	"github.com/trust-scanner/internal/types"
)

// redisKeyPrefix namespaces analysis entries in a shared Redis
const redisKeyPrefix = "trust:"

// RedisCache is a Redis-backed analysis cache. TTL enforcement is delegated
// to Redis key expiry, which gives the same lazy-expiry semantics as the
// memory store.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and returns an analysis cache
func NewRedisCache(cfg *config.RedisConfig, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheWithClient wraps an existing client; tests use it with miniredis
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached analysis for an address, if present and unexpired
func (c *RedisCache) Get(ctx context.Context, address string) (types.TrustAnalysis, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+CacheKey(address)).Result()
	if err == redis.Nil {
		return types.TrustAnalysis{}, false, nil
	}
	if err != nil {
		return types.TrustAnalysis{}, false, errors.NewCacheError("get", err)
	}

	var analysis types.TrustAnalysis
	if err := json.Unmarshal([]byte(data), &analysis); err != nil {
		return types.TrustAnalysis{}, false, errors.NewCacheError("decode", err)
	}
	return analysis, true, nil
}

// Put stores an analysis with the configured TTL, overwriting any entry
func (c *RedisCache) Put(ctx context.Context, address string, analysis types.TrustAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return errors.NewCacheError("encode", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+CacheKey(address), data, c.ttl).Err(); err != nil {
		return errors.NewCacheError("put", err)
	}
	return nil
}

// Evict removes the entry for an address
func (c *RedisCache) Evict(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+CacheKey(address)).Err(); err != nil {
		return errors.NewCacheError("evict", err)
	}
	return nil
}

// EvictAll removes all analysis entries (only keys under the trust prefix)
func (c *RedisCache) EvictAll(ctx context.Context) error {
	keys, err := c.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		return errors.NewCacheError("scan", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.NewCacheError("evict_all", err)
	}
	return nil
}
