package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/udes/eexchange/internal/infrastructure/config"
)

const defaultKeyPrefix = "udes:cert:pdf:"

// RedisDocumentCache implements DocumentCache using Redis.
// Instances behind a load balancer share exported documents
type RedisDocumentCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDocumentCache connects to Redis and verifies the connection
func NewRedisDocumentCache(cfg config.RedisConfig, keyPrefix string) (*RedisDocumentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDocumentCacheWithClient(client, keyPrefix), nil
}

// NewRedisDocumentCacheWithClient creates a cache with an existing Redis client
func NewRedisDocumentCacheWithClient(client *redis.Client, keyPrefix string) *RedisDocumentCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisDocumentCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get fetches a document; a missing key is a miss, not an error
func (c *RedisDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached document: %w", err)
	}
	return data, true, nil
}

// Set stores a document with a TTL
func (c *RedisDocumentCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache document: %w", err)
	}
	return nil
}

// Delete removes a document
func (c *RedisDocumentCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached document: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisDocumentCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *RedisDocumentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ DocumentCache = (*RedisDocumentCache)(nil)
