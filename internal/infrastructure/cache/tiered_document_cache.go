package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TieredDocumentCache reads through a local L1 to a shared L2.
// Keys embed the content hash and template version, so entries never go
// stale and need no cross-instance invalidation.
type TieredDocumentCache struct {
	l1     DocumentCache
	l2     DocumentCache
	l1TTL  time.Duration
	logger *zap.Logger

	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// CacheStats holds hit/miss counters
type CacheStats struct {
	L1Hits   int64
	L1Misses int64
	L2Hits   int64
	L2Misses int64
}

// TieredDocumentCacheOption is a functional option for configuring the cache
type TieredDocumentCacheOption func(*TieredDocumentCache)

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredDocumentCacheOption {
	return func(c *TieredDocumentCache) {
		c.logger = logger
	}
}

// WithL1TTL caps how long documents stay in the local tier
func WithL1TTL(ttl time.Duration) TieredDocumentCacheOption {
	return func(c *TieredDocumentCache) {
		c.l1TTL = ttl
	}
}

// NewTieredDocumentCache creates a two-tier cache
func NewTieredDocumentCache(l1, l2 DocumentCache, opts ...TieredDocumentCacheOption) *TieredDocumentCache {
	c := &TieredDocumentCache{
		l1:     l1,
		l2:     l2,
		l1TTL:  10 * time.Minute,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get tries L1, then L2, backfilling L1 on an L2 hit.
// L2 errors degrade to a miss.
func (c *TieredDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.l1.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L1 cache error", zap.String("key", key), zap.Error(err))
	}
	if ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return data, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	data, ok, err = c.l2.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L2 cache error", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.l2Hits, 1)

	if err := c.l1.Set(ctx, key, data, c.l1TTL); err != nil {
		c.logger.Warn("Failed to backfill L1 cache", zap.String("key", key), zap.Error(err))
	}
	return data, true, nil
}

// Set writes both tiers. The L1 write always happens; an L2 failure is returned
func (c *TieredDocumentCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	l1TTL := ttl
	if c.l1TTL > 0 && c.l1TTL < l1TTL {
		l1TTL = c.l1TTL
	}
	if err := c.l1.Set(ctx, key, data, l1TTL); err != nil {
		c.logger.Warn("L1 cache set failed", zap.String("key", key), zap.Error(err))
	}
	return c.l2.Set(ctx, key, data, ttl)
}

// Delete removes the key from both tiers
func (c *TieredDocumentCache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.l1.Delete(ctx, key), c.l2.Delete(ctx, key))
}

// Close closes both tiers
func (c *TieredDocumentCache) Close() error {
	return errors.Join(c.l1.Close(), c.l2.Close())
}

// Ping checks the shared tier when it supports it
func (c *TieredDocumentCache) Ping(ctx context.Context) error {
	if p, ok := c.l2.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns a snapshot of the hit/miss counters
func (c *TieredDocumentCache) Stats() CacheStats {
	return CacheStats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
	}
}

var _ DocumentCache = (*TieredDocumentCache)(nil)
