package cache

import (
	"fmt"

	"github.com/udes/eexchange/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DocumentCacheFactory creates document caches based on configuration
type DocumentCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DocumentCacheFactoryOption is a functional option for configuring the factory
type DocumentCacheFactoryOption func(*DocumentCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable.
// Default is true
func WithInMemoryFallback(allow bool) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDocumentCacheFactory creates a new factory
func NewDocumentCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...DocumentCacheFactoryOption) *DocumentCacheFactory {
	f := &DocumentCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds the configured cache. A redis driver that cannot connect
// falls back to memory unless fallback is disabled
func (f *DocumentCacheFactory) Create() (DocumentCache, error) {
	switch f.cacheConfig.Driver {
	case "none":
		f.logger.Info("document cache disabled")
		return NoopDocumentCache{}, nil
	case "redis":
		store, err := NewRedisDocumentCache(f.redisConfig, f.cacheConfig.KeyPrefix)
		if err == nil {
			f.logger.Info("using tiered Redis document cache", zap.String("addr", f.redisConfig.Addr()))
			return NewTieredDocumentCache(
				NewInMemoryDocumentCache(f.cacheConfig.MaxItems),
				store,
				WithTieredLogger(f.logger),
			), nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis document cache unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory document cache", zap.Error(err))
	}
	return NewInMemoryDocumentCache(f.cacheConfig.MaxItems), nil
}
