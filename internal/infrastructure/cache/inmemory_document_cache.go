package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
	storedAt  time.Time
}

// InMemoryDocumentCache implements DocumentCache with a bounded map.
// This is suitable for single-instance deployments and testing
type InMemoryDocumentCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	maxItems  int
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDocumentCache creates a cache holding at most maxItems documents.
// It starts a background goroutine to clean up expired entries
func NewInMemoryDocumentCache(maxItems int) *InMemoryDocumentCache {
	if maxItems <= 0 {
		maxItems = 256
	}
	c := &InMemoryDocumentCache{
		entries:  make(map[string]entry),
		maxItems: maxItems,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a copy of the cached document
func (c *InMemoryDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

// Set stores a copy of data, evicting the oldest entry when full
func (c *InMemoryDocumentCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxItems {
		c.evictLocked(now)
	}
	c.entries[key] = entry{data: buf, expiresAt: now.Add(ttl), storedAt: now}
	return nil
}

// Delete removes a document
func (c *InMemoryDocumentCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times
func (c *InMemoryDocumentCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries (for testing/monitoring)
func (c *InMemoryDocumentCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries, then the oldest one if still full
func (c *InMemoryDocumentCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if len(c.entries) >= c.maxItems && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *InMemoryDocumentCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryDocumentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ DocumentCache = (*InMemoryDocumentCache)(nil)
