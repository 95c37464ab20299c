// Package cache stores exported certificate PDFs so repeat downloads skip rendering.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentCache stores rendered documents by key
type DocumentCache interface {
	// Get returns the document and true on a hit
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DocumentKey identifies one rendering of a certificate. Any change to the
// certificate fields or to the template produces a new key.
func DocumentKey(certificateID uuid.UUID, contentHash string, templateVersion int) string {
	return fmt.Sprintf("%s:%s:v%d", certificateID, strings.ToLower(contentHash), templateVersion)
}

// NoopDocumentCache never stores anything
type NoopDocumentCache struct{}

func (NoopDocumentCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopDocumentCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopDocumentCache) Delete(context.Context, string) error { return nil }

func (NoopDocumentCache) Close() error { return nil }

var _ DocumentCache = NoopDocumentCache{}
