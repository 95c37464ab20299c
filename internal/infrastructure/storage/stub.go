package storage

import (
	"context"
	"strings"
)

// StaticObjectStorage serves signatures from a fixed base URL and discards
// archived documents. Used when object storage is disabled.
type StaticObjectStorage struct {
	// BaseURL is where signature images are served from, e.g. /signatures
	BaseURL string
}

// NewStaticObjectStorage creates a new StaticObjectStorage
func NewStaticObjectStorage(baseURL string) *StaticObjectStorage {
	if baseURL == "" {
		baseURL = "/signatures"
	}
	return &StaticObjectStorage{BaseURL: strings.TrimRight(baseURL, "/")}
}

// SignatureURL joins the filename onto BaseURL
func (s *StaticObjectStorage) SignatureURL(ctx context.Context, filename string) (string, error) {
	key, err := cleanKey(filename)
	if err != nil {
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

// Archive only computes the key
func (s *StaticObjectStorage) Archive(ctx context.Context, name string, pdf []byte) (string, error) {
	return ArchiveKey(name)
}
