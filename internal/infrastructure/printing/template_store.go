package printing

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

//go:embed templates/*.html
var layoutFS embed.FS

// Layout file names
const (
	PageLayoutFile   = "page.html"
	LegacyLayoutFile = "legacy_certificate.html"
)

// LayoutStore serves the page shell and the legacy certificate layout.
// Files in an external directory override the embedded copies.
type LayoutStore struct {
	externalDir string
	files       map[string]string
	mu          sync.RWMutex
}

// NewLayoutStore loads every layout file
func NewLayoutStore(externalDir string) (*LayoutStore, error) {
	s := &LayoutStore{externalDir: externalDir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the layout files
func (s *LayoutStore) Reload() error {
	files := make(map[string]string, 2)
	for _, name := range []string{PageLayoutFile, LegacyLayoutFile} {
		content, err := s.load(name)
		if err != nil {
			return fmt.Errorf("failed to load layout %s: %w", name, err)
		}
		files[name] = content
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	return nil
}

// Get returns a loaded layout by file name
func (s *LayoutStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[name]
	return content, ok
}

// Legacy returns the built-in certificate markup used when no template applies
func (s *LayoutStore) Legacy() string {
	content, _ := s.Get(LegacyLayoutFile)
	return content
}

// load prefers the external directory and falls back to the embedded file
func (s *LayoutStore) load(name string) (string, error) {
	if s.externalDir != "" {
		data, err := os.ReadFile(filepath.Join(s.externalDir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	data, err := layoutFS.ReadFile("templates/" + name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
