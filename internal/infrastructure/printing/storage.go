package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileSystemArchiveConfig contains configuration for the local export archive
type FileSystemArchiveConfig struct {
	// BasePath is the root directory for archived PDFs.
	// Default: /data/certificates
	BasePath string
	Logger   *zap.Logger
}

// FileSystemArchive keeps exported certificates on the local file system.
// Layout: {base}/{year}/{month}/{name}.pdf
type FileSystemArchive struct {
	config *FileSystemArchiveConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSystemArchive creates the archive directory if needed
func NewFileSystemArchive(config *FileSystemArchiveConfig) (*FileSystemArchive, error) {
	if config == nil {
		config = &FileSystemArchiveConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "/data/certificates"
	}

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create archive directory: %s", config.BasePath), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemArchive{config: config, logger: logger, now: time.Now}, nil
}

// Archive writes pdf under name and returns its relative path
func (s *FileSystemArchive) Archive(ctx context.Context, name string, pdf []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if len(pdf) == 0 {
		return "", NewRenderError(ErrCodeStorageFailed, "PDF data is empty", nil)
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", NewRenderError(ErrCodeStorageFailed, "archive name is required", nil)
	}
	if filepath.Ext(name) != ".pdf" {
		name += ".pdf"
	}

	now := s.now()
	rel := filepath.Join(fmt.Sprintf("%d", now.Year()), fmt.Sprintf("%02d", now.Month()), name)
	full := filepath.Join(s.config.BasePath, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(full, pdf, 0o644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to write PDF file", err)
	}

	s.logger.Info("certificate archived",
		zap.String("path", full),
		zap.Int("size", len(pdf)))
	return filepath.ToSlash(rel), nil
}

// CleanupOlderThan removes archived PDFs older than age
func (s *FileSystemArchive) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0

	err := filepath.Walk(s.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("deleted archived certificate", zap.String("path", path))
			}
		}
		return nil
	})
	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return deleted, NewRenderError(ErrCodeStorageFailed, "cleanup walk failed", err)
	}

	s.logger.Info("archive cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}
