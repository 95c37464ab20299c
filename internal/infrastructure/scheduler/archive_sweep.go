package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ArchiveCleaner removes archived exports older than a given age
type ArchiveCleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ArchiveSweepJob purges locally archived certificate PDFs past retention
type ArchiveSweepJob struct {
	archive   ArchiveCleaner
	retention time.Duration
	logger    *zap.Logger
}

// NewArchiveSweepJob creates the sweep job
func NewArchiveSweepJob(archive ArchiveCleaner, retention time.Duration, logger *zap.Logger) *ArchiveSweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveSweepJob{archive: archive, retention: retention, logger: logger}
}

// Name implements Job
func (j *ArchiveSweepJob) Name() string {
	return "archive_sweep"
}

// Run implements Job
func (j *ArchiveSweepJob) Run(ctx context.Context) error {
	removed, err := j.archive.CleanupOlderThan(ctx, j.retention)
	if removed > 0 {
		j.logger.Info("Archived certificates purged",
			zap.Int("removed", removed),
			zap.Duration("retention", j.retention))
	}
	return err
}
