package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCleaner struct {
	removed int
	err     error
	gotAge  time.Duration
}

func (f *fakeCleaner) CleanupOlderThan(_ context.Context, age time.Duration) (int, error) {
	f.gotAge = age
	return f.removed, f.err
}

func TestArchiveSweepJob_Run(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cleaner := &fakeCleaner{removed: 4}
	job := NewArchiveSweepJob(cleaner, 30*24*time.Hour, zap.New(core))

	assert.Equal(t, "archive_sweep", job.Name())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 30*24*time.Hour, cleaner.gotAge)
	assert.Equal(t, 1, logs.FilterMessage("Archived certificates purged").Len())
}

func TestArchiveSweepJob_PropagatesError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("permission denied")}
	job := NewArchiveSweepJob(cleaner, time.Hour, nil)

	assert.EqualError(t, job.Run(context.Background()), "permission denied")
}
