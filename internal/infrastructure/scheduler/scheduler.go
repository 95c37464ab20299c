// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus is the outcome of the most recent run of a job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobState is a snapshot of a registered job
type JobState struct {
	Name      string
	Schedule  string
	Status    JobStatus
	LastRun   time.Time
	LastError string
	Runs      int
	Next      time.Time
}

// Config holds scheduler settings
type Config struct {
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// Location is the time zone schedules are evaluated in; defaults to local
	Location *time.Location
}

type entry struct {
	job     Job
	spec    string
	id      cron.EntryID
	running sync.Mutex
	state   JobState
}

// Scheduler wraps a cron runner with per-job bookkeeping
type Scheduler struct {
	cron   *cron.Cron
	config Config
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a stopped scheduler
func New(cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger{logger.Sugar()}),
		),
		config:  cfg,
		logger:  logger,
		entries: make(map[string]*entry),
		baseCtx: context.Background(),
	}
}

// Register adds job under a standard five-field cron expression
func (s *Scheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	e := &entry{job: job, spec: spec, state: JobState{Name: name, Schedule: spec, Status: JobStatusIdle}}
	id, err := s.cron.AddFunc(spec, func() { s.execute(e) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	e.id = id
	s.entries[name] = e

	s.logger.Info("Job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// Start begins firing registered jobs
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop halts scheduling and waits for in-flight runs or ctx expiry.
// In-flight runs have their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cronDone := s.cron.Stop().Done()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs a job immediately and waits for it to finish
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	running := s.running
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !running {
		return ErrSchedulerNotRunning
	}
	return s.run(ctx, e)
}

// States returns a snapshot of every registered job
func (s *Scheduler) States() []JobState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobState, 0, len(s.entries))
	for _, e := range s.entries {
		st := e.state
		st.Next = s.cron.Entry(e.id).Next
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) execute(e *entry) {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()
	_ = s.run(ctx, e)
}

// run serializes executions of one job; an overlapping tick is skipped
func (s *Scheduler) run(ctx context.Context, e *entry) error {
	if !e.running.TryLock() {
		s.logger.Warn("Job still running, skipping", zap.String("job", e.state.Name))
		return nil
	}
	defer e.running.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	s.setState(e, func(st *JobState) {
		st.Status = JobStatusRunning
		st.LastRun = time.Now()
	})

	start := time.Now()
	err := s.safeRun(ctx, e.job)
	elapsed := time.Since(start)

	s.setState(e, func(st *JobState) {
		st.Runs++
		if err != nil {
			st.Status = JobStatusFailed
			st.LastError = err.Error()
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		s.logger.Error("Job failed", zap.String("job", e.state.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	s.logger.Info("Job finished", zap.String("job", e.state.Name), zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

func (s *Scheduler) setState(e *entry, fn func(*JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&e.state)
}

// cronLogger routes robfig/cron's internal logging through zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
