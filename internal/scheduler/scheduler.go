// Package scheduler runs the periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu      sync.Mutex
	names   map[cron.EntryID]string
	started bool
}

// New creates a scheduler that evaluates cron specs in UTC.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		names:  make(map[cron.EntryID]string),
	}
}

// Add registers job under a standard five-field cron spec or a descriptor
// such as "@every 10m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if job == nil {
		return fmt.Errorf("job %s: nil func", name)
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.mu.Lock()
	s.names[id] = name
	s.mu.Unlock()
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	if err := job(s.ctx); err != nil {
		s.logger.Warn("job failed", zap.String("job", name), zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	s.logger.Debug("job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// Start begins running jobs. It is a no-op without jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.names) == 0 {
		s.logger.Info("no jobs scheduled")
		return
	}
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.names)))
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler was started with jobs.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && len(s.cron.Entries()) > 0
}

// Jobs lists the scheduled job names with their next run time.
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.names))
	for _, e := range s.cron.Entries() {
		out[s.names[e.ID]] = e.Next
	}
	return out
}
