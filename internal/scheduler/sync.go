// Package scheduler runs catalog syncs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

// Syncer is satisfied by *syncer.Engine. Sync does its own version check
// and returns syncer.ErrSyncInProgress while another run holds the engine.
type Syncer interface {
	Sync(ctx context.Context) (*syncer.Report, error)
}

// SyncScheduler triggers Syncer.Sync periodically. Ticks that land while a
// previous run is still going are skipped.
type SyncScheduler struct {
	engine   Syncer
	schedule string
	timeout  time.Duration
	logger   *logger.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.RWMutex
	running bool
}

func NewSyncScheduler(engine Syncer, schedule string, timeout time.Duration, log *logger.Logger) *SyncScheduler {
	l := log.WithComponent("scheduler")
	return &SyncScheduler{
		engine:   engine,
		schedule: schedule,
		timeout:  timeout,
		logger:   l,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{l}),
			cron.SkipIfStillRunning(cronLogger{l}),
		)),
	}
}

// Start registers the job and starts the cron loop. An empty schedule
// leaves the scheduler disabled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("Periodic sync disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info("Sync scheduler started", "schedule", s.schedule, "next_run", s.cron.Entry(entryID).Next)
	return nil
}

// Stop waits for a running job to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.running = false
	s.logger.Info("Sync scheduler stopped")
}

func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRun returns nil while the scheduler is stopped.
func (s *SyncScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

func (s *SyncScheduler) runSync(parent context.Context) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	report, err := s.engine.Sync(ctx)
	switch {
	case errors.Is(err, syncer.ErrSyncInProgress):
		s.logger.Debug("Scheduled sync skipped, another sync is running")
	case err != nil:
		s.logger.Warn("Scheduled sync failed", "error", err)
	case report.UpToDate:
		s.logger.Debug("Scheduled sync: catalog up to date", "version", report.Version)
	default:
		s.logger.Info("Scheduled sync finished", "version", report.Version, "pages", report.Pages, "duration", report.Duration)
	}
}

// cronLogger adapts the slog wrapper to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
