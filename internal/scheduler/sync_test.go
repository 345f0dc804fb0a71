package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

type countingSyncer struct {
	calls    int32
	err      error
	deadline bool
}

func (c *countingSyncer) Sync(ctx context.Context) (*syncer.Report, error) {
	atomic.AddInt32(&c.calls, 1)
	_, c.deadline = ctx.Deadline()
	if c.err != nil {
		return nil, c.err
	}
	return &syncer.Report{Version: 3}, nil
}

func TestSyncScheduler_DisabledSchedule(t *testing.T) {
	s := NewSyncScheduler(&countingSyncer{}, "", time.Minute, logger.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("Scheduler with empty schedule should not run")
	}
	if s.NextRun() != nil {
		t.Error("NextRun should be nil when disabled")
	}
	s.Stop()
}

func TestSyncScheduler_InvalidSchedule(t *testing.T) {
	s := NewSyncScheduler(&countingSyncer{}, "every tuesday", time.Minute, logger.Discard())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Expected error for invalid schedule")
	}
	if s.IsRunning() {
		t.Error("Scheduler should not run after a failed Start")
	}
}

func TestSyncScheduler_StartStop(t *testing.T) {
	s := NewSyncScheduler(&countingSyncer{}, "*/30 * * * *", time.Minute, logger.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("Scheduler should be running")
	}
	next := s.NextRun()
	if next == nil || !next.After(time.Now()) {
		t.Errorf("Expected a future next run, got %v", next)
	}

	// A second Start is a no-op.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("Scheduler should be stopped")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("Expected one cron entry after restart, got %d", len(s.cron.Entries()))
	}
	s.Stop()
}

func TestSyncScheduler_RunSync(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"in progress", syncer.ErrSyncInProgress},
		{"failure", errors.New("remote down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &countingSyncer{err: tt.err}
			s := NewSyncScheduler(fake, "@hourly", time.Minute, logger.Discard())

			s.runSync(context.Background())

			if atomic.LoadInt32(&fake.calls) != 1 {
				t.Errorf("Expected one Sync call, got %d", fake.calls)
			}
			if !fake.deadline {
				t.Error("Sync context should carry the job timeout")
			}
		})
	}
}

func TestSyncScheduler_NoTimeout(t *testing.T) {
	fake := &countingSyncer{}
	s := NewSyncScheduler(fake, "@hourly", 0, logger.Discard())
	s.runSync(context.Background())
	if fake.deadline {
		t.Error("Zero timeout should not set a deadline")
	}
}
