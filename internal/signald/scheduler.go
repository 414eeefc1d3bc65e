package signald

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleSpec returns the cron spec for the refresh loop: cronSpec when set,
// otherwise "@every interval". A non-positive interval means hourly.
func ScheduleSpec(cronSpec string, interval time.Duration) string {
	if cronSpec != "" {
		return cronSpec
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return "@every " + interval.String()
}

// Scheduler triggers evaluations on a cron schedule. A run still in progress
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log,
	}
}

// Start registers run under spec (standard 5-field cron or a descriptor such
// as "@every 1h") and starts the scheduler. run receives ctx.
func (s *Scheduler) Start(ctx context.Context, spec string, run func(ctx context.Context)) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		run(ctx)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Info("refresh scheduler started", slog.String("schedule", spec))
	return nil
}

// Stop halts the scheduler and waits for a running evaluation to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("refresh scheduler stopped")
}

// Next returns the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
