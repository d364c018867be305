// Package scheduler runs the periodic refresh job on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is the work run on each tick.
type Job func(ctx context.Context)

// Scheduler wraps a single cron entry and guards against double starts.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	schedule string
	job      Job
	log      *slog.Logger
	running  bool
}

func New(schedule string, job Job, log *slog.Logger) *Scheduler {
	return &Scheduler{schedule: schedule, job: job, log: log}
}

// Start registers the cron entry and begins scheduling. Starting an already
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("scheduler already running")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		s.log.Info("running scheduled refresh")
		s.job(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	s.cron = c
	s.running = true
	s.log.Info("scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.running = false
	s.log.Info("scheduler stopped")
}
