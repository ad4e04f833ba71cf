// Package scheduler runs the recurring background jobs: refreshing the fleet
// valuation gauge and sweeping abandoned audits.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/assetops/sga/pkg/logger"
)

// Job is one recurring task.
type Job struct {
	Name string
	// Spec is a cron expression or descriptor such as "@every 15m".
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler owns the cron runner. It satisfies the system service interface
// so the application manager controls its lifecycle.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	log  *logger.Logger
}

// New constructs a scheduler with no jobs registered.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("scheduler")
	}
	return &Scheduler{cron: cron.New(), log: log}
}

// Add registers a recurring job. Call before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Spec == "" || job.Run == nil {
		return fmt.Errorf("job name, spec and run func are required")
	}
	entry := job
	_, err := s.cron.AddFunc(entry.Spec, func() {
		if err := entry.Run(context.Background()); err != nil {
			s.log.WithError(err).WithField("job", entry.Name).Warn("scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", entry.Name, err)
	}
	s.jobs = append(s.jobs, entry)
	return nil
}

func (s *Scheduler) Name() string { return "scheduler" }

// Start runs every registered job once, then begins the cron loop. The
// initial run primes gauges that would otherwise stay zero until the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if err := job.Run(ctx); err != nil {
			s.log.WithError(err).WithField("job", job.Name).Warn("initial job run failed")
		}
	}
	s.cron.Start()
	s.log.WithField("jobs", len(s.jobs)).Info("scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish or the
// context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
