// Package scheduler runs the periodic auto-create job.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"datatracker/internal/log"
	"datatracker/internal/services"
)

// Scheduler wraps cron-based jobs.
type Scheduler struct {
	cron   *cron.Cron
	auto   *services.AutoCreator
	logger *log.Logger
}

func New(auto *services.AutoCreator, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		auto:   auto,
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

// Schedule registers the auto-create job under the given standard cron
// spec, typically the first of the month shortly after midnight.
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runAutoCreate(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule auto-create: %w", err)
	}
	return nil
}

// Start launches the cron loop and runs the auto-create job once
// immediately, so a process started mid-month still fills the current
// month.
func (s *Scheduler) Start(ctx context.Context) {
	s.runAutoCreate(ctx)
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runAutoCreate(ctx context.Context) {
	created, err := s.auto.Run(ctx)
	if err != nil {
		s.logger.Error("Auto-create run failed", log.FieldError, err)
		return
	}
	s.logger.Info("Auto-create run complete", log.FieldCount, len(created))
}
