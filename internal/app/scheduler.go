package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"backtestLab/internal/ports"
)

// Scheduler triggers RefreshAll on a cron schedule. A run that is still in
// progress when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	service *AnalysisService
	targets []Target
	logger  ports.Logger
}

// NewScheduler creates a scheduler. ctx bounds every triggered refresh.
func NewScheduler(ctx context.Context, service *AnalysisService, targets []Target, logger ports.Logger) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: service,
		targets: targets,
		logger:  logger,
	}
}

// Register adds the refresh job under a cron spec such as "@every 1h" or "0 * * * *".
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("failed to register refresh job %q: %w", spec, err)
	}
	s.logger.Info(s.ctx, "Refresh job registered", map[string]interface{}{"schedule": spec, "targets": len(s.targets)})
	return nil
}

// RunNow refreshes every target once, synchronously.
func (s *Scheduler) RunNow() {
	if s.ctx.Err() != nil {
		return
	}
	if err := s.service.RefreshAll(s.ctx, s.targets); err != nil {
		s.logger.Error(s.ctx, err, "Scheduled refresh finished with errors")
	}
}

// Start runs the registered refresh job in the background until Stop is called.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "Scheduler started")
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	done := s.cron.Stop()
	s.logger.Info(s.ctx, "Scheduler stopped")
	return done
}
