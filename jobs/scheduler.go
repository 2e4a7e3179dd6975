// Package jobs runs the periodic background sweeps: penalty expiry and
// retention cleanup.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"civica/moderation"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the background sweeps on a single cron goroutine.
// Invocations of the same job never overlap: each entry is wrapped in a
// mutex, so a slow pass delays the next rather than running beside it.
// Job failures are logged and retried on the next scheduled run; they are
// never fatal to the serving process.
type Scheduler struct {
	cron      *cron.Cron
	penalties *moderation.PenaltyService
	retention *moderation.RetentionJob
	logger    *slog.Logger
}

func New(penalties *moderation.PenaltyService, retention *moderation.RetentionJob, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		penalties: penalties,
		retention: retention,
		logger:    logger,
	}
}

// Start registers the sweeps and starts the cron loop.
func (s *Scheduler) Start(expirySpec, retentionSpec string) error {
	if _, err := s.cron.AddFunc(expirySpec, s.nonOverlapping("penalty expiry", func(ctx context.Context) error {
		_, err := s.penalties.ExpirePenalties(ctx)
		return err
	})); err != nil {
		return fmt.Errorf("scheduling penalty expiry: %w", err)
	}

	if _, err := s.cron.AddFunc(retentionSpec, s.nonOverlapping("retention cleanup", s.retention.Run)); err != nil {
		return fmt.Errorf("scheduling retention cleanup: %w", err)
	}

	s.cron.Start()
	s.logger.Info("background sweeps scheduled", "expiry", expirySpec, "retention", retentionSpec)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("background sweeps stopped")
}

func (s *Scheduler) nonOverlapping(name string, run func(context.Context) error) func() {
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if err := run(context.Background()); err != nil {
			s.logger.Error("background job failed", "job", name, "error", err)
		}
	}
}
