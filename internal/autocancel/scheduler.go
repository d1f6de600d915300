package autocancel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the sweeper on a cron cadence as an independent background
// task, concurrently with request handling. Each tick gets a fresh context;
// nothing carries over between ticks beyond what is persisted.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(sweeper *Sweeper, spec string) (*Scheduler, error) {
	c := cron.New()
	logger := slog.With("component", "autocancel", "cron", spec)

	_, err := c.AddFunc(spec, func() {
		if err := sweeper.RunTick(context.Background()); err != nil {
			// Already logged by the sweeper; the next tick runs regardless.
			logger.Warn("Sweep tick failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid autocancel cron expression %q: %w", spec, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting autocancel scheduler")
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Autocancel scheduler stopped")
}
