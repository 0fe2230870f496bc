package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/concert-badges/internal/domain"
)

// Scheduler runs periodic backfill sweeps on a cron schedule, used to
// roll new catalog versions out to existing users without an operator
// triggering the job by hand.
type Scheduler struct {
	cron     *cron.Cron
	backfill *Backfiller
	logger   *slog.Logger
}

// NewScheduler creates a scheduler for the given backfiller. schedule is
// a standard five-field cron expression.
func NewScheduler(backfill *Backfiller, schedule string, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:     c,
		backfill: backfill,
		logger:   logger,
	}

	_, err := c.AddFunc(schedule, func() {
		s.logger.Info("scheduled backfill sweep starting")
		if _, err := s.backfill.Run(context.Background()); err != nil {
			if errors.Is(err, domain.ErrBackfillRunning) {
				s.logger.Warn("skipping scheduled sweep: backfill already running")
				return
			}
			s.logger.Error("scheduled backfill failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the cron schedule
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("backfill scheduler started")
}

// Stop halts the schedule and waits for a running job to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("backfill scheduler stopped")
}
