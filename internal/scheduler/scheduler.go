package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/config"
	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/pipeline"
)

// Scheduler runs the nightly dataset update in the background worker. One
// ingestion pass per night keeps the recent window fresh and picks up newly
// posted lines for upcoming games.
type Scheduler struct {
	cfg    *config.Config
	runner *pipeline.Runner
	cron   *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, runner *pipeline.Runner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.NightlyUpdateCron, func() {
		log.Info().Msg("Running nightly dataset update...")
		if err := s.RunUpdate(ctx); err != nil {
			log.Error().Err(err).Msg("Nightly dataset update failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly update: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyUpdateCron).
		Msg("Nightly dataset update scheduled")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	log.Info().Msg("Scheduler stopped")
}

// RunUpdate executes one ingestion pass over the derived date plan and
// records the outcome.
func (s *Scheduler) RunUpdate(ctx context.Context) error {
	start := time.Now()

	report, err := s.runner.Run(ctx, time.Time{}, time.Time{})
	duration := time.Since(start)

	switch {
	case err != nil:
		metrics.RecordRun("error", duration.Seconds())
		return err

	case report.Empty():
		metrics.RecordRun("empty", duration.Seconds())
		return fmt.Errorf("no dates committed out of %d planned", report.DatesPlanned)

	default:
		metrics.RecordRun("success", duration.Seconds())
		log.Info().
			Dur("duration", duration).
			Int("inserted", report.Inserted).
			Int("updated", report.Updated).
			Int("skipped", report.Skipped()).
			Int("failed_dates", len(report.FailedDates)).
			Msg("Nightly dataset update complete")
		return nil
	}
}
