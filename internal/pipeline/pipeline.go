// Package pipeline drives an ingestion run end to end: plan the dates, fetch
// and parse each source's page, normalize and validate the rows, and merge
// each date's batch into the dataset. Per-date failures are recorded and
// skipped; only store writes and unresolvable merges abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/fetch"
	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/models"
	"pointspreads/ingestion/internal/normalize"
	"pointspreads/ingestion/internal/reconcile"
	"pointspreads/ingestion/internal/source"
	"pointspreads/ingestion/internal/store"
	"pointspreads/ingestion/internal/validate"
)

// Options wires a Runner. All fields are required except RecencyWindow,
// Concurrency and Now, which default sensibly.
type Options struct {
	Registry   *source.Registry
	Fetcher    *fetch.Fetcher
	Store      *store.Store
	Normalizer *normalize.Normalizer
	Validator  *validate.Validator
	Priority   reconcile.Priority

	// RecencyWindow is the trailing window whose dates always bypass the
	// page cache; their lines may still be moving.
	RecencyWindow time.Duration

	// Concurrency bounds the parallel cache prefetch.
	Concurrency int

	Now func() time.Time
}

// Runner executes ingestion runs.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = 7 * 24 * time.Hour
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run executes one ingestion pass. A zero start derives the date plan from
// the dataset; otherwise [start, end] is processed explicitly. The returned
// report is always non-nil and covers whatever completed before any error.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (*models.RunReport, error) {
	now := r.opts.Now()
	report := models.NewRunReport(now)
	defer func() { report.Finish(r.opts.Now()) }()

	existing, err := r.opts.Store.Load()
	if err != nil {
		return report, fmt.Errorf("loading dataset: %w", err)
	}

	today := models.Day(now)
	days := planDates(existing, start, end, today)
	report.DatesPlanned = len(days)

	log.Info().
		Int("dates", len(days)).
		Int("existing_records", len(existing)).
		Strs("sources", r.opts.Registry.IDs()).
		Msg("Starting ingestion run")

	if len(days) == 0 {
		return report, nil
	}

	r.prefetch(ctx, days, today)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := r.processDate(ctx, day, today, report); err != nil {
			return report, err
		}
	}

	if count, err := r.opts.Store.Count(); err == nil {
		metrics.SetDatasetSize(count)
	}

	log.Info().
		Int("dates_planned", report.DatesPlanned).
		Int("dates_committed", report.DatesCommitted).
		Int("inserted", report.Inserted).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("rejected", report.Rejected).
		Int("skipped", report.Skipped()).
		Int("failed_dates", len(report.FailedDates)).
		Msg("Ingestion run complete")

	return report, nil
}

// fresh reports whether a date must bypass the page cache. Dates inside the
// trailing recency window, today, and future dates all have lines that can
// still move.
func (r *Runner) fresh(day, today time.Time) bool {
	return !day.Before(today.Add(-r.opts.RecencyWindow))
}

// prefetch warms the durable cache for the cacheable dates in parallel,
// bounded by Concurrency. Errors are deliberately dropped here; the
// sequential pass will hit them again and record them properly.
func (r *Runner) prefetch(ctx context.Context, days []time.Time, today time.Time) {
	sem := make(chan struct{}, r.opts.Concurrency)
	var wg sync.WaitGroup

	for _, src := range r.opts.Registry.All() {
		for _, day := range days {
			if r.fresh(day, today) {
				continue
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(src source.Source, day time.Time) {
				defer wg.Done()
				defer func() { <-sem }()
				_, _ = r.opts.Fetcher.Page(ctx, src, day, false)
			}(src, day)
		}
	}

	wg.Wait()
}

// processDate builds one date's batch across all sources and merges it into
// the dataset. Source failures for the date are recorded and skipped; a store
// or merge error is returned and aborts the run.
func (r *Runner) processDate(ctx context.Context, day, today time.Time, report *models.RunReport) error {
	fresh := r.fresh(day, today)

	var batch []models.GameRecord
	fetched := false

	for _, src := range r.opts.Registry.All() {
		body, err := r.opts.Fetcher.Page(ctx, src, day, fresh)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, source.ErrNotFound) {
				log.Debug().
					Str("source", src.ID()).
					Str("date", day.Format(models.DateLayout)).
					Msg("Source has no page for date")
				continue
			}

			log.Error().
				Err(err).
				Str("source", src.ID()).
				Str("date", day.Format(models.DateLayout)).
				Msg("Page fetch failed, skipping date for source")
			report.AddFailedDate(src.ID(), day, err)
			continue
		}

		rows, err := src.ParsePage(body, day)
		if err != nil {
			log.Error().
				Err(err).
				Str("source", src.ID()).
				Str("date", day.Format(models.DateLayout)).
				Msg("Page parse failed, skipping date for source")
			report.AddFailedDate(src.ID(), day, err)
			continue
		}

		fetched = true
		batch = append(batch, r.buildRecords(src.ID(), day, rows, report)...)
	}

	if !fetched {
		return nil
	}

	report.DatesCommitted++
	if len(batch) == 0 {
		return nil
	}

	res, err := r.opts.Store.AppendOrUpdate(batch, r.opts.Priority)
	if err != nil {
		return fmt.Errorf("merging %s: %w", day.Format(models.DateLayout), err)
	}

	report.AddMergeCounts(res.Inserted, res.Updated, res.Unchanged, res.Rejected)
	metrics.RecordMerge(res.Inserted, res.Updated, res.Unchanged, res.Rejected)

	log.Debug().
		Str("date", day.Format(models.DateLayout)).
		Int("games", len(batch)).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Msg("Date merged")

	return nil
}

// buildRecords normalizes and validates one source's parsed rows. Rows that
// fail are recorded on the report and dropped; the rest become records.
func (r *Runner) buildRecords(sourceID string, day time.Time, rows []models.RawRow, report *models.RunReport) []models.GameRecord {
	records := make([]models.GameRecord, 0, len(rows))
	now := r.opts.Now()

	for _, row := range rows {
		home, err := r.opts.Normalizer.Normalize(row.HomeTeam, sourceID)
		if err != nil {
			r.recordUnknown(sourceID, day, err, report)
			continue
		}
		away, err := r.opts.Normalizer.Normalize(row.AwayTeam, sourceID)
		if err != nil {
			r.recordUnknown(sourceID, day, err, report)
			continue
		}

		rec, err := row.ToRecord(home, away, now, sourceID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("source", sourceID).
				Str("date", day.Format(models.DateLayout)).
				Str("home", home).
				Str("away", away).
				Msg("Dropping unparseable row")
			report.AddInvalidRow(sourceID, day, home, away, err)
			metrics.RecordSkip("unparseable")
			continue
		}

		if err := r.opts.Validator.Validate(&rec); err != nil {
			log.Warn().
				Err(err).
				Str("source", sourceID).
				Str("date", day.Format(models.DateLayout)).
				Str("home", home).
				Str("away", away).
				Msg("Dropping invalid row")
			report.AddInvalidRow(sourceID, day, home, away, err)
			metrics.RecordSkip("invalid")
			continue
		}

		records = append(records, rec)
	}

	return records
}

func (r *Runner) recordUnknown(sourceID string, day time.Time, err error, report *models.RunReport) {
	var unknown *normalize.UnknownTeamError
	if errors.As(err, &unknown) {
		log.Warn().
			Str("source", sourceID).
			Str("date", day.Format(models.DateLayout)).
			Str("raw_name", unknown.RawName).
			Msg("Unknown team name, skipping record")
		report.AddUnknownTeam(sourceID, day, unknown.RawName)
	} else {
		report.AddUnknownTeam(sourceID, day, err.Error())
	}
	metrics.RecordSkip("unknown_team")
}
