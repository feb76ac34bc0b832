// Command update runs one ingestion pass and exits. With no flags the date
// plan is derived from the dataset; -start/-end process an explicit range,
// which is how historical seasons are backfilled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pointspreads/ingestion/internal/config"
	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/models"
	"pointspreads/ingestion/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	startFlag := flag.String("start", "", "first date to ingest (YYYY-MM-DD)")
	endFlag := flag.String("end", "", "last date to ingest (YYYY-MM-DD, defaults to -start)")
	flag.Parse()

	setupLogger()

	start, end, err := parseRange(*startFlag, *endFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("dataset", cfg.DatasetPath).
		Str("cache_backend", cfg.CacheBackend).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, closeBackend, err := pipeline.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build ingestion pipeline")
	}
	defer closeBackend()

	runStart := time.Now()
	report, err := runner.Run(ctx, start, end)
	duration := time.Since(runStart)

	summarize(report, duration)

	switch {
	case err != nil:
		metrics.RecordRun("error", duration.Seconds())
		log.Error().Err(err).Msg("Ingestion run failed")
		os.Exit(1)

	case report.Empty():
		metrics.RecordRun("empty", duration.Seconds())
		log.Error().
			Int("dates_planned", report.DatesPlanned).
			Msg("No dates committed; refusing to report success")
		os.Exit(1)

	default:
		metrics.RecordRun("success", duration.Seconds())
	}
}

func parseRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr == "" {
		return time.Time{}, time.Time{}, nil
	}

	start, err = models.ParseDay(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end = start
	if endStr != "" {
		end, err = models.ParseDay(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

// summarize logs the run report, one line per failure so the output stays
// greppable for alias curation.
func summarize(report *models.RunReport, duration time.Duration) {
	log.Info().
		Dur("duration", duration).
		Int("dates_planned", report.DatesPlanned).
		Int("dates_committed", report.DatesCommitted).
		Int("inserted", report.Inserted).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("rejected", report.Rejected).
		Msg("Run summary")

	for _, f := range report.FailedDates {
		log.Warn().
			Str("source", f.Source).
			Str("date", f.Day.Format(models.DateLayout)).
			Str("reason", f.Reason).
			Msg("Failed date")
	}
	for _, u := range report.UnknownTeams {
		log.Warn().
			Str("source", u.Source).
			Str("date", u.Day.Format(models.DateLayout)).
			Str("raw_name", u.RawName).
			Msg("Unknown team needs an alias entry")
	}
	for _, r := range report.InvalidRows {
		log.Warn().
			Str("source", r.Source).
			Str("date", r.Day.Format(models.DateLayout)).
			Str("home", r.HomeTeam).
			Str("away", r.AwayTeam).
			Str("reason", r.Reason).
			Msg("Invalid row dropped")
	}
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("SPREADS_APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("SPREADS_LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}
