package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pointspreads/ingestion/internal/config"
	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/pipeline"
	"pointspreads/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting point spreads ingestion worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("dataset", cfg.DatasetPath).
		Str("cache_backend", cfg.CacheBackend).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Wire the ingestion pipeline
	runner, closeBackend, err := pipeline.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build ingestion pipeline")
	}
	defer closeBackend()
	log.Info().Msg("Ingestion pipeline initialized")

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, runner)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial update if enabled
	if cfg.InitialRunEnabled {
		log.Info().Msg("Running initial dataset update...")
		if err := sched.RunUpdate(ctx); err != nil {
			log.Error().Err(err).Msg("Initial update failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial update completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("SPREADS_APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("SPREADS_LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
