package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion pipeline

var (
	// Fetch metrics
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreads_pages_fetched_total",
			Help: "Total number of matchup page fetch attempts that resolved",
		},
		[]string{"source", "status"},
	)

	FetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreads_fetch_retries_total",
			Help: "Total number of page fetch retries",
		},
		[]string{"source"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spreads_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spreads_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// Pipeline metrics
	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreads_records_skipped_total",
			Help: "Total number of parsed records dropped before reconciliation",
		},
		[]string{"reason"},
	)

	MergeOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreads_merge_outcomes_total",
			Help: "Total number of reconciliation outcomes by kind",
		},
		[]string{"outcome"},
	)

	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreads_dataset_records",
			Help: "Number of records in the historical dataset",
		},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreads_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spreads_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreads_last_successful_run_timestamp",
			Help: "Timestamp of the last successful ingestion run",
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreads_system_uptime_seconds",
			Help: "Worker uptime in seconds",
		},
	)
)

// RecordPageFetch records a resolved page fetch
func RecordPageFetch(source, status string) {
	PagesFetchedTotal.WithLabelValues(source, status).Inc()
}

// RecordFetchRetry records a page fetch retry
func RecordFetchRetry(source string) {
	FetchRetriesTotal.WithLabelValues(source).Inc()
}

// RecordCacheHit records a page cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a page cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordSkip records a record dropped before reconciliation
func RecordSkip(reason string) {
	RecordsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordMerge records one date's reconciliation outcome counts
func RecordMerge(inserted, updated, unchanged, rejected int) {
	MergeOutcomesTotal.WithLabelValues("inserted").Add(float64(inserted))
	MergeOutcomesTotal.WithLabelValues("updated").Add(float64(updated))
	MergeOutcomesTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	MergeOutcomesTotal.WithLabelValues("rejected").Add(float64(rejected))
}

// RecordRun records an ingestion run
func RecordRun(status string, duration float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// SetDatasetSize updates the dataset size gauge
func SetDatasetSize(records int) {
	DatasetRecords.Set(float64(records))
}
