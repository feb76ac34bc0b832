package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Covers.com matchup site
	CoversBaseURL string        `envconfig:"COVERS_BASE_URL" default:"https://www.covers.com"`
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	// Fetch retry policy
	FetchMaxAttempts int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"5"`
	FetchBaseDelay   time.Duration `envconfig:"FETCH_BASE_DELAY" default:"1s"`
	FetchMaxDelay    time.Duration `envconfig:"FETCH_MAX_DELAY" default:"30s"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"4"`

	// Dataset
	DatasetPath       string `envconfig:"DATASET_PATH" default:"data/spreads_and_totals.csv"`
	AliasPath         string `envconfig:"ALIAS_PATH" default:"data/team_aliases.json"`
	AllowUnknownTeams bool   `envconfig:"ALLOW_UNKNOWN_TEAMS" default:"false"`

	// Validation bounds
	MaxSpread       float64 `envconfig:"MAX_SPREAD" default:"60"`
	MinTotal        float64 `envconfig:"MIN_TOTAL" default:"0"`
	MaxTotal        float64 `envconfig:"MAX_TOTAL" default:"300"`
	PostedSlackDays int     `envconfig:"POSTED_SLACK_DAYS" default:"45"`

	// Sources: trust order for conflict tie-breaks, most trusted first.
	SourcePriority string `envconfig:"SOURCE_PRIORITY" default:"covers,archive"`
	ArchiveDir     string `envconfig:"ARCHIVE_DIR" default:""`

	// Page cache
	CacheBackend       string        `envconfig:"CACHE_BACKEND" default:"disk"`
	CacheDir           string        `envconfig:"CACHE_DIR" default:".cache"`
	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"720h"`
	CacheMemoryEntries int           `envconfig:"CACHE_MEMORY_ENTRIES" default:"64"`
	RecencyWindowDays  int           `envconfig:"RECENCY_WINDOW_DAYS" default:"7"`

	// Redis (CACHE_BACKEND=redis)
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler (worker binary)
	EnableScheduler   bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	NightlyUpdateCron string `envconfig:"NIGHTLY_UPDATE_CRON" default:"0 2 * * *"`
	InitialRunEnabled bool   `envconfig:"INITIAL_RUN_ENABLED" default:"true"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("spreads", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("SPREADS_DATASET_PATH is required")
	}

	if c.CacheBackend != "disk" && c.CacheBackend != "redis" {
		return fmt.Errorf("SPREADS_CACHE_BACKEND must be disk or redis, got %q", c.CacheBackend)
	}

	if len(c.SourceOrder()) == 0 {
		return fmt.Errorf("SPREADS_SOURCE_PRIORITY must name at least one source")
	}

	if c.FetchMaxAttempts < 1 {
		return fmt.Errorf("SPREADS_FETCH_MAX_ATTEMPTS must be at least 1")
	}

	if c.MaxTotal <= c.MinTotal {
		return fmt.Errorf("SPREADS_MAX_TOTAL must exceed SPREADS_MIN_TOTAL")
	}

	return nil
}

// SourceOrder returns the configured source trust order, most trusted first
func (c *Config) SourceOrder() []string {
	parts := strings.Split(c.SourcePriority, ",")
	order := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			order = append(order, p)
		}
	}
	return order
}

// RecencyWindow returns the trailing window whose dates bypass the page cache
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowDays) * 24 * time.Hour
}

// PostedSlack returns how far before game day a line may be posted
func (c *Config) PostedSlack() time.Duration {
	return time.Duration(c.PostedSlackDays) * 24 * time.Hour
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
