package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/cache"
	"pointspreads/ingestion/internal/client"
	"pointspreads/ingestion/internal/config"
	"pointspreads/ingestion/internal/fetch"
	"pointspreads/ingestion/internal/normalize"
	"pointspreads/ingestion/internal/reconcile"
	"pointspreads/ingestion/internal/source"
	"pointspreads/ingestion/internal/store"
	"pointspreads/ingestion/internal/validate"
)

// FromConfig assembles a fully wired Runner from configuration. The returned
// close function releases backend connections and must be called when the
// runner is no longer needed.
func FromConfig(cfg *config.Config) (*Runner, func(), error) {
	backend, closeBackend, err := cacheBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	sources := []source.Source{
		source.NewCovers(client.NewCovers(cfg.CoversBaseURL, cfg.FetchTimeout)),
	}
	if cfg.ArchiveDir != "" {
		sources = append(sources, source.NewArchive(cfg.ArchiveDir))
	}

	dataset := store.New(cfg.DatasetPath)

	normalizer, err := buildNormalizer(cfg, dataset)
	if err != nil {
		closeBackend()
		return nil, nil, err
	}

	fetcher := fetch.New(fetch.Policy{
		MaxAttempts: cfg.FetchMaxAttempts,
		BaseDelay:   cfg.FetchBaseDelay,
		MaxDelay:    cfg.FetchMaxDelay,
	}, cache.NewTwoTier(backend, cfg.CacheMemoryEntries))

	validator := validate.New(validate.Bounds{
		MaxSpread:   cfg.MaxSpread,
		MinTotal:    cfg.MinTotal,
		MaxTotal:    cfg.MaxTotal,
		PostedSlack: cfg.PostedSlack(),
		FutureSlack: 48 * time.Hour,
	})

	runner := New(Options{
		Registry:      source.NewRegistry(sources...),
		Fetcher:       fetcher,
		Store:         dataset,
		Normalizer:    normalizer,
		Validator:     validator,
		Priority:      reconcile.NewPriority(cfg.SourceOrder()),
		RecencyWindow: cfg.RecencyWindow(),
		Concurrency:   cfg.FetchConcurrency,
	})

	return runner, closeBackend, nil
}

func cacheBackend(cfg *config.Config) (cache.Backend, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		backend, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting redis cache: %w", err)
		}
		return backend, func() { backend.Close() }, nil

	default:
		backend, err := cache.NewDisk(cfg.CacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("creating disk cache: %w", err)
		}
		return backend, func() {}, nil
	}
}

// buildNormalizer seeds the known-team set from the live dataset's team names
// and layers the curated alias file on top. An empty dataset with no alias
// file leaves only AllowUnknownTeams as a way to bootstrap.
func buildNormalizer(cfg *config.Config, dataset *store.Store) (*normalize.Normalizer, error) {
	records, err := dataset.Load()
	if err != nil {
		return nil, fmt.Errorf("loading dataset for team names: %w", err)
	}

	seen := make(map[string]bool)
	var teams []string
	for _, rec := range records {
		for _, name := range []string{rec.HomeTeam, rec.AwayTeam} {
			if !seen[name] {
				seen[name] = true
				teams = append(teams, name)
			}
		}
	}

	aliasTeams, aliases, err := normalize.LoadAliasFile(cfg.AliasPath)
	if err != nil {
		return nil, err
	}
	teams = append(teams, aliasTeams...)

	log.Debug().
		Int("known_teams", len(teams)).
		Int("alias_sources", len(aliases)).
		Bool("allow_unknown", cfg.AllowUnknownTeams).
		Msg("Normalizer configured")

	return normalize.New(normalize.NewConfig(teams, aliases, cfg.AllowUnknownTeams)), nil
}
