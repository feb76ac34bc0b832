// Package source defines the upstream provider interface and its adapters.
// Each source exposes "fetch page for date" and "parse page into raw rows";
// everything downstream of those raw rows is the pipeline's responsibility.
package source

import (
	"context"
	"errors"
	"time"

	"pointspreads/ingestion/internal/models"
)

// ErrNotFound reports that a source has no page for the requested date.
// Normal for archival sources with gaps; the pipeline skips the date for
// that source without counting a failure.
var ErrNotFound = errors.New("no page for date")

// Source is one upstream provider of game odds pages.
type Source interface {
	// ID is the stable source identifier used in cache keys, alias tables
	// and the priority ranking.
	ID() string

	// FetchPage retrieves the raw page for one calendar date.
	FetchPage(ctx context.Context, day time.Time) ([]byte, error)

	// ParsePage extracts raw game rows from a fetched page.
	ParsePage(body []byte, day time.Time) ([]models.RawRow, error)
}

// Registry holds the configured sources in registration order, which is also
// the order the pipeline consults them in.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry builds a registry from sources. A duplicate ID replaces the
// earlier registration.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if _, exists := r.sources[s.ID()]; !exists {
			r.order = append(r.order, s.ID())
		}
		r.sources[s.ID()] = s
	}
	return r
}

// Get returns the source registered under id.
func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}

// IDs returns the registered source identifiers in order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
