// Package cache memoizes raw page fetches per (source, date). A bounded
// in-memory layer covers the current run; a durable backend (disk or redis)
// covers repeated runs. Callers bypass both tiers for dates whose data is
// not yet final, since the key alone cannot express staleness.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/models"
)

// Backend is the durable tier. Implementations must treat a missing key as
// (nil, false, nil), not an error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// EntryKey builds the cache key for a (source, date) pair.
func EntryKey(source string, day time.Time) string {
	return fmt.Sprintf("%s/%s", source, day.Format(models.DateLayout))
}

// TwoTier layers a bounded in-memory map over a durable backend.
type TwoTier struct {
	backend Backend

	mu         sync.Mutex
	mem        map[string][]byte
	order      []string
	maxEntries int
}

// NewTwoTier wraps a backend with an in-memory layer capped at maxEntries.
func NewTwoTier(backend Backend, maxEntries int) *TwoTier {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &TwoTier{
		backend:    backend,
		mem:        make(map[string][]byte, maxEntries),
		maxEntries: maxEntries,
	}
}

// GetOrFetch returns the cached page for (source, day), fetching on miss.
// fresh bypasses both tiers and rewrites them with the fetched body: the
// freshness override for in-season dates whose lines are still moving.
func (c *TwoTier) GetOrFetch(ctx context.Context, source string, day time.Time, fresh bool, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	key := EntryKey(source, day)

	if !fresh {
		if body, ok := c.fromMemory(key); ok {
			metrics.RecordCacheHit()
			return body, nil
		}

		body, ok, err := c.backend.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("cache get %s: %w", key, err)
		}
		if ok {
			metrics.RecordCacheHit()
			c.toMemory(key, body)
			return body, nil
		}
		metrics.RecordCacheMiss()
	}

	body, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.backend.Set(ctx, key, body); err != nil {
		// A cache write failure must not fail the fetch; the page is in hand.
		log.Warn().Err(err).Str("key", key).Msg("Failed to write page to cache")
	}
	c.toMemory(key, body)

	return body, nil
}

func (c *TwoTier) fromMemory(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.mem[key]
	return body, ok
}

func (c *TwoTier) toMemory(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.mem[key]; !exists {
		for len(c.mem) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.mem, oldest)
		}
		c.order = append(c.order, key)
	}
	c.mem[key] = body
}
