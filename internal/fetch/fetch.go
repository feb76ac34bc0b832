// Package fetch wraps source page retrieval with bounded retry-with-backoff
// and the fetch cache. Retry policy and error classification sit behind small
// types so they are testable without network I/O.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/cache"
	"pointspreads/ingestion/internal/client"
	"pointspreads/ingestion/internal/metrics"
	"pointspreads/ingestion/internal/models"
	"pointspreads/ingestion/internal/source"
)

// ExhaustedError reports that all retry attempts for one (source, date)
// failed. The ingestion driver logs it and continues with the next date.
type ExhaustedError struct {
	Source   string
	Day      time.Time
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch exhausted for %s on %s after %d attempts: %v",
		e.Source, e.Day.Format(models.DateLayout), e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy retries up to 5 attempts with a doubling, capped backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the backoff before attempt n (attempts count from 1; there
// is no delay before the first).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := p.BaseDelay << uint(attempt-2)
	if delay > p.MaxDelay || delay <= 0 {
		return p.MaxDelay
	}
	return delay
}

// Retryable classifies a fetch error. Network timeouts, 429/5xx statuses and
// empty page bodies are transient; everything else is permanent. A missing
// archive page or cancelled context never retries.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, source.ErrNotFound) {
		return false
	}
	if errors.Is(err, client.ErrEmptyPage) {
		return true
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}

// Fetcher retrieves source pages through the cache with retries.
type Fetcher struct {
	policy   Policy
	cache    *cache.TwoTier
	classify func(error) bool
}

// New creates a Fetcher with the default error classification.
func New(policy Policy, pageCache *cache.TwoTier) *Fetcher {
	return &Fetcher{
		policy:   policy,
		cache:    pageCache,
		classify: Retryable,
	}
}

// Page returns the raw page for (src, day). fresh bypasses the cache for
// dates whose data is not yet final. On a miss the underlying fetch runs
// with up to MaxAttempts tries; exhaustion returns *ExhaustedError.
func (f *Fetcher) Page(ctx context.Context, src source.Source, day time.Time, fresh bool) ([]byte, error) {
	return f.cache.GetOrFetch(ctx, src.ID(), day, fresh, func(ctx context.Context) ([]byte, error) {
		return f.attempt(ctx, src, day)
	})
}

func (f *Fetcher) attempt(ctx context.Context, src source.Source, day time.Time) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		if delay := f.policy.Delay(attempt); delay > 0 {
			log.Warn().
				Str("source", src.ID()).
				Str("date", day.Format(models.DateLayout)).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying page fetch after backoff")
			metrics.RecordFetchRetry(src.ID())

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := src.FetchPage(ctx, day)
		if err == nil {
			metrics.RecordPageFetch(src.ID(), "ok")
			return body, nil
		}

		lastErr = err
		if !f.classify(err) {
			metrics.RecordPageFetch(src.ID(), "permanent")
			return nil, err
		}
	}

	metrics.RecordPageFetch(src.ID(), "exhausted")
	return nil, &ExhaustedError{
		Source:   src.ID(),
		Day:      day,
		Attempts: f.policy.MaxAttempts,
		Err:      lastErr,
	}
}
