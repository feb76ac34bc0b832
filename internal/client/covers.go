// Package client fetches and parses Covers.com NCAA basketball matchup pages.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/models"
)

const (
	// DefaultBaseURL is the Covers.com site root.
	DefaultBaseURL = "https://www.covers.com"

	userAgent = "pointspreads-ingestion/1.0"
)

// ErrEmptyPage reports a response with no body. Usually a truncated or
// half-rendered upstream response; worth retrying.
var ErrEmptyPage = errors.New("empty page body")

// StatusError reports a non-200 response from the matchup site. The fetch
// layer classifies it as retryable (429, 5xx) or permanent (everything else).
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("matchup page returned status %d: %s", e.Code, e.URL)
}

// Retryable reports whether the status is a transient upstream failure.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Covers is the Covers.com matchup page client. It performs single attempts;
// retry policy lives in the fetch package.
type Covers struct {
	baseURL    string
	httpClient *http.Client
}

// NewCovers creates a Covers client with pooled transport settings.
func NewCovers(baseURL string, timeout time.Duration) *Covers {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Covers{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchMatchups downloads the NCAAB matchup page for one calendar date.
func (c *Covers) FetchMatchups(ctx context.Context, day time.Time) ([]byte, error) {
	url := fmt.Sprintf("%s/Sports/NCAAB/Matchups?selectedDate=%s", c.baseURL, day.Format(models.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	log.Debug().
		Str("url", url).
		Str("date", day.Format(models.DateLayout)).
		Msg("Fetching matchup page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matchup page request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read matchup page: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyPage
	}

	log.Debug().
		Str("url", url).
		Int("size", len(body)).
		Msg("Matchup page fetched")

	return body, nil
}
