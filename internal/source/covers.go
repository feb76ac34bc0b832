package source

import (
	"context"
	"time"

	"pointspreads/ingestion/internal/client"
	"pointspreads/ingestion/internal/models"
)

// CoversID is the live matchup site's source identifier.
const CoversID = "covers"

// Covers adapts the Covers.com client to the Source interface. Past dates
// parse with the postgame (closing line) parser, today and future dates with
// the pregame (consensus line) parser.
type Covers struct {
	client *client.Covers
	today  func() time.Time
}

// NewCovers wraps a Covers.com client as an ingestion source.
func NewCovers(c *client.Covers) *Covers {
	return &Covers{client: c, today: time.Now}
}

// NewCoversAt fixes the clock used to pick the parser. Test hook.
func NewCoversAt(c *client.Covers, today func() time.Time) *Covers {
	return &Covers{client: c, today: today}
}

func (s *Covers) ID() string {
	return CoversID
}

func (s *Covers) FetchPage(ctx context.Context, day time.Time) ([]byte, error) {
	return s.client.FetchMatchups(ctx, day)
}

func (s *Covers) ParsePage(body []byte, day time.Time) ([]models.RawRow, error) {
	if models.Day(day).Before(models.Day(s.today())) {
		return client.ParsePostgame(body, day)
	}
	return client.ParsePregame(body, day)
}
