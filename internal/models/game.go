package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in the dataset file, cache keys
// and the Covers.com matchup URL.
const DateLayout = "2006-01-02"

// Day truncates a timestamp to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Key is the natural key of a game record. At most one live record per key
// exists in the dataset at any time.
type Key struct {
	GameDate string
	HomeTeam string
	AwayTeam string
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s vs %s", k.GameDate, k.HomeTeam, k.AwayTeam)
}

// GameRecord is one scheduled matchup's betting line.
//
// GameDate, HomeTeam and AwayTeam are immutable once created and form the
// natural key. Spread and Total move as the line moves; UpdatedDate records
// when they were last refreshed and never decreases for a given key.
type GameRecord struct {
	GameDate    time.Time
	UpdatedDate time.Time
	HomeTeam    string
	AwayTeam    string

	// Spread is relative to the home team; negative means home favored.
	// Nil when the source published no line (common in older seasons).
	Spread *float64
	Total  *float64

	NeutralSite bool

	// Source identifies the upstream provider of this version of the record.
	// Used as a conflict tie-break input only; not persisted.
	Source string
}

// Key returns the record's natural key.
func (r *GameRecord) Key() Key {
	return Key{
		GameDate: r.GameDate.Format(DateLayout),
		HomeTeam: r.HomeTeam,
		AwayTeam: r.AwayTeam,
	}
}

// RawRow is a single game as parsed out of a source page, before team-name
// normalization and validation. Spread and Total carry the source's raw text
// ("-4.5", "PK", "o/u"-stripped totals, or empty when no line was posted).
type RawRow struct {
	GameDate    time.Time
	HomeTeam    string
	AwayTeam    string
	Spread      string
	Total       string
	NeutralSite bool
}

// ToRecord converts a parsed row into a GameRecord using the canonical team
// names produced by the normalizer.
func (row RawRow) ToRecord(homeTeam, awayTeam string, updated time.Time, source string) (GameRecord, error) {
	spread, err := ParseLine(row.Spread)
	if err != nil {
		return GameRecord{}, fmt.Errorf("spread: %w", err)
	}

	total, err := ParseLine(row.Total)
	if err != nil {
		return GameRecord{}, fmt.Errorf("total: %w", err)
	}

	return GameRecord{
		GameDate:    Day(row.GameDate),
		UpdatedDate: Day(updated),
		HomeTeam:    homeTeam,
		AwayTeam:    awayTeam,
		Spread:      spread,
		Total:       total,
		NeutralSite: row.NeutralSite,
		Source:      source,
	}, nil
}

// ParseLine parses a spread or total out of source text. Empty or dash-only
// text means the line was not posted and parses to nil; "PK" is a pick'em,
// spread zero.
func ParseLine(text string) (*float64, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case "", "-", "--", "n/a", "off":
		return nil, nil
	case "pk", "p", "pk'em", "pick":
		return Float(0), nil
	}

	t = strings.TrimPrefix(t, "+")
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable line %q", text)
	}
	return &v, nil
}

// Float returns a pointer to v. Convenience for building records.
func Float(v float64) *float64 {
	return &v
}
