// Package reconcile decides, per game, whether a freshly fetched record
// inserts, updates, or is discarded against the historical dataset. The
// policy is recency first, source priority only as a tie-break, never
// last-write-wins by arrival order — which makes re-running ingestion over
// overlapping date ranges from multiple sources idempotent and
// order-independent.
package reconcile

import (
	"fmt"
	"math"
	"sort"

	"pointspreads/ingestion/internal/models"
)

// UnrankedSourceError reports a conflict involving a source the priority
// ranking has no entry for. The run fails loud rather than guessing which
// value to trust.
type UnrankedSourceError struct {
	Source string
}

func (e *UnrankedSourceError) Error() string {
	return fmt.Sprintf("no priority ranking for source %q", e.Source)
}

// Priority is the immutable trust order among sources: earlier means more
// trusted. Records loaded from the dataset carry no source and rank below
// every configured one, so a live source with equal recency wins a conflict
// against a stored value of unknown provenance.
type Priority struct {
	rank map[string]int
}

// NewPriority builds a ranking from a configured order, most trusted first.
func NewPriority(order []string) Priority {
	rank := make(map[string]int, len(order))
	for i, source := range order {
		if _, exists := rank[source]; !exists {
			rank[source] = i
		}
	}
	return Priority{rank: rank}
}

// Rank returns a source's position, lower meaning more trusted. The empty
// source ranks below all configured sources; an unconfigured non-empty
// source is unranked.
func (p Priority) Rank(source string) (int, bool) {
	if source == "" {
		return math.MaxInt, true
	}
	r, ok := p.rank[source]
	return r, ok
}

// MergeResult summarizes one reconciliation pass.
type MergeResult struct {
	Inserted  int
	Updated   int
	Unchanged int
	Rejected  int
}

// Merge reconciles an incoming batch against the existing dataset and
// returns the merged records sorted by game date, then home and away team,
// for stable diffs between runs.
//
// Per natural key: a new key inserts; a strictly newer UpdatedDate updates;
// an older one is rejected as stale; an equal one with differing values is a
// conflict decided by source priority, with the later record in batch order
// winning when the priorities tie.
func Merge(existing, incoming []models.GameRecord, priority Priority) ([]models.GameRecord, MergeResult, error) {
	current := make(map[models.Key]models.GameRecord, len(existing)+len(incoming))
	for _, rec := range existing {
		current[rec.Key()] = rec
	}

	var res MergeResult
	for _, inc := range incoming {
		key := inc.Key()
		cur, exists := current[key]
		if !exists {
			current[key] = inc
			res.Inserted++
			continue
		}

		switch {
		case inc.UpdatedDate.After(cur.UpdatedDate):
			current[key] = apply(cur, inc)
			res.Updated++

		case inc.UpdatedDate.Before(cur.UpdatedDate):
			res.Rejected++

		default:
			if sameValues(cur, apply(cur, inc)) {
				res.Unchanged++
				continue
			}

			incRank, ok := priority.Rank(inc.Source)
			if !ok {
				return nil, MergeResult{}, &UnrankedSourceError{Source: inc.Source}
			}
			curRank, ok := priority.Rank(cur.Source)
			if !ok {
				return nil, MergeResult{}, &UnrankedSourceError{Source: cur.Source}
			}

			if incRank <= curRank {
				current[key] = apply(cur, inc)
				res.Updated++
			} else {
				res.Rejected++
			}
		}
	}

	merged := make([]models.GameRecord, 0, len(current))
	for _, rec := range current {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.GameDate.Equal(b.GameDate) {
			return a.GameDate.Before(b.GameDate)
		}
		if a.HomeTeam != b.HomeTeam {
			return a.HomeTeam < b.HomeTeam
		}
		return a.AwayTeam < b.AwayTeam
	})

	return merged, res, nil
}

// apply overwrites the mutable fields of cur with inc. An incoming nil
// spread or total keeps the existing known value: a newer fetch with a
// missing line must not regress a recorded one to unknown.
func apply(cur, inc models.GameRecord) models.GameRecord {
	out := inc
	if inc.Spread == nil {
		out.Spread = cur.Spread
	}
	if inc.Total == nil {
		out.Total = cur.Total
	}
	return out
}

func sameValues(a, b models.GameRecord) bool {
	return sameLine(a.Spread, b.Spread) &&
		sameLine(a.Total, b.Total) &&
		a.NeutralSite == b.NeutralSite
}

func sameLine(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
