// Package validate enforces schema and range invariants on a single game
// record before it enters the pipeline. Bounds exist to catch scraping and
// parsing corruption, not to model real betting limits; violations drop the
// record, they never coerce it.
package validate

import (
	"fmt"
	"math"
	"time"

	"pointspreads/ingestion/internal/models"
)

// ValidationError names the field a record failed on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Bounds are the configurable plausibility limits.
type Bounds struct {
	// MaxSpread caps |spread|.
	MaxSpread float64

	// MinTotal and MaxTotal bound the over/under line (exclusive).
	MinTotal float64
	MaxTotal float64

	// PostedSlack is how far before game day a line may be posted. Lines go
	// up ahead of game day, but not absurdly early.
	PostedSlack time.Duration

	// FutureSlack is how far past "now" an updated date may sit before it is
	// treated as clock corruption.
	FutureSlack time.Duration
}

// DefaultBounds returns the production limits for NCAA basketball lines.
func DefaultBounds() Bounds {
	return Bounds{
		MaxSpread:   60,
		MinTotal:    0,
		MaxTotal:    300,
		PostedSlack: 45 * 24 * time.Hour,
		FutureSlack: 48 * time.Hour,
	}
}

// Validator checks records against a fixed set of bounds.
type Validator struct {
	bounds Bounds
	now    func() time.Time
}

func New(bounds Bounds) *Validator {
	return &Validator{bounds: bounds, now: time.Now}
}

// NewAt builds a Validator with a fixed clock. Test hook.
func NewAt(bounds Bounds, now func() time.Time) *Validator {
	return &Validator{bounds: bounds, now: now}
}

// Validate checks one record and returns a *ValidationError naming the first
// failing field, or nil. A nil spread or total is legal: older seasons are
// missing lines for a sizable share of games.
func (v *Validator) Validate(rec *models.GameRecord) error {
	if rec.GameDate.IsZero() {
		return &ValidationError{Field: "game_date", Reason: "missing"}
	}
	if rec.UpdatedDate.IsZero() {
		return &ValidationError{Field: "updated_date", Reason: "missing"}
	}
	if rec.HomeTeam == "" {
		return &ValidationError{Field: "home_team", Reason: "missing"}
	}
	if rec.AwayTeam == "" {
		return &ValidationError{Field: "away_team", Reason: "missing"}
	}
	if rec.HomeTeam == rec.AwayTeam {
		return &ValidationError{Field: "home_team", Reason: "home and away teams are identical"}
	}

	if rec.Spread != nil {
		s := *rec.Spread
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return &ValidationError{Field: "spread", Reason: "not a finite number"}
		}
		if math.Abs(s) >= v.bounds.MaxSpread {
			return &ValidationError{
				Field:  "spread",
				Reason: fmt.Sprintf("%.1f outside plausible range (|spread| < %.0f)", s, v.bounds.MaxSpread),
			}
		}
	}

	if rec.Total != nil {
		t := *rec.Total
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return &ValidationError{Field: "total", Reason: "not a finite number"}
		}
		if t <= v.bounds.MinTotal || t >= v.bounds.MaxTotal {
			return &ValidationError{
				Field:  "total",
				Reason: fmt.Sprintf("%.1f outside plausible range (%.0f, %.0f)", t, v.bounds.MinTotal, v.bounds.MaxTotal),
			}
		}
	}

	if rec.UpdatedDate.Before(rec.GameDate.Add(-v.bounds.PostedSlack)) {
		return &ValidationError{
			Field:  "updated_date",
			Reason: fmt.Sprintf("posted %s, too far before game day %s", rec.UpdatedDate.Format(models.DateLayout), rec.GameDate.Format(models.DateLayout)),
		}
	}
	if rec.UpdatedDate.After(v.now().Add(v.bounds.FutureSlack)) {
		return &ValidationError{Field: "updated_date", Reason: "in the future"}
	}

	return nil
}
