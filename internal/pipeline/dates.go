package pipeline

import (
	"sort"
	"time"

	"pointspreads/ingestion/internal/models"
)

// lookahead is how far past today the derived plan reaches, covering games
// whose lines are already posted.
const lookahead = 8 * 24 * time.Hour

// InSeason reports whether a date falls inside the NCAA basketball season
// (November through April). Off-season dates have no matchup pages worth
// fetching.
func InSeason(day time.Time) bool {
	m := day.Month()
	return m <= time.April || m >= time.November
}

// planDates selects the dates a run will process, sorted ascending.
//
// An explicit [start, end] range expands to every in-season date inside it.
// With no range, the plan is derived from the dataset: every date holding a
// provisional record (captured on or before game day, so the closing line may
// not be final yet), plus the stretch from the earlier of the dataset's last
// date and today out to today plus the lookahead.
func planDates(existing []models.GameRecord, start, end, today time.Time) []time.Time {
	if !start.IsZero() {
		return expandRange(models.Day(start), models.Day(end))
	}

	seen := make(map[time.Time]bool)

	var last time.Time
	for _, rec := range existing {
		if rec.GameDate.After(last) {
			last = rec.GameDate
		}
		// Provisional: updated no later than the day after the game, so the
		// record may predate the final closing line.
		if !rec.GameDate.Before(rec.UpdatedDate.Add(-24 * time.Hour)) {
			seen[rec.GameDate] = true
		}
	}

	from := today
	if !last.IsZero() && last.Before(today) {
		from = last
	}
	for day := from; !day.After(today.Add(lookahead)); day = day.AddDate(0, 0, 1) {
		seen[day] = true
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		if InSeason(day) {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	return days
}

func expandRange(start, end time.Time) []time.Time {
	if end.Before(start) {
		start, end = end, start
	}

	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if InSeason(day) {
			days = append(days, day)
		}
	}
	return days
}
