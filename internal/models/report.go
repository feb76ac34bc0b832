package models

import "time"

// FailedDate records a date whose fetch or parse failed after all retries
// for one source. The run continues; the failure is surfaced in the report.
type FailedDate struct {
	Source string
	Day    time.Time
	Reason string
}

// UnknownTeam records a raw team name no alias table could resolve. These are
// the curation backlog: each one needs a new alias entry before the game can
// be ingested.
type UnknownTeam struct {
	Source  string
	Day     time.Time
	RawName string
}

// InvalidRow records a parsed row that failed validation and was dropped.
type InvalidRow struct {
	Source   string
	Day      time.Time
	HomeTeam string
	AwayTeam string
	Reason   string
}

// RunReport aggregates everything a run skipped or changed, so partial data
// loss is observable instead of buried in log lines.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time

	DatesPlanned   int
	DatesCommitted int

	FailedDates  []FailedDate
	UnknownTeams []UnknownTeam
	InvalidRows  []InvalidRow

	Inserted  int
	Updated   int
	Unchanged int
	Rejected  int
}

// NewRunReport starts a report for a run beginning now.
func NewRunReport(now time.Time) *RunReport {
	return &RunReport{StartedAt: now}
}

func (r *RunReport) AddFailedDate(source string, day time.Time, err error) {
	r.FailedDates = append(r.FailedDates, FailedDate{Source: source, Day: day, Reason: err.Error()})
}

func (r *RunReport) AddUnknownTeam(source string, day time.Time, rawName string) {
	r.UnknownTeams = append(r.UnknownTeams, UnknownTeam{Source: source, Day: day, RawName: rawName})
}

func (r *RunReport) AddInvalidRow(source string, day time.Time, home, away string, err error) {
	r.InvalidRows = append(r.InvalidRows, InvalidRow{
		Source:   source,
		Day:      day,
		HomeTeam: home,
		AwayTeam: away,
		Reason:   err.Error(),
	})
}

// AddMergeCounts folds one date's merge outcome into the run totals.
func (r *RunReport) AddMergeCounts(inserted, updated, unchanged, rejected int) {
	r.Inserted += inserted
	r.Updated += updated
	r.Unchanged += unchanged
	r.Rejected += rejected
}

// Finish stamps the end of the run.
func (r *RunReport) Finish(now time.Time) {
	r.FinishedAt = now
}

// Skipped reports how many records were dropped before reconciliation.
func (r *RunReport) Skipped() int {
	return len(r.UnknownTeams) + len(r.InvalidRows)
}

// Empty reports whether the run committed no dates despite having dates
// planned. Callers use this to decide the process exit code.
func (r *RunReport) Empty() bool {
	return r.DatesPlanned > 0 && r.DatesCommitted == 0
}
