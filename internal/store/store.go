// Package store persists the historical dataset as a single CSV table,
// loaded and replaced wholesale per run. Replace writes a temporary file and
// atomically renames it over the previous contents, so a crash mid-write can
// never leave a truncated dataset.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/models"
	"pointspreads/ingestion/internal/reconcile"
)

var header = []string{"game_date", "updated_date", "home_team", "away_team", "spread", "total", "neutral_site"}

// Store is the durable tabular store of all historical records.
type Store struct {
	path string
}

// New creates a Store backed by the CSV file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the dataset file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full dataset. A missing file is an empty dataset, not an
// error; anything else malformed fails loud.
func (s *Store) Load() ([]models.GameRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if len(rows[0]) != len(header) {
		return nil, fmt.Errorf("dataset %s: expected %d columns, found %d", s.path, len(header), len(rows[0]))
	}

	records := make([]models.GameRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("dataset %s line %d: %w", s.path, i+2, err)
		}
		records = append(records, rec)
	}

	log.Debug().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Dataset loaded")

	return records, nil
}

// Replace atomically rewrites the dataset with records, sorted by game date
// then home and away team. The previous file survives any failure.
func (s *Store) Replace(records []models.GameRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	rows := make([]models.GameRecord, len(records))
	copy(rows, records)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.GameDate.Equal(b.GameDate) {
			return a.GameDate.Before(b.GameDate)
		}
		if a.HomeTeam != b.HomeTeam {
			return a.HomeTeam < b.HomeTeam
		}
		return a.AwayTeam < b.AwayTeam
	})

	tmp, err := os.CreateTemp(dir, ".spreads-*.csv")
	if err != nil {
		return fmt.Errorf("creating temporary dataset: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing dataset header: %w", err)
	}
	for _, rec := range rows {
		if err := w.Write(formatRow(rec)); err != nil {
			return fmt.Errorf("writing dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing dataset: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		tmp = nil
		return fmt.Errorf("replacing dataset: %w", err)
	}
	tmp = nil

	log.Debug().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Dataset replaced")

	return nil
}

// AppendOrUpdate merges an incoming batch into the dataset and persists the
// result. The write is skipped when the merge changed nothing and the file
// already exists.
func (s *Store) AppendOrUpdate(incoming []models.GameRecord, priority reconcile.Priority) (reconcile.MergeResult, error) {
	existing, err := s.Load()
	if err != nil {
		return reconcile.MergeResult{}, err
	}

	merged, res, err := reconcile.Merge(existing, incoming, priority)
	if err != nil {
		return reconcile.MergeResult{}, err
	}

	if res.Inserted == 0 && res.Updated == 0 {
		if _, err := os.Stat(s.path); err == nil {
			return res, nil
		}
	}

	if err := s.Replace(merged); err != nil {
		return reconcile.MergeResult{}, err
	}

	return res, nil
}

// Count returns the number of records currently in the dataset.
func (s *Store) Count() (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func parseRow(row []string) (models.GameRecord, error) {
	if len(row) != len(header) {
		return models.GameRecord{}, fmt.Errorf("expected %d columns, found %d", len(header), len(row))
	}

	gameDate, err := models.ParseDay(row[0])
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("game_date: %w", err)
	}
	updatedDate, err := models.ParseDay(row[1])
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("updated_date: %w", err)
	}

	spread, err := parseCell(row[4])
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("spread: %w", err)
	}
	total, err := parseCell(row[5])
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("total: %w", err)
	}

	neutral := false
	if row[6] != "" {
		neutral, err = strconv.ParseBool(row[6])
		if err != nil {
			return models.GameRecord{}, fmt.Errorf("neutral_site: %w", err)
		}
	}

	return models.GameRecord{
		GameDate:    gameDate,
		UpdatedDate: updatedDate,
		HomeTeam:    row[2],
		AwayTeam:    row[3],
		Spread:      spread,
		Total:       total,
		NeutralSite: neutral,
	}, nil
}

func formatRow(rec models.GameRecord) []string {
	return []string{
		rec.GameDate.Format(models.DateLayout),
		rec.UpdatedDate.Format(models.DateLayout),
		rec.HomeTeam,
		rec.AwayTeam,
		formatCell(rec.Spread),
		formatCell(rec.Total),
		strconv.FormatBool(rec.NeutralSite),
	}
}

func parseCell(cell string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
