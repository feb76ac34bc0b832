package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointspreads/ingestion/internal/models"
)

func rec(t *testing.T, gameDate, updated, home, away string, spread, total *float64, source string) models.GameRecord {
	t.Helper()
	gd, err := models.ParseDay(gameDate)
	require.NoError(t, err)
	ud, err := models.ParseDay(updated)
	require.NoError(t, err)

	return models.GameRecord{
		GameDate:    gd,
		UpdatedDate: ud,
		HomeTeam:    home,
		AwayTeam:    away,
		Spread:      spread,
		Total:       total,
		Source:      source,
	}
}

func defaultPriority() Priority {
	return NewPriority([]string{"covers", "archive"})
}

func TestMerge_InsertsNewGames(t *testing.T) {
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), "covers"),
		rec(t, "2025-01-02", "2025-01-02", "Gonzaga", "Portland", models.Float(-21), models.Float(155), "covers"),
	}

	merged, res, err := Merge(nil, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 2}, res)
	assert.Len(t, merged, 2)
}

func TestMerge_NewerUpdateWins(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-01", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(10), models.Float(142), "covers"),
	}

	merged, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Updated: 1}, res)
	require.Len(t, merged, 1)
	assert.Equal(t, 10.0, *merged[0].Spread)
	assert.Equal(t, "2025-01-02", merged[0].UpdatedDate.Format(models.DateLayout))
}

func TestMerge_StaleIncomingRejected(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-03", "Weber St", "Alaska Anchorage", models.Float(10), nil, ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-01", "Weber St", "Alaska Anchorage", models.Float(8), nil, "covers"),
	}

	merged, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Rejected: 1}, res)
	require.Len(t, merged, 1)
	assert.Equal(t, 10.0, *merged[0].Spread, "Stale value must not overwrite newer one")
}

func TestMerge_EqualDateSameValuesUnchanged(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), "covers"),
	}

	_, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Unchanged: 1}, res)
}

func TestMerge_ConflictResolvedBySourcePriority(t *testing.T) {
	// Equal updated dates, differing spread. The stored record carries no
	// source and ranks below every configured one, so the live source wins.
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(10), models.Float(141.5), "covers"),
	}

	merged, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Updated: 1}, res)
	assert.Equal(t, 10.0, *merged[0].Spread)
}

func TestMerge_ConflictLowerPriorityRejected(t *testing.T) {
	covers := rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(10), nil, "covers")
	archive := rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), nil, "archive")

	// covers first: archive's conflicting value loses.
	merged, res, err := Merge(nil, []models.GameRecord{covers, archive}, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 1, Rejected: 1}, res)
	assert.Equal(t, 10.0, *merged[0].Spread)

	// archive first: covers overrides it. Same final value either way.
	merged, res, err = Merge(nil, []models.GameRecord{archive, covers}, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 1, Updated: 1}, res)
	assert.Equal(t, 10.0, *merged[0].Spread, "Merge must be order independent")
}

func TestMerge_EqualPriorityLaterBatchEntryWins(t *testing.T) {
	first := rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), nil, "covers")
	second := rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(10), nil, "covers")

	merged, res, err := Merge(nil, []models.GameRecord{first, second}, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 1, Updated: 1}, res)
	assert.Equal(t, 10.0, *merged[0].Spread)
}

func TestMerge_NilIncomingLinePreservesExisting(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-01", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", nil, models.Float(142), "covers"),
	}

	merged, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Updated: 1}, res)
	require.NotNil(t, merged[0].Spread, "A missing line must not erase a recorded one")
	assert.Equal(t, 9.5, *merged[0].Spread)
	assert.Equal(t, 142.0, *merged[0].Total)
}

func TestMerge_NilIncomingLineAloneIsUnchanged(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", nil, models.Float(141.5), "covers"),
	}

	_, res, err := Merge(existing, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Unchanged: 1}, res, "Nil against a known value is not a conflict")
}

func TestMerge_UnrankedSourceFailsLoud(t *testing.T) {
	existing := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), nil, ""),
	}
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(10), nil, "mystery"),
	}

	_, _, err := Merge(existing, incoming, defaultPriority())
	require.Error(t, err)

	var unranked *UnrankedSourceError
	require.True(t, errors.As(err, &unranked))
	assert.Equal(t, "mystery", unranked.Source)
}

func TestMerge_Idempotent(t *testing.T) {
	incoming := []models.GameRecord{
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", models.Float(9.5), models.Float(141.5), "covers"),
		rec(t, "2025-01-02", "2025-01-02", "Gonzaga", "Portland", nil, nil, "covers"),
	}

	merged, res, err := Merge(nil, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Inserted: 2}, res)

	again, res, err := Merge(merged, incoming, defaultPriority())
	require.NoError(t, err)
	assert.Equal(t, MergeResult{Unchanged: 2}, res)
	assert.Equal(t, merged, again)
}

func TestMerge_OutputSorted(t *testing.T) {
	incoming := []models.GameRecord{
		rec(t, "2025-01-03", "2025-01-03", "Baylor", "Kansas", nil, nil, "covers"),
		rec(t, "2025-01-02", "2025-01-02", "Weber St", "Alaska Anchorage", nil, nil, "covers"),
		rec(t, "2025-01-02", "2025-01-02", "Gonzaga", "Portland", nil, nil, "covers"),
	}

	merged, _, err := Merge(nil, incoming, defaultPriority())
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "Gonzaga", merged[0].HomeTeam)
	assert.Equal(t, "Weber St", merged[1].HomeTeam)
	assert.Equal(t, "Baylor", merged[2].HomeTeam)
}

func TestPriority_Rank(t *testing.T) {
	p := defaultPriority()

	covers, ok := p.Rank("covers")
	require.True(t, ok)
	archive, ok := p.Rank("archive")
	require.True(t, ok)
	assert.Less(t, covers, archive)

	stored, ok := p.Rank("")
	require.True(t, ok, "The empty source is always ranked")
	assert.Greater(t, stored, archive)

	_, ok = p.Rank("mystery")
	assert.False(t, ok)
}
