package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointspreads/ingestion/internal/models"
)

func d(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := models.ParseDay(s)
	require.NoError(t, err)
	return day
}

func TestInSeason(t *testing.T) {
	assert.True(t, InSeason(d(t, "2025-01-15")))
	assert.True(t, InSeason(d(t, "2025-04-07")), "The title game lands in early April")
	assert.True(t, InSeason(d(t, "2024-11-04")))
	assert.True(t, InSeason(d(t, "2024-12-25")))

	assert.False(t, InSeason(d(t, "2025-05-01")))
	assert.False(t, InSeason(d(t, "2025-07-15")))
	assert.False(t, InSeason(d(t, "2024-10-31")))
}

func TestPlanDates_ExplicitRange(t *testing.T) {
	days := planDates(nil, d(t, "2025-01-02"), d(t, "2025-01-05"), d(t, "2025-01-10"))
	require.Len(t, days, 4)
	assert.Equal(t, d(t, "2025-01-02"), days[0])
	assert.Equal(t, d(t, "2025-01-05"), days[3])
}

func TestPlanDates_ExplicitRangeSwapped(t *testing.T) {
	days := planDates(nil, d(t, "2025-01-05"), d(t, "2025-01-02"), d(t, "2025-01-10"))
	require.Len(t, days, 4)
	assert.Equal(t, d(t, "2025-01-02"), days[0])
}

func TestPlanDates_ExplicitRangeSkipsOffSeason(t *testing.T) {
	days := planDates(nil, d(t, "2025-04-28"), d(t, "2025-05-03"), d(t, "2025-06-01"))
	require.Len(t, days, 3, "May dates are off season")
	assert.Equal(t, d(t, "2025-04-30"), days[2])
}

func TestPlanDates_DerivedFromDataset(t *testing.T) {
	today := d(t, "2025-01-10")

	existing := []models.GameRecord{
		// Final: updated well after the game, not re-fetched.
		{GameDate: d(t, "2024-12-01"), UpdatedDate: d(t, "2024-12-05")},
		// Provisional: captured on game day, the closing line may differ.
		{GameDate: d(t, "2024-12-20"), UpdatedDate: d(t, "2024-12-20")},
		// Last dataset date.
		{GameDate: d(t, "2025-01-05"), UpdatedDate: d(t, "2025-01-06")},
	}

	days := planDates(existing, time.Time{}, time.Time{}, today)
	require.NotEmpty(t, days)

	set := make(map[time.Time]bool, len(days))
	for _, day := range days {
		set[day] = true
	}

	assert.False(t, set[d(t, "2024-12-01")], "Final dates are not replanned")
	assert.True(t, set[d(t, "2024-12-20")], "Provisional dates are replanned")
	assert.True(t, set[d(t, "2025-01-05")], "The plan resumes from the dataset's last date")
	assert.True(t, set[today])
	assert.True(t, set[d(t, "2025-01-18")], "The plan reaches ahead for posted lines")
	assert.False(t, set[d(t, "2025-01-19")])

	// Sorted ascending.
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i-1].Before(days[i]))
	}
}

func TestPlanDates_EmptyDatasetStartsToday(t *testing.T) {
	today := d(t, "2025-01-10")

	days := planDates(nil, time.Time{}, time.Time{}, today)
	require.NotEmpty(t, days)
	assert.Equal(t, today, days[0])
	assert.Equal(t, d(t, "2025-01-18"), days[len(days)-1])
}

func TestPlanDates_DerivedSkipsOffSeason(t *testing.T) {
	today := d(t, "2025-06-15")

	days := planDates(nil, time.Time{}, time.Time{}, today)
	assert.Empty(t, days, "Nothing to fetch in the off season")
}
