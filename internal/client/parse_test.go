package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseDay = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

const pregamePage = `
<html><body>
<article class="gamebox pregamebox">
  <p id="gamebox-header">
    <strong class="text-uppercase">Alaska Anchorage @ Weber St</strong>
    7:00 PM ET
  </p>
  <div>
    <span class="team-consensus">+9.5</span>
    <span class="team-consensus">-9.5</span>
  </div>
  <span class="team-overunder">o/u 141.5</span>
</article>
<article class="gamebox pregamebox">
  <p id="gamebox-header">
    <strong class="text-uppercase">Portland @ Gonzaga</strong> (N)
  </p>
  <div>
    <span class="team-consensus">+21</span>
    <span class="team-consensus">-21</span>
  </div>
  <span class="team-overunder">o/u 155</span>
</article>
<article class="gamebox pregamebox">
  <p id="gamebox-header"><strong class="text-uppercase">TBA</strong></p>
</article>
</body></html>`

func TestParsePregame(t *testing.T) {
	rows, err := ParsePregame([]byte(pregamePage), parseDay)
	require.NoError(t, err)
	require.Len(t, rows, 2, "The malformed header box is skipped")

	assert.Equal(t, "Weber St", rows[0].HomeTeam)
	assert.Equal(t, "Alaska Anchorage", rows[0].AwayTeam)
	assert.Equal(t, "-9.5", rows[0].Spread)
	assert.Equal(t, "141.5", rows[0].Total)
	assert.False(t, rows[0].NeutralSite)
	assert.Equal(t, "2025-01-02", rows[0].GameDate.Format("2006-01-02"))

	assert.Equal(t, "Gonzaga", rows[1].HomeTeam)
	assert.Equal(t, "Portland", rows[1].AwayTeam)
	assert.Equal(t, "-21", rows[1].Spread)
	assert.Equal(t, "155", rows[1].Total)
	assert.True(t, rows[1].NeutralSite)
}

func TestParsePregame_NoGames(t *testing.T) {
	rows, err := ParsePregame([]byte(`<html><body><p>No games scheduled</p></body></html>`), parseDay)
	require.NoError(t, err)
	assert.Empty(t, rows, "A page without gameboxes is an off day, not an error")
}

const postgamePage = `
<html><body>
<article class="gamebox postgamebox">
  <p class="gamebox-header">
    <strong class="text-uppercase">Alaska Anchorage @ Weber St</strong> Final
  </p>
  <p class="summary-box">
    <strong>-10.0</strong>
    <strong>Under 141.5</strong>
  </p>
</article>
<article class="gamebox postgamebox">
  <p class="gamebox-header">
    <strong class="text-uppercase">Kansas @ Baylor</strong> Final (N) Tournament
  </p>
  <p class="summary-box">
    <strong>pk</strong>
    <strong>Over 145</strong>
  </p>
</article>
<article class="gamebox postgamebox">
  <p class="gamebox-header">
    <strong class="text-uppercase">Portland @ Gonzaga</strong> Final
  </p>
  <p class="summary-box"></p>
</article>
</body></html>`

func TestParsePostgame(t *testing.T) {
	rows, err := ParsePostgame([]byte(postgamePage), parseDay)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Weber St", rows[0].HomeTeam)
	assert.Equal(t, "Alaska Anchorage", rows[0].AwayTeam)
	assert.Equal(t, "-10.0", rows[0].Spread)
	assert.Equal(t, "141.5", rows[0].Total)
	assert.False(t, rows[0].NeutralSite)

	assert.Equal(t, "PK", rows[1].Spread, "Pick'em games carry the PK marker")
	assert.Equal(t, "145", rows[1].Total)
	assert.True(t, rows[1].NeutralSite)

	// Older seasons published no line at all.
	assert.Equal(t, "", rows[2].Spread)
	assert.Equal(t, "", rows[2].Total)
}

func TestSplitMatchup(t *testing.T) {
	away, home, ok := splitMatchup("Alaska Anchorage @ Weber St")
	require.True(t, ok)
	assert.Equal(t, "Alaska Anchorage", away)
	assert.Equal(t, "Weber St", home)

	_, _, ok = splitMatchup("TBA")
	assert.False(t, ok)

	_, _, ok = splitMatchup(" @ Weber St")
	assert.False(t, ok)

	_, _, ok = splitMatchup("A @ B @ C")
	assert.False(t, ok)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "-9.5", firstLine("\n  -9.5\n  extra markup text\n"))
	assert.Equal(t, "", firstLine("  \n \n"))
}
