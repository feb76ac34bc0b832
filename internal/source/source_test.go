package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointspreads/ingestion/internal/client"
)

const archivedPage = `
<article class="gamebox postgamebox">
  <p class="gamebox-header"><strong class="text-uppercase">Portland @ Gonzaga</strong> Final</p>
  <p class="summary-box"><strong>-21.0</strong><strong>Over 155</strong></p>
</article>`

func TestArchive_FetchPage(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2011, 11, 12, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2011-11-12.html"), []byte(archivedPage), 0o644))

	a := NewArchive(dir)
	assert.Equal(t, ArchiveID, a.ID())

	body, err := a.FetchPage(context.Background(), day)
	require.NoError(t, err)

	rows, err := a.ParsePage(body, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gonzaga", rows[0].HomeTeam)
	assert.Equal(t, "-21.0", rows[0].Spread)
}

func TestArchive_MissingDateIsNotFound(t *testing.T) {
	a := NewArchive(t.TempDir())

	_, err := a.FetchPage(context.Background(), time.Date(2011, 11, 13, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrNotFound, "Gaps in the archive are expected")
}

func TestCovers_ParserSelection(t *testing.T) {
	today := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s := NewCoversAt(client.NewCovers("", time.Second), func() time.Time { return today })
	assert.Equal(t, CoversID, s.ID())

	pregame := `
<article class="gamebox pregamebox">
  <p id="gamebox-header"><strong class="text-uppercase">Portland @ Gonzaga</strong></p>
  <span class="team-consensus">+21</span><span class="team-consensus">-21</span>
  <span class="team-overunder">o/u 155</span>
</article>`

	// A past date parses with the postgame parser: the pregame markup yields
	// nothing.
	rows, err := s.ParsePage([]byte(pregame), today.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Today and future dates use the pregame parser.
	rows, err = s.ParsePage([]byte(pregame), today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "-21", rows[0].Spread)

	rows, err = s.ParsePage([]byte(pregame), today.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRegistry(t *testing.T) {
	covers := NewCovers(client.NewCovers("", time.Second))
	archive := NewArchive(t.TempDir())

	r := NewRegistry(covers, archive)
	assert.Equal(t, []string{CoversID, ArchiveID}, r.IDs())

	got, ok := r.Get(CoversID)
	require.True(t, ok)
	assert.Same(t, covers, got)

	_, ok = r.Get("mystery")
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, CoversID, all[0].ID())
	assert.Equal(t, ArchiveID, all[1].ID())
}
