package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pointspreads/ingestion/internal/client"
	"pointspreads/ingestion/internal/models"
)

// ArchiveID is the local page archive's source identifier.
const ArchiveID = "archive"

// Archive serves previously captured Covers.com pages from a local
// directory, one file per date named YYYY-MM-DD.html. It backfills seasons
// the live site no longer serves; gaps in the archive are expected and
// surface as ErrNotFound.
type Archive struct {
	dir string
}

// NewArchive creates an archive source rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

func (s *Archive) ID() string {
	return ArchiveID
}

func (s *Archive) FetchPage(_ context.Context, day time.Time) ([]byte, error) {
	path := filepath.Join(s.dir, day.Format(models.DateLayout)+".html")

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading archived page: %w", err)
	}
	return body, nil
}

// ParsePage parses an archived page. Captures are of played games, so the
// postgame parser applies regardless of the current date.
func (s *Archive) ParsePage(body []byte, day time.Time) ([]models.RawRow, error) {
	return client.ParsePostgame(body, day)
}
