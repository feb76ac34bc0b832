package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Disk stores one file per cache entry under a root directory. The directory
// is not part of any contract and is safe to delete; the next run re-fetches.
type Disk struct {
	dir string
}

// NewDisk creates a disk backend rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, filepath.FromSlash(key)+".html")
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, bool, error) {
	body, err := os.ReadFile(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return body, true, nil
}

func (d *Disk) Set(_ context.Context, key string, body []byte) error {
	path := d.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache subdirectory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
