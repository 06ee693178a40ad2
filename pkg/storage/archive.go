package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive persists generated export files under a single base directory.
type Archive struct {
	dir string
}

// NewArchive ensures the base directory exists and returns a handle.
func NewArchive(dir string) (*Archive, error) {
	if dir == "" {
		dir = "./exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Save writes data under name and returns the stored name.
func (a *Archive) Save(name string, data []byte) (string, error) {
	path, err := a.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for a stored file.
func (a *Archive) Open(name string) (*os.File, error) {
	path, err := a.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	return file, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (a *Archive) Remove(name string) error {
	path, err := a.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove archive file: %w", err)
	}
	return nil
}

// Sweep deletes files whose modification time is older than maxAge and
// returns how many were removed.
func (a *Archive) Sweep(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("sweep archive: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// resolve maps a stored name to an on-disk path. Names that would
// escape the base directory are rejected.
func (a *Archive) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return filepath.Join(a.dir, clean), nil
}
