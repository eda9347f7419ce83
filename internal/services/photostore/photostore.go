// Package photostore persists uploaded leaf photos so scan records can
// reference them by path.
package photostore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store writes photos into a flat directory with timestamped names.
type Store struct {
	dir string

	mu  sync.Mutex // serializes the name counter
	seq int
}

// NewStore creates the photo directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes one photo and returns its path relative to the store root,
// used as the scan record's image reference. The sequence suffix keeps
// names unique when several photos arrive within the same second.
func (s *Store) Save(data []byte, originalName string) (string, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		ext = ".jpg"
	}

	filename := fmt.Sprintf("%s_%04d%s", time.Now().Format("2006-01-02_15-04-05"), seq, ext)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	return filename, nil
}

// Path resolves a stored reference to its absolute file path. References
// escaping the store directory are rejected.
func (s *Store) Path(ref string) (string, error) {
	if ref != filepath.Base(ref) {
		return "", fmt.Errorf("invalid photo reference %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

// Delete removes one stored photo. A missing file is not an error: the
// scan record may outlive its photo.
func (s *Store) Delete(ref string) error {
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// Clear removes every stored photo and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read photo directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
