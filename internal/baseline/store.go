// Package baseline persists the last known answer snapshot per test and
// reports drift between runs.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/steigr/dnsaudit/internal/audit"
)

const timestampLayout = "20060102-150405"

// Store reads and writes baseline snapshots in a directory, one JSON file
// per test name.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir. An empty dir means the working
// directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, now: time.Now}
}

// Path returns the live baseline file for a test name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("baseline-%s.json", name))
}

// Load reads the stored baseline for a test. The error is fs.ErrNotExist
// when no baseline has been stored yet.
func (s *Store) Load(name string) (*audit.Snapshot, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, err
	}
	var snapshot audit.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing baseline for %s: %w", name, err)
	}
	return &snapshot, nil
}

// Save writes the snapshot as the current baseline for a test.
func (s *Store) Save(name string, snapshot *audit.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding baseline for %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("writing baseline for %s: %w", name, err)
	}
	return nil
}

// Rotate archives the current baseline under a timestamped name and returns
// the archive path. The live file is renamed, never rewritten, so the
// archived bytes are exactly what the baseline held. A sequence suffix
// avoids clobbering an archive from the same second.
func (s *Store) Rotate(name string) (string, error) {
	stamp := fmt.Sprintf("baseline-%s-%s", name, s.now().Format(timestampLayout))
	archived := filepath.Join(s.dir, stamp+".json")
	for seq := 0; ; seq++ {
		if _, err := os.Stat(archived); errors.Is(err, fs.ErrNotExist) {
			break
		}
		archived = filepath.Join(s.dir, fmt.Sprintf("%s-%03d.json", stamp, seq))
	}
	if err := os.Rename(s.Path(name), archived); err != nil {
		return "", fmt.Errorf("archiving baseline for %s: %w", name, err)
	}
	return archived, nil
}
