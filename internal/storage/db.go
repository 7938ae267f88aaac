// Package storage persists fittrack state as flat files under a data
// directory. Every store is schema-on-read: a missing file reads as its
// default value. Writes go to a temporary file that is renamed into place.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File names under the data directory.
const (
	LibraryFile      = "program_library.json"
	OneRepMaxFile    = "1rm.json"
	PerformanceFile  = "performance_history.json"
	AchievementsFile = "achievements.json"
	WorkoutLogFile   = "progress_log.csv"
	LedgerFile       = "import_state.db"
)

// DB provides the repository methods over the data directory. Each file has
// its own lock, held across read-modify-write, so a single process never
// interleaves writers. Other processes are not coordinated.
type DB struct {
	dir string

	libraryMu      sync.Mutex
	oneRepMaxMu    sync.Mutex
	performanceMu  sync.Mutex
	achievementsMu sync.Mutex
	workoutLogMu   sync.Mutex
}

// Open returns a DB rooted at dir, creating the directory if needed.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &DB{dir: dir}, nil
}

// Dir returns the data directory.
func (db *DB) Dir() string {
	return db.dir
}

func (db *DB) path(name string) string {
	return filepath.Join(db.dir, name)
}

// readJSON decodes the named file into v. It reports false, with v untouched,
// when the file does not exist.
func (db *DB) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(db.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", name, err)
	}
	return true, nil
}

func (db *DB) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return db.writeFile(name, append(data, '\n'))
}

// writeFile replaces the named file atomically.
func (db *DB) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(db.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, db.path(name)); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
