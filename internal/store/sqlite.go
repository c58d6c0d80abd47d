// Package store provides the shared SQLite-backed persistent store for
// FuseMCP. Cache entries and search-run telemetry live in the same
// database file; each consumer owns its own schema.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// DB wraps the shared SQLite handle together with the data-directory
// lock that keeps two fusemcp processes from sharing one database.
type DB struct {
	db       *sql.DB
	lock     *flock.Flock
	path     string
	inMemory bool
}

// DefaultDataDir returns the default data directory (~/.fusemcp).
// Falls back to temp directory if home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".fusemcp")
	}
	return filepath.Join(home, ".fusemcp")
}

// Open opens (creating if necessary) the store under dataDir and
// acquires an exclusive lock on it. Returns an error if another
// process holds the lock.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, ".store.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("data directory %s is in use by another fusemcp process", dataDir)
	}

	path := filepath.Join(dataDir, "fusemcp.db")
	db, err := openSQLite(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &DB{db: db, lock: lock, path: path}, nil
}

// OpenMemory opens an in-memory store. Used by tests and the
// ephemeral --no-persist mode; no lock is taken.
func OpenMemory() (*DB, error) {
	db, err := openSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	return &DB{db: db, inMemory: true}, nil
}

// openSQLite opens the database and applies the standard pragmas.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite
	// (DSN params may be ignored by the driver).
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return db, nil
}

// SQL returns the underlying database handle.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Path returns the database file path (empty for in-memory stores).
func (d *DB) Path() string {
	if d.inMemory {
		return ""
	}
	return d.path
}

// Close closes the database and releases the data-directory lock.
func (d *DB) Close() error {
	err := d.db.Close()
	if d.lock != nil {
		if unlockErr := d.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}
