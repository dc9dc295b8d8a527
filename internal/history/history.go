// Package history provides SQLite-backed storage of past report runs.
// The database is stored in the config directory and keeps enough of
// each run to review what was generated and when, and to diff report
// output between runs.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store manages the history.db SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database in the specified config
// directory. It initializes the schema if the database is new.
func Open(configDir string) (*Store, error) {
	dbPath := filepath.Join(configDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Clear removes all recorded runs.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM runs")
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Stats returns history statistics.
type Stats struct {
	RunCount  int64
	FailCount int64
}

// GetStats returns statistics about the recorded runs.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats

	err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.RunCount)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM runs WHERE status = 'failed'").Scan(&stats.FailCount)
	if err != nil {
		return nil, fmt.Errorf("count failed runs: %w", err)
	}

	return &stats, nil
}
