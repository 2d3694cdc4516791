// Package localstore provides the SQLite-backed local fallback store.
//
// It is the server-side counterpart of a browser's local storage: a small
// key-value table namespaced per client, holding the token mirror, the cached
// user summary, calculator inputs and standalone-mode lots.
package localstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the sql.DB connection for the local key-value store.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the store at the specified path.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// Get returns the value for a key, and whether it was present.
func (s *Store) Get(namespace, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`
		SELECT value FROM kv WHERE namespace = ? AND key = ?
	`, namespace, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Set writes a value, replacing any previous one.
func (s *Store) Set(namespace, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, namespace, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete removes a key. Removing an absent key is not an error.
func (s *Store) Delete(namespace, key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// ClearNamespace removes every key in a namespace.
func (s *Store) ClearNamespace(namespace string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("clearing namespace %s: %w", namespace, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
