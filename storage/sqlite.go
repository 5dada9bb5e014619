// Why this file: ./storage/sqlite.go
// This is the local persistence layer: one sqlite database holding the
// mandi price cache (so restarts stay warm inside the TTL window) and
// the offline engine's term-vector cache (so the corpus is vectorized
// once per fingerprint, not once per process).
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB wraps the local cache database.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// NewSQLiteDB opens (creating if needed) the cache database.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteDB{db: db, path: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_cache (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS offline_vectors (
		corpus_hash TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetPrice returns a cached mandi price payload for the crop+state key.
// TTL enforcement is the caller's job; this just reports what is stored
// and when it was fetched.
func (s *SQLiteDB) GetPrice(key string) (string, time.Time, bool) {
	var payload string
	var fetchedAt int64
	err := s.db.QueryRow(
		`SELECT payload, fetched_at FROM price_cache WHERE key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if err != nil {
		return "", time.Time{}, false
	}
	return payload, time.Unix(fetchedAt, 0), true
}

// PutPrice stores a mandi price payload, replacing any previous entry.
func (s *SQLiteDB) PutPrice(key, payload string, fetchedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO price_cache (key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, fetchedAt.Unix(),
	)
	return err
}

// PrunePrices removes price entries fetched before the cutoff.
func (s *SQLiteDB) PrunePrices(cutoff time.Time) error {
	_, err := s.db.Exec(`DELETE FROM price_cache WHERE fetched_at < ?`, cutoff.Unix())
	return err
}

// GetVectors returns the cached offline term vectors for a corpus
// fingerprint.
func (s *SQLiteDB) GetVectors(corpusHash string) (string, bool) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM offline_vectors WHERE corpus_hash = ?`, corpusHash,
	).Scan(&payload)
	if err != nil {
		return "", false
	}
	return payload, true
}

// PutVectors stores term vectors for a corpus fingerprint. Vectors for
// older fingerprints are dropped; only the current corpus is cached.
func (s *SQLiteDB) PutVectors(corpusHash, payload string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM offline_vectors WHERE corpus_hash != ?`, corpusHash); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO offline_vectors (corpus_hash, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(corpus_hash) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		corpusHash, payload, time.Now().Unix(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Path returns the database file path.
func (s *SQLiteDB) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
