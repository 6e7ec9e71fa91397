package store

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"msl/internal/domain"
)

const keystoreSchema = `CREATE TABLE IF NOT EXISTS keystore (
	name    TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	updated INTEGER NOT NULL
)`

// SQLiteKV keeps every blob in one sqlite file, one row per name. Each save
// is a single upsert, so a crash leaves either the old or the new value.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(keystoreSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteKV{db: db}, nil
}

// LoadFile returns the stored bytes or domain.ErrNotFound.
func (s *SQLiteKV) LoadFile(name string) ([]byte, error) {
	var b []byte
	err := s.db.QueryRow(`SELECT value FROM keystore WHERE name = ?`, name).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

// SaveFile inserts or replaces name.
func (s *SQLiteKV) SaveFile(name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO keystore (name, value, updated) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		name, data, time.Now().Unix(),
	)
	return err
}

// Close releases the database handle.
func (s *SQLiteKV) Close() error { return s.db.Close() }

// Compile-time assertion that SQLiteKV implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*SQLiteKV)(nil)
