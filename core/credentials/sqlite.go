package credentials

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLite persists credentials in a local database file, one row per key.
// Suitable for long-lived desktop or CLI clients that already carry a
// local database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and initializes if needed) the credentials table at the
// given database path.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("credentials: open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("credentials: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load() (Credentials, error) {
	var creds Credentials

	err := s.db.QueryRow(
		`SELECT value FROM credentials WHERE key = ?`, KeyAccessToken,
	).Scan(&creds.AccessToken)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("credentials: load token: %w", err)
	}

	var user string
	err = s.db.QueryRow(
		`SELECT value FROM credentials WHERE key = ?`, KeyUser,
	).Scan(&user)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, fmt.Errorf("credentials: load user: %w", err)
	}
	if user != "" {
		creds.User = []byte(user)
	}

	return creds, nil
}

func (s *SQLite) Save(creds Credentials) error {
	if creds.AccessToken == "" {
		return ErrEmptyToken
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("credentials: begin save: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.Exec(upsert, KeyAccessToken, creds.AccessToken); err != nil {
		return fmt.Errorf("credentials: save token: %w", err)
	}
	if _, err := tx.Exec(upsert, KeyUser, string(creds.User)); err != nil {
		return fmt.Errorf("credentials: save user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("credentials: commit save: %w", err)
	}
	return nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(
		`DELETE FROM credentials WHERE key IN (?, ?)`, KeyAccessToken, KeyUser,
	); err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	return nil
}
