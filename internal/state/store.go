package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS qstore (
	key         TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS step_log (
	id            TEXT PRIMARY KEY,
	step          INTEGER NOT NULL,
	state_key     TEXT NOT NULL,
	action        TEXT NOT NULL,
	reward        REAL NOT NULL,
	explored      INTEGER NOT NULL,
	learned       INTEGER NOT NULL,
	saved         INTEGER NOT NULL,
	record_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store is a SQLite-backed Backend.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes the value store and the step log writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables on db.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region get
// Get reads the payload stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM qstore WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(payload), nil
}

// #endregion get

// #region put
// Put upserts the payload under key.
func (s *Store) Put(key string, payload []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO qstore (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// #endregion put

// #region delete
// Delete removes the record under key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM qstore WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// #endregion delete
