// Package sqlite provides a durable core.SessionStore backed by SQLite. It is
// intended for demo runs that should survive process restarts; the schema is
// bootstrapped on open and the database runs in WAL mode for concurrent
// readers.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deskmesh/deskmesh/core"
	_ "modernc.org/sqlite"
)

// Store implements core.SessionStore on top of a SQLite database. Turn order
// is the insertion order of rows (monotonic rowid per session).
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; SQLite serializes writes anyway

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		key TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		last_agent TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_key TEXT NOT NULL REFERENCES sessions(key),
		speaker TEXT NOT NULL,
		text TEXT NOT NULL,
		ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_key);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetOrCreate returns the session for key, inserting an empty row on first
// touch. INSERT OR IGNORE keeps first-touch atomic across connections.
func (s *Store) GetOrCreate(key string) (*core.Session, error) {
	now := time.Now().UTC().UnixNano()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sessions (key, created_at, updated_at) VALUES (?, ?, ?)`,
		key, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session %q: %w", key, err)
	}
	return s.Get(key)
}

// Get loads the session and its full turn history, or core.ErrSessionNotFound.
func (s *Store) Get(key string) (*core.Session, error) {
	var (
		customerID, lastAgent string
		created, updated      int64
	)
	err := s.db.QueryRow(
		`SELECT customer_id, last_agent, created_at, updated_at FROM sessions WHERE key = ?`,
		key,
	).Scan(&customerID, &lastAgent, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get %q: %w", key, core.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", key, err)
	}

	sess := core.NewSession(key)
	if customerID != "" {
		sess.SetCustomerID(customerID)
	}
	if lastAgent != "" {
		sess.SetLastAgent(lastAgent)
	}

	rows, err := s.db.Query(
		`SELECT speaker, text, ts FROM turns WHERE session_key = ? ORDER BY id`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("load turns for %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			speaker, text string
			ts            int64
		)
		if err := rows.Scan(&speaker, &text, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		sess.AddTurn(core.Turn{Speaker: speaker, Text: text, Timestamp: time.Unix(0, ts).UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Set last so AddTurn/SetCustomerID above don't overwrite the stored
	// timestamps with time.Now.
	sess.Created = time.Unix(0, created).UTC()
	sess.Updated = time.Unix(0, updated).UTC()
	return sess, nil
}

// AppendTurn inserts a turn row for an existing session. It never creates the
// key.
func (s *Store) AppendTurn(key string, t core.Turn) error {
	if err := s.touch(key); err != nil {
		return fmt.Errorf("append to %q: %w", key, err)
	}
	ts := t.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO turns (session_key, speaker, text, ts) VALUES (?, ?, ?, ?)`,
		key, t.Speaker, t.Text, ts.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert turn for %q: %w", key, err)
	}
	return nil
}

// SetCustomerID records the resolved customer identifier.
func (s *Store) SetCustomerID(key, customerID string) error {
	return s.update(key, `UPDATE sessions SET customer_id = ?, updated_at = ? WHERE key = ?`, customerID)
}

// SetLastAgent records the agent that produced the latest reply.
func (s *Store) SetLastAgent(key, agent string) error {
	return s.update(key, `UPDATE sessions SET last_agent = ?, updated_at = ? WHERE key = ?`, agent)
}

// touch bumps updated_at and reports ErrSessionNotFound for unknown keys.
func (s *Store) touch(key string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET updated_at = ? WHERE key = ?`,
		time.Now().UTC().UnixNano(), key,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (s *Store) update(key, query, value string) error {
	res, err := s.db.Exec(query, value, time.Now().UTC().UnixNano(), key)
	if err != nil {
		return fmt.Errorf("update session %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("update session %q: %w", key, core.ErrSessionNotFound)
	}
	return nil
}
