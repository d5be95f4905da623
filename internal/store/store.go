// Package store is the server-side persistence layer: one SQLite database
// holding every user's snapshot (categories, tasks, blocks, selections), the
// per-user sync watermark, the panic event log, and the daily check-in logs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeLayout keeps full timestamp precision so a snapshot survives a
// write/read cycle bit-for-bit. time.Parse with plain RFC3339 accepts the
// fractional seconds RFC3339Nano emits.
const timeLayout = time.RFC3339Nano

type Store struct {
	db  *sql.DB
	loc *time.Location
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// loc is the fixed timezone used for calendar-day bucketing (date keys,
// repeat resets, stats series).
func New(dbPath string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, loc: loc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing, bucketing days in UTC.
func NewMemory() (*Store, error) {
	return New(":memory:", time.UTC)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the store's day-bucketing timezone.
func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		last_state_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(id),
		name            TEXT NOT NULL,
		sort_order      INTEGER NOT NULL DEFAULT 0,
		default_seconds INTEGER NOT NULL DEFAULT 1500
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id),
		category_id      TEXT NOT NULL,
		title            TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'PENDING',
		priority         INTEGER NOT NULL DEFAULT 2,
		sort_order       INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		due_at           TEXT,
		estimate_minutes INTEGER NOT NULL DEFAULT 0,
		repeat_cadence   TEXT NOT NULL DEFAULT 'NONE',
		repeat_time      TEXT NOT NULL DEFAULT '',
		selected_at      TEXT,
		completed_at     TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, category_id, sort_order);

	CREATE TABLE IF NOT EXISTS blocks (
		id                     TEXT PRIMARY KEY,
		user_id                TEXT NOT NULL REFERENCES users(id),
		category_id            TEXT NOT NULL,
		status                 TEXT NOT NULL,
		planned_seconds        INTEGER NOT NULL,
		actual_seconds         INTEGER,
		started_at             TEXT,
		ended_at               TEXT,
		end_reason             TEXT NOT NULL DEFAULT '',
		all_selected_completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_user ON blocks(user_id, started_at);

	CREATE TABLE IF NOT EXISTS selections (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		block_id   TEXT NOT NULL,
		task_id    TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		done_at    TEXT,
		UNIQUE(block_id, task_id)
	);

	CREATE TABLE IF NOT EXISTS panic_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id       TEXT NOT NULL REFERENCES users(id),
		category_id   TEXT,
		block_id      TEXT,
		urge          INTEGER,
		emotion       TEXT NOT NULL DEFAULT '',
		chosen_action TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_panic_user ON panic_events(user_id, created_at);

	CREATE TABLE IF NOT EXISTS daily_logs (
		user_id           TEXT NOT NULL REFERENCES users(id),
		date_key          TEXT NOT NULL,
		urge              INTEGER,
		energy            INTEGER,
		emotion           TEXT NOT NULL DEFAULT '',
		next_step         TEXT NOT NULL DEFAULT '',
		value_action_done INTEGER NOT NULL DEFAULT 0,
		next_step_task_id TEXT,
		PRIMARY KEY (user_id, date_key)
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/fokus/fokusd.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "fokus", "fokusd.db"), nil
}

func ensureUser(tx *sql.Tx, userID string, now time.Time) error {
	_, err := tx.Exec(
		`INSERT INTO users (id, last_state_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		userID, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("ensure user %q: %w", userID, err)
	}
	return nil
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// dateKey buckets an instant into the store's fixed-timezone calendar day.
func (s *Store) dateKey(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}
