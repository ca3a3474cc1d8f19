// Package db provides the SQLite event history store for ClawMonitor.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps *sql.DB and provides migration support.
type DB struct {
	*sql.DB
}

// New opens a SQLite connection with WAL mode enabled.
// Driver name is "sqlite" (modernc.org/sqlite, not mattn/go-sqlite3).
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("db.New: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db.New: ping: %w", err)
	}
	// Limit to 1 writer at a time to avoid SQLITE_BUSY in WAL mode.
	sqlDB.SetMaxOpenConns(1)
	return &DB{sqlDB}, nil
}

const schemaVersion = 1

// Migrate runs all CREATE TABLE IF NOT EXISTS migrations exactly once per
// schema version.
func (d *DB) Migrate() error {
	if _, err := d.Exec(ddlSettings); err != nil {
		return fmt.Errorf("db.Migrate: settings table: %w", err)
	}

	var version int
	row := d.QueryRow(`SELECT value FROM settings WHERE key='schema_version' LIMIT 1`)
	_ = row.Scan(&version) // Ignore scan error — row may not exist yet (version=0).

	if version >= schemaVersion {
		return nil
	}

	if _, err := d.Exec(ddlEvents); err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	_, err := d.Exec(`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, schemaVersion)
	if err != nil {
		return fmt.Errorf("db.Migrate: schema_version upsert: %w", err)
	}
	return nil
}

// Event is one recorded monitor occurrence: a detection, switch, restore,
// or a failure of one of those.
type Event struct {
	ID        int       `json:"id"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds.
const (
	EventDetect        = "detect"
	EventSwitch        = "switch"
	EventSwitchFailed  = "switch_failed"
	EventRestore       = "restore"
	EventRestoreFailed = "restore_failed"
)

const ddlSettings = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);`

const ddlEvents = `CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT    NOT NULL,
	model      TEXT    NOT NULL DEFAULT '',
	detail     TEXT    NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// RecordEvent inserts an event row. Best-effort: failures are swallowed so
// history bookkeeping can never break a switch or restore.
func (d *DB) RecordEvent(kind, model, detail string) {
	_, _ = d.Exec(
		`INSERT INTO events (kind, model, detail) VALUES (?,?,?)`,
		kind, model, detail,
	)
}

// RecentEvents returns the newest n events, newest first.
func (d *DB) RecentEvents(n int) ([]Event, error) {
	rows, err := d.Query(
		`SELECT id, kind, model, detail, created_at FROM events ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("db.RecentEvents: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Model, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db.RecentEvents: scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
