// Package database is the hosted service's row store: sqlite tables for
// profiles, columns, tasks, agenda events and day notes, one row per entity.
package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	pin      TEXT NOT NULL DEFAULT '',
	avatar   TEXT NOT NULL DEFAULT '',
	settings TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS columns (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	title      TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_columns_profile ON columns(profile_id);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	column_id  TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_profile ON tasks(profile_id);
CREATE INDEX IF NOT EXISTS idx_tasks_column  ON tasks(column_id);

CREATE TABLE IF NOT EXISTS agenda_events (
	id           TEXT PRIMARY KEY,
	profile_id   TEXT NOT NULL REFERENCES profiles(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	start_time   TEXT NOT NULL,
	end_time     TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	is_completed INTEGER NOT NULL DEFAULT 0,
	priority     TEXT NOT NULL DEFAULT 'low'
);
CREATE INDEX IF NOT EXISTS idx_events_profile ON agenda_events(profile_id);

CREATE TABLE IF NOT EXISTS day_notes (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	date       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	UNIQUE(profile_id, date)
);
`

// Open opens (or creates) the sqlite database at path and ensures the schema.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// OpenMemory opens an in-memory database for tests.
func OpenMemory() (*sqlx.DB, error) {
	return Open(":memory:")
}

// Store handles database operations for board data.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}
