package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQLite connection used by the assignment engine.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// dateFormat is how calendar dates are stored.
const dateFormat = "2006-01-02"

// NewDB opens (creating if needed) the database and ensures the schema.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout keep the scheduler's read-then-write cycles
	// from tripping over the synchronous booking path.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return instance, nil
}

func (db *DB) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
			number INTEGER NOT NULL,
			capacity INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
			party_size INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'pending',
			table_id INTEGER REFERENCES tables(id),
			assigned_at TIMESTAMP,
			assignment_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_restaurant_date ON bookings(restaurant_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_unassigned ON bookings(status, table_id)`,
		`CREATE TABLE IF NOT EXISTS opening_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
			weekday INTEGER NOT NULL,
			is_open INTEGER NOT NULL DEFAULT 0,
			open_time TEXT NOT NULL DEFAULT '',
			close_time TEXT NOT NULL DEFAULT '',
			UNIQUE(restaurant_id, weekday)
		)`,
		`CREATE TABLE IF NOT EXISTS special_periods (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			is_open INTEGER NOT NULL DEFAULT 0,
			open_time TEXT NOT NULL DEFAULT '',
			close_time TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS cutoff_times (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
			weekday INTEGER,
			hours INTEGER NOT NULL DEFAULT 0,
			minutes INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS assignment_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			booking_id INTEGER NOT NULL,
			restaurant_id INTEGER NOT NULL,
			table_id INTEGER NOT NULL DEFAULT 0,
			assignment_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}
