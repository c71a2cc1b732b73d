// Package sqlite provides SQLite-based storage implementations for
// propwatch services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait 5 seconds before failing on lock contention instead of
	// returning an immediate "database is locked" error.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode is faster for the write-heavy upsert workload and allows
	// concurrent reads during writes. Not supported for in-memory
	// databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// createSchema creates the database tables if they don't exist.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			canonical_url TEXT NOT NULL DEFAULT '',
			current_price REAL NOT NULL DEFAULT 0,
			purpose TEXT NOT NULL DEFAULT '',
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			first_page INTEGER NOT NULL DEFAULT 0,
			first_location TEXT NOT NULL DEFAULT '',
			last_page INTEGER NOT NULL DEFAULT 0,
			last_position INTEGER NOT NULL DEFAULT 0,
			last_location TEXT NOT NULL DEFAULT '',
			locations_seen TEXT NOT NULL DEFAULT '[]',
			appearances TEXT NOT NULL DEFAULT '[]',
			detail_scraped INTEGER NOT NULL DEFAULT 0,
			detail_scraped_at TEXT NOT NULL DEFAULT '',
			last_raw_item TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_listings_pending ON listings(detail_scraped, first_seen, id);

		CREATE TABLE IF NOT EXISTS details (
			listing_id TEXT PRIMARY KEY,
			url TEXT NOT NULL DEFAULT '',
			extraction_success INTEGER NOT NULL DEFAULT 0,
			bot_challenge INTEGER NOT NULL DEFAULT 0,
			extracted_data TEXT NOT NULL DEFAULT '{}',
			error TEXT NOT NULL DEFAULT '',
			scraped_at TEXT NOT NULL
		);
	`

	_, err := db.db.Exec(schema)
	return err
}
