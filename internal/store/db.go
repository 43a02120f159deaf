// Package store persists calculation runs: a sqlite results database
// keyed by run id, with the full scenario breakdowns packed as msgpack
// blobs. Scalars are stored as columns so runs can be listed and
// compared without unpacking.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DB wraps the results database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (and if needed creates) the results database with WAL mode
// and the engine's PRAGMA profile.
func Open(path string) (*DB, error) {
	if !strings.HasPrefix(path, "file:") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve results database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create results database directory: %w", err)
		}
		path = absPath
	}

	conn, err := sql.Open("sqlite", connectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping results database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// connectionString builds the sqlite DSN with the store's PRAGMAs.
func connectionString(path string) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	connStr += "&_pragma=synchronous(NORMAL)"
	connStr += "&_pragma=temp_store(MEMORY)"
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=cache_size(-64000)"
	return connStr
}

// migrate creates the runs table.
func (d *DB) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS calculation_runs (
	run_id          TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	analysis_date   TEXT NOT NULL,
	currency        TEXT NOT NULL,
	base_eve        REAL NOT NULL,
	base_nii        REAL NOT NULL,
	worst_scenario  TEXT NOT NULL,
	worst_delta_eve REAL NOT NULL,
	result          BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON calculation_runs(created_at);
`
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate results database: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
