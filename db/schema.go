// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// Open connects to the database for the given type and verifies the
// connection.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite:
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps
	// ":memory:" databases from splitting across connections.
	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Records, one row per (bucket, key)
CREATE TABLE IF NOT EXISTS record (
    bucket TEXT NOT NULL,
    part TEXT NOT NULL DEFAULT '',
    record_key TEXT NOT NULL,
    seq BIGINT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (bucket, record_key)
);

CREATE INDEX IF NOT EXISTS idx_record_bucket_seq ON record(bucket, seq);
CREATE INDEX IF NOT EXISTS idx_record_part ON record(bucket, part, seq);
`
