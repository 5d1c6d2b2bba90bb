// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// SQL is a durable Store over a single record table (see db.CreateSchema).
// The same statements run on PostgreSQL and SQLite.
type SQL struct {
	db  *sql.DB
	seq atomic.Uint64
}

// NewSQL wraps an open database whose schema has already been created.
func NewSQL(ctx context.Context, db *sql.DB) (*SQL, error) {
	s := &SQL{db: db}

	var maxSeq int64
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM record`).Scan(&maxSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to read record sequence: %w", err)
	}
	s.seq.Store(uint64(maxSeq))

	return s, nil
}

func (s *SQL) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&sqlTx{s: s, ctx: ctx, tx: tx})
}

func (s *SQL) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{s: s, ctx: ctx, tx: tx, writable: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	s        *SQL
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

func (t *sqlTx) Get(b Bucket, key string) ([]byte, error) {
	var value string
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT value FROM record WHERE bucket = $1 AND record_key = $2
	`, string(b), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s/%s: %w", b, key, err)
	}
	return []byte(value), nil
}

func (t *sqlTx) Put(b Bucket, partition, key string, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}

	// seq is only consumed by inserts; ON CONFLICT keeps the original.
	seq := t.s.seq.Add(1)
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO record (bucket, part, record_key, seq, value, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (bucket, record_key) DO UPDATE SET
			part = EXCLUDED.part,
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, string(b), partition, key, int64(seq), string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", b, key, err)
	}
	return nil
}

func (t *sqlTx) Scan(b Bucket, partition string, fn func(key string, value []byte) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	if partition == "" {
		rows, err = t.tx.QueryContext(t.ctx, `
			SELECT record_key, value FROM record
			WHERE bucket = $1
			ORDER BY seq
		`, string(b))
	} else {
		rows, err = t.tx.QueryContext(t.ctx, `
			SELECT record_key, value FROM record
			WHERE bucket = $1 AND part = $2
			ORDER BY seq
		`, string(b), partition)
	}
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", b, err)
	}

	type row struct {
		key   string
		value string
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.value); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s row: %w", b, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to scan %s: %w", b, err)
	}
	rows.Close()

	for _, r := range all {
		if err := fn(r.key, []byte(r.value)); err != nil {
			return err
		}
	}
	return nil
}
