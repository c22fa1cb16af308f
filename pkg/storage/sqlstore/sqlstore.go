// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore implements storage.Store on database/sql. The sqlite and
// postgres packages supply the driver and placeholder style.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/pdf-columns/pkg/storage"
)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	Name string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder func(n int) string
}

// compile-time check
var _ storage.Store = (*Store)(nil)

// Store is a database/sql-backed record store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database, creating the schema if needed. The Store
// takes ownership of db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	// created_at holds Unix nanoseconds so both backends order identically.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL DEFAULT '',
			bytes BIGINT NOT NULL DEFAULT 0,
			tolerance DOUBLE PRECISION NOT NULL,
			item_count INTEGER NOT NULL DEFAULT 0,
			column_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			duration_us BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_created ON extractions(created_at, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s create tables: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// binds returns n comma-separated placeholders starting at from.
func (s *Store) binds(from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = s.dialect.Placeholder(from + i)
	}
	return strings.Join(marks, ", ")
}

const columns = `id, filename, bytes, tolerance, item_count, column_count, status, error, duration_us, created_at`

// Append inserts a record.
func (s *Store) Append(ctx context.Context, rec *storage.Record) error {
	query := `INSERT INTO extractions (` + columns + `) VALUES (` + s.binds(1, 10) + `)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.Bytes, rec.Tolerance, rec.Items, rec.Columns,
		rec.Status, rec.Error, rec.Duration.Microseconds(), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%s append record: %w", s.dialect.Name, err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	query := `SELECT ` + columns + ` FROM extractions WHERE id = ` + s.dialect.Placeholder(1)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s get record: %w", s.dialect.Name, err)
	}
	return rec, nil
}

// List returns records with cursor-based pagination. An unknown cursor
// yields an empty page.
func (s *Store) List(ctx context.Context, after string, limit int, order string) ([]*storage.Record, bool, error) {
	limit = storage.ClampLimit(limit)

	dir, cmp := "DESC", "<"
	if order == "asc" {
		dir, cmp = "ASC", ">"
	}

	var (
		where string
		args  []any
	)
	if after != "" {
		cursor, err := s.Get(ctx, after)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return []*storage.Record{}, false, nil
			}
			return nil, false, err
		}
		p := s.dialect.Placeholder
		where = fmt.Sprintf(` WHERE (created_at %s %s OR (created_at = %s AND id %s %s))`, cmp, p(1), p(2), cmp, p(3))
		ts := cursor.CreatedAt.UnixNano()
		args = append(args, ts, ts, cursor.ID)
	}

	query := `SELECT ` + columns + ` FROM extractions` + where +
		fmt.Sprintf(` ORDER BY created_at %s, id %s LIMIT %d`, dir, dir, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("%s list records: %w", s.dialect.Name, err)
	}
	defer rows.Close()

	records := make([]*storage.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, false, fmt.Errorf("%s scan record: %w", s.dialect.Name, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("%s list records: %w", s.dialect.Name, err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	return records, hasMore, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*storage.Record, error) {
	var (
		rec        storage.Record
		durationUS int64
		createdAt  int64
	)
	err := row.Scan(&rec.ID, &rec.Filename, &rec.Bytes, &rec.Tolerance, &rec.Items, &rec.Columns,
		&rec.Status, &rec.Error, &durationUS, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationUS) * time.Microsecond
	rec.CreatedAt = time.Unix(0, createdAt)
	return &rec, nil
}
