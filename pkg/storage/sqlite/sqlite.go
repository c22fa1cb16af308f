// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leseb/pdf-columns/pkg/storage"
	"github.com/leseb/pdf-columns/pkg/storage/sqlstore"

	_ "modernc.org/sqlite"
)

func init() {
	storage.Providers.Register("sqlite", func(ctx context.Context, params map[string]string) (storage.Store, error) {
		return New(ctx, params["dsn"])
	})
}

var dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
}

// New opens a SQLite record store. dsn is a file path or ":memory:".
func New(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s, err := sqlstore.New(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
