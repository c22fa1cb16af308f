// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage keeps a metadata-only log of extraction requests.
// Uploaded document bytes are never written here.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/pdf-columns/pkg/provider"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Record statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Providers is the registry of record store backends.
//
//	import _ "github.com/leseb/pdf-columns/pkg/storage/memory"
//	import _ "github.com/leseb/pdf-columns/pkg/storage/sqlite"
//	import _ "github.com/leseb/pdf-columns/pkg/storage/postgres"
var Providers = provider.NewRegistry[Store]("records")

// Record describes one processed upload.
type Record struct {
	ID        string
	Filename  string
	Bytes     int64
	Tolerance float64
	Items     int // items retained in the column map
	Columns   int
	Status    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store persists extraction records.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List pages through records ordered by CreatedAt (then ID). order is
	// "asc" or "desc"; after is the ID of the last record of the previous page.
	List(ctx context.Context, after string, limit int, order string) ([]*Record, bool, error)
	Close(ctx context.Context) error
}

// Less orders records by CreatedAt, then ID.
func Less(a, b *Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// ClampLimit keeps page sizes within 1..100, defaulting to 20.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
