// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package storagetest provides a shared conformance test suite for
// storage.Store implementations.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leseb/pdf-columns/pkg/storage"
)

func newRecord(id string, createdAt time.Time) *storage.Record {
	return &storage.Record{
		ID:        id,
		Filename:  id + ".pdf",
		Bytes:     1024,
		Tolerance: 40,
		Items:     12,
		Columns:   3,
		Status:    storage.StatusSucceeded,
		Duration:  250 * time.Millisecond,
		CreatedAt: createdAt,
	}
}

func ids(records []*storage.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// RunConformanceTests exercises a Store implementation against the shared
// contract. newStore is called once per sub-test.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("AppendAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		rec := newRecord("rec_abc", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		rec.Status = storage.StatusFailed
		rec.Error = "document parse error: not a PDF"
		rec.Tolerance = 12.5
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}

		got, err := store.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != rec.ID || got.Filename != rec.Filename || got.Bytes != rec.Bytes ||
			got.Tolerance != rec.Tolerance || got.Items != rec.Items || got.Columns != rec.Columns ||
			got.Status != rec.Status || got.Error != rec.Error || got.Duration != rec.Duration {
			t.Errorf("Get returned %+v, want %+v", got, rec)
		}
		if !got.CreatedAt.Equal(rec.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())

		_, err := store.Get(context.Background(), "rec_missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicateAppend", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		rec := newRecord("rec_dup", time.Now())
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("first Append: %v", err)
		}
		if err := store.Append(ctx, rec); err == nil {
			t.Error("expected error on duplicate ID")
		}
	})

	t.Run("ListPaginated", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			rec := newRecord(fmt.Sprintf("rec_%d", i), base.Add(time.Duration(i)*time.Second))
			if err := store.Append(ctx, rec); err != nil {
				t.Fatalf("Append[%d]: %v", i, err)
			}
		}

		all, hasMore, err := store.List(ctx, "", 10, "asc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := fmt.Sprint(ids(all)); got != "[rec_0 rec_1 rec_2 rec_3 rec_4]" {
			t.Errorf("asc order = %s", got)
		}
		if hasMore {
			t.Error("expected hasMore=false")
		}

		page, hasMore, err := store.List(ctx, "", 2, "desc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := fmt.Sprint(ids(page)); got != "[rec_4 rec_3]" {
			t.Errorf("first desc page = %s", got)
		}
		if !hasMore {
			t.Error("expected hasMore=true")
		}

		page, hasMore, err = store.List(ctx, "rec_3", 2, "desc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := fmt.Sprint(ids(page)); got != "[rec_2 rec_1]" {
			t.Errorf("second desc page = %s", got)
		}
		if !hasMore {
			t.Error("expected hasMore=true on second page")
		}

		page, hasMore, err = store.List(ctx, "rec_1", 2, "desc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := fmt.Sprint(ids(page)); got != "[rec_0]" {
			t.Errorf("last desc page = %s", got)
		}
		if hasMore {
			t.Error("expected hasMore=false on last page")
		}
	})

	t.Run("ListSameTimestamp", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for _, id := range []string{"rec_b", "rec_a", "rec_c"} {
			if err := store.Append(ctx, newRecord(id, ts)); err != nil {
				t.Fatalf("Append(%s): %v", id, err)
			}
		}

		first, _, err := store.List(ctx, "", 2, "asc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		rest, _, err := store.List(ctx, first[len(first)-1].ID, 2, "asc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := fmt.Sprint(ids(append(first, rest...))); got != "[rec_a rec_b rec_c]" {
			t.Errorf("ties ordered as %s, want by ID", got)
		}
	})

	t.Run("ListUnknownCursor", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if err := store.Append(ctx, newRecord("rec_x", time.Now())); err != nil {
			t.Fatalf("Append: %v", err)
		}
		page, hasMore, err := store.List(ctx, "rec_nope", 10, "desc")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(page) != 0 || hasMore {
			t.Errorf("expected empty page for unknown cursor, got %v hasMore=%v", ids(page), hasMore)
		}
	})
}
