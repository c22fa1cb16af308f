// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leseb/pdf-columns/pkg/storage"
)

func init() {
	storage.Providers.Register("memory", func(_ context.Context, _ map[string]string) (storage.Store, error) {
		return New(), nil
	})
}

// compile-time check
var _ storage.Store = (*Store)(nil)

// Store is an in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.Record
}

// New creates a new in-memory record store.
func New() *Store {
	return &Store{
		records: make(map[string]*storage.Record),
	}
}

// Append stores a record. Appending an existing ID is an error.
func (s *Store) Append(_ context.Context, rec *storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s already exists", rec.ID)
	}

	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get returns a copy of the record with the given ID.
func (s *Store) Get(_ context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

// List returns records with cursor-based pagination.
func (s *Store) List(_ context.Context, after string, limit int, order string) ([]*storage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = storage.ClampLimit(limit)

	all := make([]*storage.Record, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if order == "asc" {
			return storage.Less(all[i], all[j])
		}
		return storage.Less(all[j], all[i])
	})

	start := 0
	if after != "" {
		start = len(all)
		for i, rec := range all {
			if rec.ID == after {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]*storage.Record, 0, end-start)
	for _, rec := range all[start:end] {
		cp := *rec
		page = append(page, &cp)
	}
	return page, end < len(all), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
