// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leseb/pdf-columns/pkg/filestore"
)

func init() {
	filestore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (filestore.FileStore, error) {
		return New(), nil
	})
}

// compile-time check
var _ filestore.FileStore = (*Store)(nil)

// Store is an in-memory staging area.
type Store struct {
	mu    sync.RWMutex
	files map[string]*filestore.File
}

// New creates a new in-memory staging store.
func New() *Store {
	return &Store{
		files: make(map[string]*filestore.File),
	}
}

// Stage stores a file. Staging an ID twice is an error.
func (s *Store) Stage(_ context.Context, file *filestore.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.ID]; exists {
		return fmt.Errorf("staged file %s already exists", file.ID)
	}

	cp := *file
	cp.Content = append([]byte(nil), file.Content...)
	s.files[file.ID] = &cp
	return nil
}

// Stat returns file metadata (Content is nil).
func (s *Store) Stat(_ context.Context, fileID string) (*filestore.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.files[fileID]
	if !exists {
		return nil, fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
	}

	cp := *file
	cp.Content = nil
	return &cp, nil
}

// Content returns the staged bytes.
func (s *Store) Content(_ context.Context, fileID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.files[fileID]
	if !exists {
		return nil, fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
	}

	return file.Content, nil
}

// Remove deletes a staged file.
func (s *Store) Remove(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[fileID]; !exists {
		return fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
	}

	delete(s.files, fileID)
	return nil
}

// Sweep removes files staged before cutoff.
func (s *Store) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, file := range s.files {
		if file.StagedAt.Before(cutoff) {
			delete(s.files, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
