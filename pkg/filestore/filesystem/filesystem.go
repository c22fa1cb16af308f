// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leseb/pdf-columns/pkg/filestore"
)

func init() {
	filestore.Providers.Register("filesystem", func(_ context.Context, params map[string]string) (filestore.FileStore, error) {
		return New(params["base_dir"])
	})
}

// compile-time check
var _ filestore.FileStore = (*Store)(nil)

// DefaultBaseDir is used when no base directory is configured.
var DefaultBaseDir = filepath.Join(os.TempDir(), "pdf-columns")

// fileMetadata is the on-disk representation stored in metadata.json.
type fileMetadata struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mime_type"`
	Bytes    int64     `json:"bytes"`
	StagedAt time.Time `json:"staged_at"`
}

// Store implements filestore.FileStore on a local directory.
//
// Layout:
//
//	<baseDir>/<file_id>/content        uploaded bytes
//	<baseDir>/<file_id>/metadata.json  JSON metadata sidecar
type Store struct {
	baseDir string
}

// New creates a filesystem-backed Store, creating baseDir if it does not exist.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the directory files are staged under.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Stage writes the content and metadata to disk, each via temp file + rename.
func (s *Store) Stage(_ context.Context, file *filestore.File) error {
	dir := filepath.Join(s.baseDir, file.ID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create file dir: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, "content"), file.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	meta := fileMetadata{
		ID:       file.ID,
		Filename: file.Filename,
		MimeType: file.MimeType,
		Bytes:    file.Bytes,
		StagedAt: file.StagedAt,
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "metadata.json"), metaBytes); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// Stat returns file metadata (Content is nil).
func (s *Store) Stat(_ context.Context, fileID string) (*filestore.File, error) {
	meta, err := s.readMetadata(fileID)
	if err != nil {
		return nil, err
	}
	return meta.file(), nil
}

// Content returns the staged bytes.
func (s *Store) Content(_ context.Context, fileID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, fileID, "content"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read content: %w", err)
	}
	return data, nil
}

// Remove deletes the file directory and everything in it.
func (s *Store) Remove(_ context.Context, fileID string) error {
	dir := filepath.Join(s.baseDir, fileID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
		}
		return fmt.Errorf("stat file dir: %w", err)
	}
	return os.RemoveAll(dir)
}

// Sweep removes staged directories older than cutoff. Directories without
// readable metadata fall back to their modification time.
func (s *Store) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read base dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		var stagedAt time.Time
		if meta, err := s.readMetadata(entry.Name()); err == nil {
			stagedAt = meta.StagedAt
		} else if info, err := entry.Info(); err == nil {
			stagedAt = info.ModTime()
		} else {
			continue
		}

		if !stagedAt.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.baseDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) readMetadata(fileID string) (*fileMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, fileID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s: %w", fileID, filestore.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta fileMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata for %s: %w", fileID, err)
	}
	return &meta, nil
}

func (m *fileMetadata) file() *filestore.File {
	return &filestore.File{
		ID:       m.ID,
		Filename: m.Filename,
		MimeType: m.MimeType,
		Bytes:    m.Bytes,
		StagedAt: m.StagedAt,
	}
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
