// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore stages uploaded documents for the lifetime of a single
// request. Staged files are removed once the request finishes; Sweep clears
// anything left behind by a crashed process.
package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/pdf-columns/pkg/provider"
)

// ErrFileNotFound is returned when a staged file does not exist.
var ErrFileNotFound = errors.New("staged file not found")

// Providers is the registry of staging backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/pdf-columns/pkg/filestore/memory"
//	import _ "github.com/leseb/pdf-columns/pkg/filestore/filesystem"
//	import _ "github.com/leseb/pdf-columns/pkg/filestore/s3"
var Providers = provider.NewRegistry[FileStore]("staging")

// File is an uploaded document held in staging.
type File struct {
	ID       string
	Filename string
	MimeType string
	Bytes    int64
	Content  []byte // populated for Stage input; nil for Stat output
	StagedAt time.Time
}

// FileStore defines the interface for pluggable staging backends.
type FileStore interface {
	Stage(ctx context.Context, file *File) error
	Stat(ctx context.Context, fileID string) (*File, error)
	Content(ctx context.Context, fileID string) ([]byte, error)
	Remove(ctx context.Context, fileID string) error
	// Sweep removes files staged before the cutoff and reports how many went.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	Close(ctx context.Context) error
}
