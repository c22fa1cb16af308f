// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/pdf-columns/pkg/layout"
	"github.com/leseb/pdf-columns/pkg/observability/logging"
	"github.com/leseb/pdf-columns/pkg/storage"
)

// TextExtractor returns the positioned text items of a document.
type TextExtractor interface {
	Extract(ctx context.Context, content []byte) ([]layout.Item, error)
}

// Upload is one document to process.
type Upload struct {
	Filename string
	Content  []byte
	// Tolerance overrides the service default when positive.
	Tolerance float64
}

// Result is the outcome of a successful extraction.
type Result struct {
	ID        string
	Columns   layout.ColumnMap
	Extracted int // items reported by the extractor, before filtering
	Tolerance float64
	Duration  time.Duration
}

// ColumnService runs extraction and clustering and logs each run to the
// record store.
type ColumnService struct {
	extractor TextExtractor
	records   storage.Store
	tolerance float64
	logger    *logging.Logger
	now       func() time.Time
}

// NewColumnService creates a ColumnService. records may be nil, in which
// case nothing is logged to a store.
func NewColumnService(extractor TextExtractor, records storage.Store, tolerance float64, logger *logging.Logger) *ColumnService {
	if tolerance <= 0 {
		tolerance = layout.DefaultTolerance
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ColumnService{
		extractor: extractor,
		records:   records,
		tolerance: tolerance,
		logger:    logger,
		now:       time.Now,
	}
}

// Tolerance returns the default column tolerance.
func (s *ColumnService) Tolerance() float64 {
	return s.tolerance
}

// Process extracts the document's first-page text and groups it into columns.
func (s *ColumnService) Process(ctx context.Context, up Upload) (*Result, error) {
	tolerance := s.tolerance
	if up.Tolerance != 0 {
		tolerance = up.Tolerance
	}

	id := uuid.NewString()
	start := s.now()

	columns, extracted, err := s.run(ctx, up.Content, tolerance)
	duration := s.now().Sub(start)

	rec := &storage.Record{
		ID:        id,
		Filename:  up.Filename,
		Bytes:     int64(len(up.Content)),
		Tolerance: tolerance,
		Duration:  duration,
		CreatedAt: start,
	}
	if err != nil {
		rec.Status = storage.StatusFailed
		rec.Error = err.Error()
	} else {
		rec.Status = storage.StatusSucceeded
		rec.Items = columns.Len()
		rec.Columns = len(columns)
	}
	s.record(ctx, rec)

	if err != nil {
		return nil, err
	}
	return &Result{
		ID:        id,
		Columns:   columns,
		Extracted: extracted,
		Tolerance: tolerance,
		Duration:  duration,
	}, nil
}

func (s *ColumnService) run(ctx context.Context, content []byte, tolerance float64) (layout.ColumnMap, int, error) {
	if err := layout.ValidateTolerance(tolerance); err != nil {
		return nil, 0, err
	}
	items, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return nil, 0, err
	}
	columns, err := layout.Cluster(items, tolerance)
	if err != nil {
		return nil, 0, err
	}
	return columns, len(items), nil
}

// record appends rec, logging rather than returning store failures.
func (s *ColumnService) record(ctx context.Context, rec *storage.Record) {
	if s.records == nil {
		return
	}
	if err := s.records.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("Failed to append extraction record", "record_id", rec.ID, "error", err)
	}
}

// GetRecord returns a stored extraction record.
func (s *ColumnService) GetRecord(ctx context.Context, id string) (*storage.Record, error) {
	if s.records == nil {
		return nil, storage.ErrNotFound
	}
	return s.records.Get(ctx, id)
}

// ListRecords pages through stored extraction records.
func (s *ColumnService) ListRecords(ctx context.Context, after string, limit int, order string) ([]*storage.Record, bool, error) {
	if s.records == nil {
		return []*storage.Record{}, false, nil
	}
	return s.records.List(ctx, after, limit, order)
}
