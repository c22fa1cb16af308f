// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"time"

	"github.com/leseb/pdf-columns/pkg/storage"
)

// Extraction describes one processed upload
type Extraction struct {
	ID          string  `json:"id"`                              // Extraction ID (UUID)
	Object      string  `json:"object" enums:"extraction"`       // Always "extraction"
	Filename    string  `json:"filename"`                        // Uploaded filename
	Bytes       int64   `json:"bytes"`                           // Upload size in bytes
	Tolerance   float64 `json:"tolerance"`                       // Column width used
	ItemCount   int     `json:"item_count"`                      // Items in the column map
	ColumnCount int     `json:"column_count"`                    // Distinct column keys
	Status      string  `json:"status" enums:"succeeded,failed"` // Outcome
	Error       string  `json:"error,omitempty"`                 // Failure detail
	DurationMS  float64 `json:"duration_ms"`                     // Processing time
	CreatedAt   int64   `json:"created_at"`                      // Unix timestamp
}

// ListExtractionsResponse represents a paginated list of extractions
type ListExtractionsResponse struct {
	Object  string       `json:"object"`             // Always "list"
	Data    []Extraction `json:"data"`               // Array of extractions
	FirstID string       `json:"first_id,omitempty"` // ID of first item
	LastID  string       `json:"last_id,omitempty"`  // ID of last item
	HasMore bool         `json:"has_more"`           // Whether there are more results
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ExtractionFromRecord converts a stored record to its API form.
func ExtractionFromRecord(rec *storage.Record) Extraction {
	return Extraction{
		ID:          rec.ID,
		Object:      "extraction",
		Filename:    rec.Filename,
		Bytes:       rec.Bytes,
		Tolerance:   rec.Tolerance,
		ItemCount:   rec.Items,
		ColumnCount: rec.Columns,
		Status:      rec.Status,
		Error:       rec.Error,
		DurationMS:  float64(rec.Duration) / float64(time.Millisecond),
		CreatedAt:   rec.CreatedAt.Unix(),
	}
}
