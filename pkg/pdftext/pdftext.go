// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdftext extracts positioned text runs from the first page of a PDF.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/leseb/pdf-columns/pkg/layout"
)

var (
	// ErrDocumentParse is returned when the buffer cannot be decoded as a PDF.
	ErrDocumentParse = errors.New("document parse error")
	// ErrPageNotFound is returned when the document has no first page.
	ErrPageNotFound = errors.New("page not found")
)

// Glyph is a single shown character with its text-space placement.
type Glyph struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// Decoder returns the glyphs of a document's first page in content-stream order.
// Implementations return ErrPageNotFound for documents without pages.
type Decoder interface {
	FirstPage(content []byte) ([]Glyph, error)
}

// Extractor turns PDF bytes into layout items using an injected Decoder.
type Extractor struct {
	decoder Decoder
}

// New creates an Extractor. A nil decoder selects the ledongthuc/pdf decoder.
func New(decoder Decoder) *Extractor {
	if decoder == nil {
		decoder = NewDecoder()
	}
	return &Extractor{decoder: decoder}
}

type decodeResult struct {
	glyphs []Glyph
	err    error
}

// Extract decodes content and returns the first page's text runs.
// Decoding runs on its own goroutine; if ctx ends first, ctx.Err() is
// returned and the decode result is discarded.
func (e *Extractor) Extract(ctx context.Context, content []byte) ([]layout.Item, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrDocumentParse)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan decodeResult, 1)
	go func() {
		glyphs, err := e.decode(content)
		done <- decodeResult{glyphs: glyphs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return Runs(res.glyphs), nil
	}
}

// decode shields callers from panics raised by malformed content streams.
func (e *Extractor) decode(content []byte) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = fmt.Errorf("%w: %v", ErrDocumentParse, r)
		}
	}()

	glyphs, err = e.decoder.FirstPage(content)
	if err != nil {
		if !errors.Is(err, ErrPageNotFound) && !errors.Is(err, ErrDocumentParse) {
			err = fmt.Errorf("%w: %w", ErrDocumentParse, err)
		}
		return nil, err
	}
	if err := checkFinite(glyphs); err != nil {
		return nil, err
	}
	return glyphs, nil
}

// checkFinite rejects glyphs whose placement overflowed the text matrix.
func checkFinite(glyphs []Glyph) error {
	for i, g := range glyphs {
		for _, v := range [...]float64{g.X, g.Y, g.W, g.FontSize} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: glyph %d %q has non-finite geometry (x=%v y=%v w=%v size=%v)",
					ErrDocumentParse, i, g.S, g.X, g.Y, g.W, g.FontSize)
			}
		}
	}
	return nil
}
