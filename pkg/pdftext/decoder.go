// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// compile-time check
var _ Decoder = (*PDFDecoder)(nil)

// PDFDecoder reads page content streams with github.com/ledongthuc/pdf.
// It holds no state and is safe for concurrent use.
type PDFDecoder struct{}

// NewDecoder creates a PDFDecoder.
func NewDecoder() *PDFDecoder {
	return &PDFDecoder{}
}

// FirstPage opens the document and returns the glyphs of page 1.
func (d *PDFDecoder) FirstPage(content []byte) ([]Glyph, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open PDF: %w", ErrDocumentParse, err)
	}

	if reader.NumPage() < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrPageNotFound)
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: page 1", ErrPageNotFound)
	}

	texts := page.Content().Text
	glyphs := make([]Glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, Glyph{
			Font:     strings.TrimSpace(t.Font),
			FontSize: t.FontSize,
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			S:        t.S,
		})
	}
	return glyphs, nil
}
