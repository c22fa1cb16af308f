// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdftexttest builds small, well-formed PDF documents for tests.
package pdftexttest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Text is a string shown at (X, Y) in Helvetica at Size points.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// OnePage returns a single-page PDF showing each text in order.
func OnePage(texts ...Text) []byte {
	var cs strings.Builder
	for _, t := range texts {
		size := t.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&cs, "BT /F1 %s Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n",
			num(size), num(t.X), num(t.Y), escape(t.S))
	}
	return Page(cs.String())
}

// Page returns a single-page PDF whose content stream is stream verbatim,
// with Helvetica available as /F1.
func Page(stream string) []byte {
	return build([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	})
}

// Overflow returns a syntactically valid page whose text lands at an x that
// overflows float64: a 1e200 horizontal scale in the CTM times a 1e200
// offset in the text matrix.
func Overflow() []byte {
	huge := "1" + strings.Repeat("0", 200) + ".5"
	return Page(fmt.Sprintf("%s 0 0 1 0 0 cm\nBT /F1 12 Tf 1 0 0 1 %s 700 Tm (Total) Tj ET\n", huge, huge))
}

// NoPages returns a well-formed PDF whose page tree is empty.
func NoPages() []byte {
	return build([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	})
}

// build lays out numbered objects and writes a matching xref table.
func build(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
