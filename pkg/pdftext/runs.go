// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package pdftext

import (
	"math"
	"strings"

	"github.com/leseb/pdf-columns/pkg/layout"
)

const (
	// baselineTolerance is the largest y difference between glyphs of one run.
	baselineTolerance = 0.5
	// overlapTolerance allows small backward steps from rounding in the text matrix.
	overlapTolerance = 0.5
	// maxGapRatio is the largest gap, as a fraction of font size, bridged inside a run.
	maxGapRatio = 0.3
)

// Runs merges consecutive glyphs into text runs. A glyph continues the
// current run when it shares font and size, sits on the same baseline and
// starts within a short gap of the run's end; otherwise it starts a new run.
// Font sizes are taken as magnitudes, since mirrored or rotated text matrices
// report them negative.
func Runs(glyphs []Glyph) []layout.Item {
	items := make([]layout.Item, 0)

	var (
		sb      strings.Builder
		cur     Glyph
		end     float64
		started bool
	)
	flush := func() {
		if !started {
			return
		}
		items = append(items, layout.Item{
			Text:   sb.String(),
			X:      cur.X,
			Y:      cur.Y,
			Width:  end - cur.X,
			Height: math.Abs(cur.FontSize),
		})
		sb.Reset()
		started = false
	}

	for _, g := range glyphs {
		if started && continues(cur, end, g) {
			sb.WriteString(g.S)
			end = math.Max(end, g.X+g.W)
			continue
		}
		flush()
		cur = g
		end = g.X + g.W
		sb.WriteString(g.S)
		started = true
	}
	flush()

	return items
}

func continues(run Glyph, end float64, g Glyph) bool {
	if g.Font != run.Font || g.FontSize != run.FontSize {
		return false
	}
	if math.Abs(g.Y-run.Y) > baselineTolerance {
		return false
	}
	gap := g.X - end
	return gap >= -overlapTolerance && gap <= maxGapRatio*math.Abs(g.FontSize)
}
