// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTolerance is the column width, in page units, used when none is configured.
const DefaultTolerance = 40.0

// ErrInvalidTolerance is returned for a tolerance that is not a positive finite number.
var ErrInvalidTolerance = errors.New("tolerance must be a positive number")

// ValidateTolerance reports whether tolerance can be used as a bucket width.
func ValidateTolerance(tolerance float64) error {
	if tolerance <= 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, tolerance)
	}
	return nil
}

// KeyFor rounds x to the nearest multiple of tolerance. Halves round up
// (toward +Inf), so -20 with tolerance 40 lands on 0, not -40.
func KeyFor(x, tolerance float64) ColumnKey {
	k := math.Floor(x/tolerance+0.5) * tolerance
	if k == 0 {
		// normalise -0
		k = 0
	}
	return ColumnKey(k)
}

// Cluster assigns items to columns keyed by KeyFor(item.X, tolerance).
// Items whose text is exactly "" or exactly " " are dropped; everything else,
// including other whitespace such as "  ", is kept. Items sharing a key keep
// their input order.
func Cluster(items []Item, tolerance float64) (ColumnMap, error) {
	if err := ValidateTolerance(tolerance); err != nil {
		return nil, err
	}

	columns := make(ColumnMap)
	for _, item := range items {
		if skip(item.Text) {
			continue
		}
		key := KeyFor(item.X, tolerance)
		columns[key] = append(columns[key], item)
	}
	return columns, nil
}

func skip(text string) bool {
	return text == "" || text == " "
}
