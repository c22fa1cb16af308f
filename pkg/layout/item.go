// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package layout groups positioned text items into column-like buckets.
package layout

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Item is one run of text as reported by a page's content stream.
// Y is in native PDF space (origin bottom-left).
type Item struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ColumnKey is an x-coordinate rounded to a multiple of the tolerance.
type ColumnKey float64

// String returns the shortest decimal form of the key ("0", "40", "37.5").
func (k ColumnKey) String() string {
	return strconv.FormatFloat(float64(k), 'f', -1, 64)
}

// ColumnMap maps column keys to the items assigned to them, in encounter order.
type ColumnMap map[ColumnKey][]Item

// Keys returns the map's keys in ascending order.
func (m ColumnMap) Keys() []ColumnKey {
	keys := make([]ColumnKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the total number of items across all columns.
func (m ColumnMap) Len() int {
	n := 0
	for _, items := range m {
		n += len(items)
	}
	return n
}

// MarshalJSON writes the map as a JSON object with string keys in ascending
// numeric order. encoding/json would otherwise sort "120" before "40".
func (m ColumnMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k.String())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		items := m[k]
		if items == nil {
			items = []Item{}
		}
		val, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
