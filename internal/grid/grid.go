// Package grid turns a query result of arbitrary JSON records into a
// header/rows table.
//
// The first record decides the columns. Keys that only appear in later
// records are dropped, and keys a later record lacks become empty cells:
// the result set is assumed to be uniform, not checked.
package grid

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbassist/internal/ordered"
)

// NoResultsText is shown in place of an empty grid.
const NoResultsText = "No results found."

// Grid is a rendered result set.
type Grid struct {
	// Keys are the record keys, in first-record order.
	Keys []string
	// Headers are Keys formatted for display.
	Headers []string
	// Rows hold one stringified cell per key.
	Rows [][]string
}

// Empty reports whether the grid is the no-results view. A grid of records
// without keys has rows, so it is not empty.
func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// Render builds a Grid from a raw result. Anything other than a non-empty
// array whose first element is an object renders as the no-results grid.
// A first record of {} gives no columns but still one row per record.
func Render(raw json.RawMessage) Grid {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil || len(records) == 0 {
		return Grid{}
	}

	first, err := ordered.Decode(records[0])
	if err != nil {
		return Grid{}
	}

	keys := first.Keys()
	g := Grid{
		Keys:    keys,
		Headers: make([]string, len(keys)),
		Rows:    make([][]string, 0, len(records)),
	}
	for i, k := range keys {
		g.Headers[i] = DisplayHeader(k)
	}

	for i, rec := range records {
		obj := first
		if i > 0 {
			// Non-object rows have no keys to look up; every cell is missing.
			obj, _ = ordered.Decode(rec)
		}
		row := make([]string, len(keys))
		for j, k := range keys {
			if v, ok := obj.Get(k); ok {
				row[j] = Cell(v)
			}
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// DisplayHeader formats a key for display: underscores become spaces.
func DisplayHeader(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// Cell stringifies one JSON value. Strings are unquoted, null is "null",
// and objects or arrays are compact JSON. Numbers go through Number.
func Cell(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return Number(string(trimmed))
	}
	return string(trimmed)
}

// Number formats a JSON number literal in its shortest plain form, so 10.0
// is "10" and 1e2 is "100". Integer literals stay verbatim to keep digits a
// float64 cannot hold, as do magnitudes outside [1e-6, 1e21).
func Number(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
