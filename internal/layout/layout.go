// =============================================================================
// Picking Reports - Grouped Layout Builder
// =============================================================================
//
// This package describes how an aggregated table is laid out in a workbook.
// It never touches a workbook itself: writers consume its plans.
//
// PLANS:
//   BuildSpans run-length encodes repeated values per mergeable column, so a
//   writer can merge the cells of each span.
//
// SHEETS:
//   PartitionBySheet splits a sorted table into one sub-table per distinct
//   value of its top-level key, with names valid as worksheet names.
//
// =============================================================================

package layout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/picking-reports/internal/table"
)

// MaxSheetNameLength is the longest worksheet name a workbook accepts.
const MaxSheetNameLength = 31

// =============================================================================
// SPANS
// =============================================================================

// Span is a run of consecutive rows sharing one value in a column.
// Start and End are 0-based row offsets, both inclusive.
type Span struct {
	Start int
	End   int
	Value table.Value
}

// Len returns the number of rows covered by the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// Plan is the layout of one table.
type Plan struct {
	// Columns are the visible columns in output order.
	Columns []string

	// Spans holds, per mergeable column, spans covering every row exactly
	// once. Columns absent from the map are rendered flat.
	Spans map[string][]Span
}

// Mergeable reports whether the column has spans.
func (p *Plan) Mergeable(column string) bool {
	_, ok := p.Spans[column]
	return ok
}

// BuildSpans computes the spans of every mergeable column of t.
//
// Rows must already be sorted by the grouping key tuple. Each column is
// scanned on its own, top to bottom: a new span starts whenever a value
// differs from the row above it, a missing value next to a present one
// included. Mergeable names that are not columns of t are ignored.
func BuildSpans(t *table.Table, mergeable []string) *Plan {
	plan := &Plan{
		Columns: append([]string(nil), t.Columns...),
		Spans:   make(map[string][]Span, len(mergeable)),
	}

	for _, column := range mergeable {
		idx := t.Index(column)
		if idx < 0 {
			continue
		}

		spans := []Span{}
		for r, row := range t.Rows {
			v := row.Get(idx)
			if n := len(spans); n > 0 && spans[n-1].Value.Equal(v) {
				spans[n-1].End = r
				continue
			}
			spans = append(spans, Span{Start: r, End: r, Value: v})
		}
		plan.Spans[column] = spans
	}

	return plan
}

// MergeableColumns returns the grouping keys whose cells may be merged.
// Origin columns are listed one per row on picking sheets and never merge,
// and neither do the names in exclude. Measures are not keys, so they are
// always flat.
func MergeableColumns(keys []string, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}

	var out []string
	for _, k := range keys {
		if skip[k] || isOriginColumn(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func isOriginColumn(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "origen")
}

// =============================================================================
// SHEETS
// =============================================================================

// Sheet is the part of a table that goes to one worksheet.
type Sheet struct {
	// Name is the sanitized, unique worksheet name.
	Name string

	// Key is the top-level key value the sheet was built from. It is empty
	// for the sheet of rows without a value.
	Key string

	// Table holds the rows of the sheet without the top-level key column.
	Table *table.Table
}

// PartitionBySheet splits a sorted table into one sheet per distinct value
// of the top-level key column, in order of first appearance. Rows with a
// missing key go to a sheet named unassigned. Names are sanitized with
// SanitizeSheetName, and names that collide after sanitizing get a numeric
// suffix.
//
// RETURNS:
//   - An error when topKey is not a column of t.
func PartitionBySheet(t *table.Table, topKey, unassigned string) ([]Sheet, error) {
	keyIdx := t.Index(topKey)
	if keyIdx < 0 {
		return nil, fmt.Errorf("partition column %q not found", topKey)
	}

	rest := make([]string, 0, len(t.Columns)-1)
	for i, c := range t.Columns {
		if i != keyIdx {
			rest = append(rest, c)
		}
	}

	var sheets []Sheet
	byKey := make(map[string]int)
	used := make(map[string]bool)

	for _, row := range t.Rows {
		key := strings.TrimSpace(row.Get(keyIdx).String())
		i, ok := byKey[key]
		if !ok {
			name := key
			if name == "" {
				name = unassigned
			}
			name = uniqueName(SanitizeSheetName(name, unassigned), used)
			sheets = append(sheets, Sheet{Name: name, Key: key, Table: table.New(rest...)})
			i = len(sheets) - 1
			byKey[key] = i
		}

		out := make(table.Row, 0, len(rest))
		for c := range t.Columns {
			if c != keyIdx {
				out = append(out, row.Get(c))
			}
		}
		sheets[i].Table.Rows = append(sheets[i].Table.Rows, out)
	}

	return sheets, nil
}

// SanitizeSheetName strips the characters a worksheet name may not contain
// (/ \ ? * [ ] :) and truncates the result to MaxSheetNameLength runes.
// An empty result is replaced by fallback.
func SanitizeSheetName(name, fallback string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '*', '[', ']', ':':
			return -1
		}
		return r
	}, name)
	clean = strings.Trim(strings.TrimSpace(clean), "'")
	if clean == "" {
		clean = fallback
	}
	return truncate(clean, MaxSheetNameLength)
}

func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(name, MaxSheetNameLength-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
