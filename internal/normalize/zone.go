// =============================================================================
// Picking Reports - Field Normalizer
// =============================================================================
//
// This package parses and repairs individual fields of an uploaded extract:
//   - compound zone codes ("10.5" -> code "10", sub-zone "5")
//   - zone fallback to the customer city
//   - pack size embedded in product descriptors ("AB(12)FOO" -> 12)
//   - date columns rendered as YYYY-MM-DD
//   - the forward-fill repair pass for sparse exports
//   - header folding for matching source column names
//
// None of these functions return errors for bad cells. Cells that cannot be
// parsed degrade to a missing marker or a safe default.
//
// =============================================================================

package normalize

import (
	"strings"

	"github.com/ginjaninja78/picking-reports/internal/table"
)

// ZoneDelimiter separates the zone code from the sub-zone.
const ZoneDelimiter = "."

// =============================================================================
// COMPOUND ZONE
// =============================================================================

// SplitCompoundZone splits a compound zone on the first delimiter.
//
// RETURNS:
//   - (missing, missing) when raw is missing
//   - (raw, missing) when raw has no delimiter
//   - (code, subzone) otherwise; an empty side is missing
func SplitCompoundZone(raw table.Value) (code, subzone table.Value) {
	if raw.IsMissing() {
		return table.Null(), table.Null()
	}
	s := strings.TrimSpace(raw.String())
	head, tail, found := strings.Cut(s, ZoneDelimiter)
	if !found {
		return table.Text(s), table.Null()
	}
	return table.Text(strings.TrimSpace(head)), table.Text(strings.TrimSpace(tail))
}

// FillZoneFallback replaces a missing or literal "nan" zone code, and
// independently a missing or "nan" sub-zone, with the row's city. Rows are
// handled one at a time; no value crosses rows. Columns that do not exist are
// ignored.
//
// RETURNS:
//   - The number of cells replaced.
func FillZoneFallback(t *table.Table, cityColumn, codeColumn, subzoneColumn string) int {
	city := t.Index(cityColumn)
	if city < 0 {
		return 0
	}

	replaced := 0
	for _, col := range []int{t.Index(codeColumn), t.Index(subzoneColumn)} {
		if col < 0 {
			continue
		}
		for _, row := range t.Rows {
			if IsBlankZone(row[col]) {
				row[col] = row[city]
				if !row[city].IsMissing() {
					replaced++
				}
			}
		}
	}
	return replaced
}

// IsBlankZone reports whether a zone cell is missing or holds the literal
// text "nan" in any letter case.
func IsBlankZone(v table.Value) bool {
	if v.IsMissing() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(v.String()), "nan")
}
