package normalize

import (
	"github.com/ginjaninja78/picking-reports/internal/table"
)

// FillReport counts, per column, how many cells a repair pass wrote.
type FillReport map[string]int

// Total returns the number of filled cells across all columns.
func (r FillReport) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// ForwardFill propagates the last non-missing value of each column down to
// the missing cells beneath it. Leading missing cells stay missing. With no
// column names every column is filled.
//
// Sparse exports leave repeated values blank after their first occurrence;
// this pass restores them and reports exactly which cells it touched.
func ForwardFill(t *table.Table, columns ...string) FillReport {
	report := FillReport{}
	for _, idx := range columnIndexes(t, columns) {
		var last table.Value
		for _, row := range t.Rows {
			if row[idx].IsMissing() {
				if !last.IsMissing() {
					row[idx] = last
					report[t.Columns[idx]]++
				}
				continue
			}
			last = row[idx]
		}
	}
	return report
}

// BackFill propagates the next non-missing value of each column up to the
// missing cells above it.
func BackFill(t *table.Table, columns ...string) FillReport {
	report := FillReport{}
	for _, idx := range columnIndexes(t, columns) {
		var next table.Value
		for r := len(t.Rows) - 1; r >= 0; r-- {
			row := t.Rows[r]
			if row[idx].IsMissing() {
				if !next.IsMissing() {
					row[idx] = next
					report[t.Columns[idx]]++
				}
				continue
			}
			next = row[idx]
		}
	}
	return report
}

func columnIndexes(t *table.Table, columns []string) []int {
	if len(columns) == 0 {
		idx := make([]int, len(t.Columns))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	var idx []int
	for _, c := range columns {
		if i := t.Index(c); i >= 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
