package normalize

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// dateLayouts are the text formats accepted for date cells, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
}

// ParseDate parses a date cell. Date cells are returned as is, text is tried
// against the accepted layouts and numbers are read as spreadsheet serials.
func ParseDate(v table.Value) (time.Time, bool) {
	switch v.Kind {
	case table.KindTime:
		return v.Time, true
	case table.KindString:
		s := strings.TrimSpace(v.Str)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case table.KindNumber:
		if v.Num > 0 {
			if t, err := excelize.ExcelDateToTime(v.Num, false); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ToISODateColumns rewrites date columns as YYYY-MM-DD text. A column is a
// date column when it is named in force or when it holds at least one date
// cell. Cells of a date column that cannot be read as a date become missing
// and are reported as malformed; the rest of the column is still converted.
//
// RETURNS:
//   - One issue per cell that could not be converted.
func ToISODateColumns(t *table.Table, force ...string) []validation.Issue {
	forced := make(map[string]bool, len(force))
	for _, f := range force {
		forced[f] = true
	}

	var issues []validation.Issue
	for c, name := range t.Columns {
		if !forced[name] && !hasDateCell(t, c) {
			continue
		}
		for r, row := range t.Rows {
			v := row[c]
			if v.IsMissing() {
				continue
			}
			d, ok := ParseDate(v)
			if !ok {
				issues = append(issues, validation.Malformed(validation.RuleMalformedDate, name, r+1, v.String(), "value is not a date"))
				row[c] = table.Null()
				continue
			}
			row[c] = table.Text(d.Format(table.DateLayout))
		}
	}
	return issues
}

func hasDateCell(t *table.Table, c int) bool {
	for _, row := range t.Rows {
		if row[c].Kind == table.KindTime {
			return true
		}
	}
	return false
}
