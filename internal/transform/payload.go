package transform

import (
	"github.com/ginjaninja78/picking-reports/internal/table"
)

// PayloadRecord is one JSON object sent to the persistence API.
type PayloadRecord map[string]any

// Payload shapes a table for submission: one object per row keyed by column
// name, dates as YYYY-MM-DD, numbers as JSON numbers and missing cells as the
// catalog placeholder. A non-nil cutID is attached to every record under
// ColCutName.
func (tr *Transformer) Payload(t *table.Table, cutID any) []PayloadRecord {
	placeholder := tr.catalog.MissingPlaceholder
	records := make([]PayloadRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(PayloadRecord, len(t.Columns)+1)
		for i, name := range t.Columns {
			v := row.Get(i)
			switch v.Kind {
			case table.KindMissing:
				rec[name] = placeholder
			case table.KindNumber:
				rec[name] = v.Num
			case table.KindTime:
				rec[name] = v.Time.Format(table.DateLayout)
			default:
				rec[name] = v.Str
			}
		}
		if cutID != nil {
			rec[ColCutName] = cutID
		}
		records = append(records, rec)
	}
	return records
}
