package transform

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// =============================================================================
// WEIGHT ROWS
// =============================================================================

// Weight summary fields, keyed in the catalog's weight_columns.
const (
	WeightCity        = "ciudad"
	WeightZone        = "zona"
	WeightCustomer    = "cliente"
	WeightSalesperson = "vendedor"
	WeightOrigin      = "origen"
	WeightID          = "id"
	WeightTotal       = "peso"
)

var weightFields = []string{WeightCity, WeightZone, WeightCustomer, WeightSalesperson, WeightOrigin, WeightID, WeightTotal}

// WeightRow is one raw extract line as seen by the route weight summary.
// Zone keeps the compound "code.subzone" text.
type WeightRow struct {
	City        string
	Zone        string
	Customer    string
	Salesperson string
	Origin      string
	ID          string
	Weight      decimal.Decimal
}

// WeightRows reads the weight summary fields from the raw extract. Rows
// without a customer name are dropped. Unlike Normalize, no gap is filled:
// the summary reflects the extract as exported.
//
// RETURNS:
//   - validation.ErrEmptyInput when raw has no columns.
//   - *validation.MissingColumnError naming every absent field.
func (tr *Transformer) WeightRows(raw *table.Table) ([]WeightRow, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, validation.ErrEmptyInput
	}

	aliases := tr.catalog.WeightColumns
	found := tr.matchColumns(raw.Columns, aliases, weightFields)

	var missing []string
	for _, field := range weightFields {
		if _, ok := found[field]; !ok {
			name := field
			if a := aliases[field]; len(a) > 0 {
				name = a[0]
			}
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &validation.MissingColumnError{Columns: missing}
	}

	rows := make([]WeightRow, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		customer := text(row.Get(found[WeightCustomer]))
		if customer == "" {
			continue
		}
		rows = append(rows, WeightRow{
			City:        text(row.Get(found[WeightCity])),
			Zone:        text(row.Get(found[WeightZone])),
			Customer:    customer,
			Salesperson: text(row.Get(found[WeightSalesperson])),
			Origin:      text(row.Get(found[WeightOrigin])),
			ID:          text(row.Get(found[WeightID])),
			Weight:      Decimal(row.Get(found[WeightTotal])),
		})
	}
	return rows, nil
}
