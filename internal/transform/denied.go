package transform

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/picking-reports/internal/normalize"
	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// =============================================================================
// DENIED PRODUCTS
// =============================================================================

// Denied product fields. They are also the payload keys of the denied upload.
const (
	DeniedDate      = "fecha"
	DeniedProduct   = "producto"
	DeniedQuantity  = "cantidad_negada"
	DeniedBrand     = "marca"
	DeniedOrigin    = "origen"
	DeniedReference = "referencia"

	deniedReal     = "cantidad_real"
	deniedReserved = "cantidad_reservada"
)

// DeniedColumns is the column order of a denied products table.
var DeniedColumns = []string{DeniedDate, DeniedProduct, DeniedQuantity, DeniedBrand, DeniedOrigin, DeniedReference}

var deniedSource = []string{DeniedDate, DeniedProduct, deniedReal, deniedReserved, DeniedOrigin, DeniedReference}

// DeniedLine is a stock movement where fewer units were reserved than
// requested.
type DeniedLine struct {
	Date      string
	Product   string
	Denied    decimal.Decimal
	Brand     string
	Origin    string
	Reference string
}

// DeniedResult is the outcome of PrepareDenied.
type DeniedResult struct {
	Lines  []DeniedLine
	Issues []validation.Issue
}

// PrepareDenied cleans a stock-movement extract into denied product lines.
//
// PROCESS:
//   1. Forward-fill, then back-fill every selected column
//   2. Date from the scheduled date column, or today when the column is absent
//   3. Denied = real quantity - reserved quantity (absent columns count as 0)
//   4. Brand from the movement description
//   5. Keep only lines with a positive denied quantity
//
// RETURNS:
//   - validation.ErrEmptyInput when raw has no columns.
//   - *validation.MissingColumnError when the description, origin document or
//     reference column is absent.
func (tr *Transformer) PrepareDenied(raw *table.Table, now time.Time) (*DeniedResult, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, validation.ErrEmptyInput
	}

	aliases := tr.catalog.DeniedColumns
	found := tr.matchColumns(raw.Columns, aliases, deniedSource)

	var missing []string
	for _, field := range []string{DeniedProduct, DeniedOrigin, DeniedReference} {
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

	work := table.New(deniedSource...)
	for _, row := range raw.Rows {
		nr := make(table.Row, len(deniedSource))
		for i, field := range deniedSource {
			if src, ok := found[field]; ok {
				nr[i] = row.Get(src)
			}
		}
		work.Rows = append(work.Rows, nr)
	}
	normalize.ForwardFill(work)
	normalize.BackFill(work)

	result := &DeniedResult{}
	_, hasDate := found[DeniedDate]
	today := now.Format(table.DateLayout)

	for r, row := range work.Rows {
		date := today
		if hasDate {
			date = ""
			v := row[work.Index(DeniedDate)]
			if d, ok := normalize.ParseDate(v); ok {
				date = d.Format(table.DateLayout)
			} else if !v.IsMissing() {
				result.Issues = append(result.Issues, validation.Malformed(
					validation.RuleMalformedDate, DeniedDate, r+1, v.String(), "value is not a date"))
			}
		}

		actual := tr.quantity(row[work.Index(deniedReal)], deniedReal, r+1, &result.Issues)
		reserved := tr.quantity(row[work.Index(deniedReserved)], deniedReserved, r+1, &result.Issues)
		denied := actual.Sub(reserved)
		if !denied.IsPositive() {
			continue
		}

		product := row[work.Index(DeniedProduct)]
		result.Lines = append(result.Lines, DeniedLine{
			Date:      date,
			Product:   text(product),
			Denied:    denied,
			Brand:     tr.resolver.Brand(product),
			Origin:    text(row[work.Index(DeniedOrigin)]),
			Reference: text(row[work.Index(DeniedReference)]),
		})
	}

	return result, nil
}

func (tr *Transformer) quantity(v table.Value, field string, row int, issues *[]validation.Issue) decimal.Decimal {
	if v.IsMissing() {
		return decimal.Zero
	}
	if _, ok := ParseNumber(v); !ok {
		*issues = append(*issues, validation.Malformed(
			validation.RuleMalformedNumber, field, row, v.String(), "value is not a number"))
		return decimal.Zero
	}
	return Decimal(v)
}

// DeniedTable renders denied lines as a table in DeniedColumns order.
func DeniedTable(lines []DeniedLine) *table.Table {
	t := table.New(DeniedColumns...)
	for _, l := range lines {
		f, _ := l.Denied.Float64()
		t.Append(
			table.Text(l.Date),
			table.Text(l.Product),
			table.NumberText(f, l.Denied.String()),
			table.Text(l.Brand),
			table.Text(l.Origin),
			table.Text(l.Reference),
		)
	}
	return t
}
