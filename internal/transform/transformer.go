package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/picking-reports/internal/category"
	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/normalize"
	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the catalog-driven cleaning rules to extracts.
// It holds no per-call state and is safe for concurrent use.
type Transformer struct {
	catalog  *config.Catalog
	resolver *category.Resolver
}

// New creates a Transformer for the given catalog.
func New(catalog *config.Catalog) *Transformer {
	return &Transformer{
		catalog:  catalog,
		resolver: category.NewResolver(catalog),
	}
}

// Resolver returns the category resolver built from the catalog.
func (tr *Transformer) Resolver() *category.Resolver {
	return tr.resolver
}

// Result is the outcome of Normalize.
type Result struct {
	// Table holds the canonical columns in CanonicalColumns order.
	Table *table.Table

	// Issues lists malformed cells. They never block processing.
	Issues []validation.Issue

	// ZoneFallbacks counts zone cells replaced by the city.
	ZoneFallbacks int

	// Filled reports the cells written by the forward-fill pass.
	Filled normalize.FillReport
}

// =============================================================================
// NORMALIZE
// =============================================================================

// Normalize converts a raw extract into the canonical schema.
//
// PARAMETERS:
//   - raw: The loaded extract. It is not modified.
//
// RETURNS:
//   - The canonical table and the issues raised on individual cells.
//   - validation.ErrEmptyInput when raw has no columns.
//   - *validation.MissingColumnError when quantity, origin, or both zone and
//     city are absent. No partial table is returned in that case.
func (tr *Transformer) Normalize(raw *table.Table) (*Result, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, validation.ErrEmptyInput
	}

	found := tr.matchColumns(raw.Columns, tr.catalog.Columns, sourceFields)
	if err := tr.checkRequired(found); err != nil {
		return nil, err
	}

	// Step 1: rename and select.
	work := table.New(sourceFields...)
	work.Rows = make([]table.Row, len(raw.Rows))
	for r, row := range raw.Rows {
		nr := make(table.Row, len(sourceFields))
		for i, field := range sourceFields {
			if src, ok := found[field]; ok {
				nr[i] = row.Get(src)
			}
		}
		work.Rows[r] = nr
	}

	result := &Result{}

	// Step 2: numeric coercion. Bad cells become missing so the fill pass can
	// repair them from the previous line of the same order.
	result.Issues = append(result.Issues, coerceNumbers(work, ColQuantity, true)...)
	result.Issues = append(result.Issues, coerceNumbers(work, ColUnitWeight, false)...)

	// Step 3: compound zone.
	codeIdx := work.AddColumn(ColZoneCode, table.Null())
	subIdx := work.AddColumn(ColSubZone, table.Null())
	compound := work.Index(ColCompoundZone)
	for _, row := range work.Rows {
		row[codeIdx], row[subIdx] = normalize.SplitCompoundZone(row[compound])
	}

	// Step 4: city fallback.
	result.ZoneFallbacks = normalize.FillZoneFallback(work, ColCity, ColZoneCode, ColSubZone)

	// Step 5: forward fill.
	result.Filled = normalize.ForwardFill(work)

	// Leading gaps the fill pass could not reach.
	qtyIdx := work.Index(ColQuantity)
	for r, row := range work.Rows {
		if row[codeIdx].IsMissing() {
			row[codeIdx] = table.Text(tr.catalog.DefaultZone)
		}
		if row[subIdx].IsMissing() {
			row[subIdx] = table.Text(tr.catalog.DefaultZone)
		}
		if row[qtyIdx].IsMissing() {
			row[qtyIdx] = table.Number(0)
			result.Issues = append(result.Issues, validation.Malformed(
				validation.RuleMalformedNumber, ColQuantity, r+1, "", "quantity is missing, using 0"))
		}
	}

	// Step 6: brand.
	brandIdx := work.AddColumn(ColBrand, table.Null())
	_, hasProduct := found[ColProduct]
	productIdx := work.Index(ColProduct)
	for _, row := range work.Rows {
		if !hasProduct {
			row[brandIdx] = table.Text(tr.resolver.Fallback())
			continue
		}
		row[brandIdx] = table.Text(tr.resolver.Brand(row[productIdx]))
	}

	// Step 7: canonical order and dates.
	out := work.Select(CanonicalColumns...)
	result.Issues = append(result.Issues, normalize.ToISODateColumns(out, tr.catalog.DateColumns...)...)
	result.Table = out

	return result, nil
}

// matchColumns finds, for every field, the first source header that folds
// to one of its aliases.
func (tr *Transformer) matchColumns(headers []string, aliases map[string][]string, fields []string) map[string]int {
	index := normalize.HeaderIndex(headers)
	found := make(map[string]int, len(fields))
	for _, field := range fields {
		for _, alias := range aliases[field] {
			if i, ok := index[normalize.FoldHeader(alias)]; ok {
				found[field] = i
				break
			}
		}
	}
	return found
}

// checkRequired reports the required fields that have no source column.
// Zone and city stand in for each other.
func (tr *Transformer) checkRequired(found map[string]int) error {
	var missing []string
	for _, field := range []string{ColQuantity, ColOrigin} {
		if _, ok := found[field]; !ok {
			missing = append(missing, tr.sourceName(field))
		}
	}
	_, hasZone := found[ColCompoundZone]
	_, hasCity := found[ColCity]
	if !hasZone && !hasCity {
		missing = append(missing, tr.sourceName(ColCompoundZone)+" | "+tr.sourceName(ColCity))
	}
	if len(missing) > 0 {
		return &validation.MissingColumnError{Columns: missing}
	}
	return nil
}

func (tr *Transformer) sourceName(field string) string {
	if aliases := tr.catalog.Columns[field]; len(aliases) > 0 {
		return aliases[0]
	}
	return field
}

// =============================================================================
// NUMERIC COERCION
// =============================================================================

// coerceNumbers rewrites a column as numbers. Unparseable cells become
// missing. With integral set, fractional values are rounded.
func coerceNumbers(t *table.Table, column string, integral bool) []validation.Issue {
	idx := t.Index(column)
	if idx < 0 {
		return nil
	}

	var issues []validation.Issue
	for r, row := range t.Rows {
		v := row[idx]
		if v.IsMissing() {
			continue
		}
		f, ok := ParseNumber(v)
		if !ok {
			issues = append(issues, validation.Malformed(
				validation.RuleMalformedNumber, column, r+1, v.String(), "value is not a number"))
			row[idx] = table.Null()
			continue
		}
		if integral && f != math.Trunc(f) {
			issues = append(issues, validation.Malformed(
				validation.RuleFractional, column, r+1, v.String(),
				fmt.Sprintf("fractional quantity rounded to %d", int64(math.Round(f)))))
			row[idx] = table.Number(math.Round(f))
			continue
		}
		if v.Kind == table.KindNumber {
			continue
		}
		if raw := strings.TrimSpace(v.Str); !strings.Contains(raw, ",") {
			row[idx] = table.NumberText(f, raw)
		} else {
			row[idx] = table.Number(f)
		}
	}
	return issues
}

// ParseNumber reads a numeric cell. Text is accepted with either "." or a
// single "," as the decimal separator.
func ParseNumber(v table.Value) (float64, bool) {
	switch v.Kind {
	case table.KindNumber:
		return v.Num, true
	case table.KindString:
		s := strings.TrimSpace(v.Str)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
