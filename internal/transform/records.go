package transform

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/picking-reports/internal/normalize"
	"github.com/ginjaninja78/picking-reports/internal/table"
)

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// Record is one canonical invoice line. Text fields use "" for missing.
// After Normalize, ZoneCode, SubZone and Brand are never empty.
type Record struct {
	CustomerName string
	InvoiceDate  string
	CustomerID   string
	Salesperson  string
	Quantity     int64
	Product      string
	UnitWeight   decimal.Decimal
	City         string
	ZoneCode     string
	SubZone      string
	Origin       string
	Brand        string
	ExternalID   string
	Driver       string
}

// Records converts a canonical table into typed records.
func Records(t *table.Table) []Record {
	col := func(name string) int { return t.Index(name) }
	var (
		customer = col(ColCustomerName)
		date     = col(ColInvoiceDate)
		id       = col(ColCustomerID)
		seller   = col(ColSalesperson)
		qty      = col(ColQuantity)
		product  = col(ColProduct)
		weight   = col(ColUnitWeight)
		city     = col(ColCity)
		zone     = col(ColZoneCode)
		sub      = col(ColSubZone)
		origin   = col(ColOrigin)
		brand    = col(ColBrand)
		external = col(ColExternalID)
		driver   = col(ColDriver)
	)

	records := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = Record{
			CustomerName: text(row.Get(customer)),
			InvoiceDate:  text(row.Get(date)),
			CustomerID:   text(row.Get(id)),
			Salesperson:  text(row.Get(seller)),
			Quantity:     integer(row.Get(qty)),
			Product:      text(row.Get(product)),
			UnitWeight:   Decimal(row.Get(weight)),
			City:         text(row.Get(city)),
			ZoneCode:     text(row.Get(zone)),
			SubZone:      text(row.Get(sub)),
			Origin:       text(row.Get(origin)),
			Brand:        text(row.Get(brand)),
			ExternalID:   text(row.Get(external)),
			Driver:       text(row.Get(driver)),
		}
	}
	return records
}

func text(v table.Value) string {
	return strings.TrimSpace(v.String())
}

func integer(v table.Value) int64 {
	f, ok := ParseNumber(v)
	if !ok {
		return 0
	}
	return int64(math.Round(f))
}

// Decimal reads a numeric cell exactly, preferring the source text over the
// binary float. Missing or unparseable cells are zero.
func Decimal(v table.Value) decimal.Decimal {
	if v.Kind == table.KindNumber && v.Str != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(v.Str)); err == nil {
			return d
		}
	}
	f, ok := ParseNumber(v)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// =============================================================================
// PACK DECOMPOSITION
// =============================================================================

// Line is a record with its quantity split into whole packs and loose units.
type Line struct {
	Record
	UnitsPerPack   int64
	PackCount      int64
	RemainderUnits int64
}

// Decompose splits a quantity into whole packs and remainder units.
// When quantity < unitsPerPack there are no packs and every unit is loose;
// otherwise packs = quantity / unitsPerPack and remainder = quantity %
// unitsPerPack. unitsPerPack below 1 is treated as 1.
func Decompose(quantity, unitsPerPack int64) (packs, remainder int64) {
	if unitsPerPack < 1 {
		unitsPerPack = 1
	}
	if quantity < unitsPerPack {
		return 0, quantity
	}
	return quantity / unitsPerPack, quantity % unitsPerPack
}

// DecomposeQuantity computes packs and remainder units for every record,
// reading units per pack from the product descriptor.
func DecomposeQuantity(records []Record) []Line {
	lines := make([]Line, len(records))
	for i, rec := range records {
		units := int64(normalize.ExtractPackSize(rec.Product))
		packs, rest := Decompose(rec.Quantity, units)
		lines[i] = Line{
			Record:         rec,
			UnitsPerPack:   units,
			PackCount:      packs,
			RemainderUnits: rest,
		}
	}
	return lines
}
