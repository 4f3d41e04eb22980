package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/picking-reports/internal/normalize"
	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

// =============================================================================
// PICKING STATISTICS
// =============================================================================

func weightOf(l transform.Line) decimal.Decimal { return l.UnitWeight }
func customerOf(l transform.Line) string        { return l.CustomerName }

// ZoneStats summarizes unit weight, distinct customers and distinct orders
// per zone code.
func ZoneStats(lines []transform.Line) View {
	return newView("zonas", "Resumen por zona", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{{Name: ColZoneCode, Get: zoneOf}},
		Measures: []Measure[transform.Line]{
			SumDecimal(ColWeight, weightOf),
			NUnique(ColCustomers, customerOf),
			NUnique(ColOrders, originOf),
		},
	})
}

// SalespersonStats summarizes unit weight, distinct customers and distinct
// orders per salesperson.
func SalespersonStats(lines []transform.Line) View {
	return newView("vendedores", "Resumen por vendedor", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{{Name: ColSalesperson, Get: func(l transform.Line) string { return l.Salesperson }}},
		Measures: []Measure[transform.Line]{
			SumDecimal(ColWeight, weightOf),
			NUnique(ColCustomers, customerOf),
			NUnique(ColOrders, originOf),
		},
	})
}

// Totals are whole-extract figures shown next to the reports.
type Totals struct {
	Lines     int
	Customers int
	Orders    int
	Packs     int64
	Loose     int64
	Weight    decimal.Decimal
}

// Summarize computes the totals of a set of lines.
func Summarize(lines []transform.Line) Totals {
	customers := map[string]bool{}
	orders := map[string]bool{}
	t := Totals{Lines: len(lines), Weight: decimal.Zero}
	for _, l := range lines {
		if l.CustomerName != "" {
			customers[l.CustomerName] = true
		}
		if l.Origin != "" {
			orders[l.Origin] = true
		}
		t.Packs += l.PackCount
		t.Loose += l.RemainderUnits
		t.Weight = t.Weight.Add(l.UnitWeight)
	}
	t.Customers = len(customers)
	t.Orders = len(orders)
	return t
}

// =============================================================================
// WEIGHT / ROUTE SUMMARY
// =============================================================================

// Weight summary column labels.
const (
	WeightCity        = "Asociado/Ciudad"
	WeightZone        = "Asociado/Zona"
	WeightCustomer    = "Nombre de la empresa a mostrar en la factura"
	WeightSalesperson = "Vendedor"
	WeightOrigin      = "Origen"
	WeightID          = "ID"
	WeightTotal       = "Peso Total"
	RouteZoneCode     = "Cod zona"
)

// WeightSummary groups raw weight rows by city, zone, customer,
// salesperson, origin and external id, summing the weight. It works on the
// raw extract, independent of the brand/product path.
func WeightSummary(rows []transform.WeightRow) View {
	return newView("ruta_peso", "Ruta y peso", rows, Spec[transform.WeightRow]{
		Keys: []Key[transform.WeightRow]{
			{Name: WeightCity, Get: func(r transform.WeightRow) string { return r.City }},
			{Name: WeightZone, Get: func(r transform.WeightRow) string { return r.Zone }},
			{Name: WeightCustomer, Get: func(r transform.WeightRow) string { return r.Customer }},
			{Name: WeightSalesperson, Get: func(r transform.WeightRow) string { return r.Salesperson }},
			{Name: WeightOrigin, Get: func(r transform.WeightRow) string { return r.Origin }},
			{Name: WeightID, Get: func(r transform.WeightRow) string { return r.ID }},
		},
		Measures: []Measure[transform.WeightRow]{
			SumDecimal(WeightTotal, func(r transform.WeightRow) decimal.Decimal { return r.Weight }),
		},
	})
}

// RouteZoneStats groups raw weight rows by the zone code part of the
// compound zone, and by code and sub-zone when bySubZone is set.
func RouteZoneStats(rows []transform.WeightRow, bySubZone bool) View {
	code := func(r transform.WeightRow) string {
		c, _ := normalize.SplitCompoundZone(table.Text(r.Zone))
		return c.String()
	}
	keys := []Key[transform.WeightRow]{{Name: RouteZoneCode, Get: code}}
	name, title := "ruta_zona", "Peso por código de zona"
	if bySubZone {
		keys = append(keys, Key[transform.WeightRow]{Name: ColSubZone, Get: func(r transform.WeightRow) string {
			_, s := normalize.SplitCompoundZone(table.Text(r.Zone))
			return s.String()
		}})
		name, title = "ruta_subzona", "Peso por zona"
	}
	return newView(name, title, rows, Spec[transform.WeightRow]{
		Keys: keys,
		Measures: []Measure[transform.WeightRow]{
			SumDecimal(ColWeight, func(r transform.WeightRow) decimal.Decimal { return r.Weight }),
			NUnique(ColCustomers, func(r transform.WeightRow) string { return r.Customer }),
		},
	})
}

// =============================================================================
// DENIED PRODUCTS
// =============================================================================

// DeniedByBrand sums denied units per brand with the origins involved.
func DeniedByBrand(lines []transform.DeniedLine) View {
	return newView("negados_marca", "Producto negado por marca", lines, Spec[transform.DeniedLine]{
		Keys: []Key[transform.DeniedLine]{{Name: ColBrand, Get: func(l transform.DeniedLine) string { return l.Brand }}},
		Measures: []Measure[transform.DeniedLine]{
			SumDecimal(ColDeniedQuantity, func(l transform.DeniedLine) decimal.Decimal { return l.Denied }),
			JoinUnique(ColOrigin, func(l transform.DeniedLine) string { return l.Origin }, DefaultSeparator),
		},
	})
}

// DeniedDetail sums denied units per date, brand and product with the
// origins and references involved.
func DeniedDetail(lines []transform.DeniedLine) View {
	return newView("negados", "Producto negado", lines, Spec[transform.DeniedLine]{
		Keys: []Key[transform.DeniedLine]{
			{Name: ColDate, Get: func(l transform.DeniedLine) string { return l.Date }},
			{Name: ColBrand, Get: func(l transform.DeniedLine) string { return l.Brand }},
			{Name: ColProduct, Get: func(l transform.DeniedLine) string { return l.Product }},
		},
		Measures: []Measure[transform.DeniedLine]{
			SumDecimal(ColDeniedQuantity, func(l transform.DeniedLine) decimal.Decimal { return l.Denied }),
			JoinUnique(ColOrigin, func(l transform.DeniedLine) string { return l.Origin }, DefaultSeparator),
			JoinUnique(ColReference, func(l transform.DeniedLine) string { return l.Reference }, DefaultSeparator),
		},
	})
}
