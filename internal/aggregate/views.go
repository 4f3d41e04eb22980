package aggregate

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

// Output column labels shared by the report views.
const (
	ColBrand          = "marca"
	ColProduct        = "producto"
	ColZoneCode       = "codigoZona"
	ColSubZone        = "zona"
	ColOrigin         = "origen"
	ColDriver         = "conductor"
	ColSalesperson    = "vendedor"
	ColOrderedUnits   = "Unidades_pedidas"
	ColPacks          = "Pacas"
	ColLooseUnits     = "Unidades_faltantes"
	ColUnits          = "unidades"
	ColOrigins        = "Origen"
	ColZones          = "Zona"
	ColWeight         = "Peso"
	ColCustomers      = "Clientes"
	ColOrders         = "Ordenes"
	ColDeniedQuantity = "cantidad_negada"
	ColDate           = "fecha"
	ColReference      = "referencia"
)

// View is one aggregated report table together with its grouping columns.
type View struct {
	// Name is a short identifier used in output file names.
	Name string

	// Title is the human-readable report title.
	Title string

	// Keys are the grouping columns, outermost first.
	Keys []string

	// Table holds the key columns followed by the measures, sorted by key.
	Table *table.Table
}

func newView[T any](name, title string, rows []T, spec Spec[T]) View {
	return View{Name: name, Title: title, Keys: spec.KeyColumns(), Table: Aggregate(rows, spec)}
}

// Line accessors.
var (
	brandOf    = func(l transform.Line) string { return l.Brand }
	productOf  = func(l transform.Line) string { return l.Product }
	zoneOf     = func(l transform.Line) string { return l.ZoneCode }
	subZoneOf  = func(l transform.Line) string { return l.SubZone }
	originOf   = func(l transform.Line) string { return l.Origin }
	packsOf    = func(l transform.Line) int64 { return l.PackCount }
	looseOf    = func(l transform.Line) int64 { return l.RemainderUnits }
	quantityOf = func(l transform.Line) int64 { return l.Quantity }
	hasPacks   = func(l transform.Line) bool { return l.PackCount > 0 }
	hasLoose   = func(l transform.Line) bool { return l.RemainderUnits > 0 }
)

// =============================================================================
// PICKING VIEWS
// =============================================================================

// ZoneBrandProductSummary lists every brand/product with ordered units,
// whole packs, loose units, and the origins and zones involved.
func ZoneBrandProductSummary(lines []transform.Line) View {
	return newView("listado", "Listado total de productos", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColBrand, Get: brandOf},
			{Name: ColProduct, Get: productOf},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColOrderedUnits, quantityOf),
			SumInt(ColPacks, packsOf),
			SumInt(ColLooseUnits, looseOf),
			JoinUnique(ColOrigins, originOf, DefaultSeparator),
			JoinUnique(ColZones, zoneOf, DefaultSeparator),
		},
	})
}

// BulkPackManifest lists the whole packs to load per brand/product.
func BulkPackManifest(lines []transform.Line) View {
	return newView("bultos", "Bultos masivo", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColBrand, Get: brandOf},
			{Name: ColProduct, Get: productOf},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColPacks, packsOf),
			JoinUnique(ColZoneCode, zoneOf, DefaultSeparator),
			JoinUnique(ColOrigins, originOf, DefaultSeparator),
		},
		Filter: hasPacks,
	})
}

// BulkPackByZone lists the whole packs per zone code and brand/product.
func BulkPackByZone(lines []transform.Line) View {
	return newView("bultos_zona", "Bultos por zona", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColZoneCode, Get: zoneOf},
			{Name: ColBrand, Get: brandOf},
			{Name: ColProduct, Get: productOf},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColPacks, packsOf),
			JoinUnique(ColOrigins, originOf, DefaultSeparator),
		},
		Filter: hasPacks,
	})
}

// RemainderManifest lists the loose units to pick per brand/product.
func RemainderManifest(lines []transform.Line) View {
	return newView("regueros", "Regueros picking masivo", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColBrand, Get: brandOf},
			{Name: ColProduct, Get: productOf},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColUnits, looseOf),
			JoinUnique(ColZoneCode, zoneOf, DefaultSeparator),
			JoinUnique(ColOrigins, originOf, DefaultSeparator),
		},
		Filter: hasLoose,
	})
}

// RemainderByZoneOrigin details loose units per zone, sub-zone, origin and
// brand/product.
func RemainderByZoneOrigin(lines []transform.Line) View {
	return newView("regueros_zona", "Regueros por zona y origen", lines, Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColZoneCode, Get: zoneOf},
			{Name: ColSubZone, Get: subZoneOf},
			{Name: ColOrigin, Get: originOf},
			{Name: ColBrand, Get: brandOf},
			{Name: ColProduct, Get: productOf},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColLooseUnits, looseOf),
		},
		Filter: hasLoose,
	})
}

// =============================================================================
// DRIVER MANIFEST
// =============================================================================

// DriverCategorizer maps a free-text driver label to a driver category.
type DriverCategorizer interface {
	DriverCategory(label string) string
}

// DriverManifest lists, per driver category, zone, sub-zone and origin, the
// packs of each product the driver must carry.
//
// Origins whose packs add up to zero over all their lines are kept as one
// row per (driver, zone, sub-zone, origin) with product noPackages and zero
// packs, so every order shows up on the route sheet. Origins with packs keep
// only their products with a positive pack count. Drivers without a category
// form their own group with an empty driver value.
func DriverManifest(lines []transform.Line, drivers DriverCategorizer, noPackages string) View {
	spec := Spec[transform.Line]{
		Keys: []Key[transform.Line]{
			{Name: ColDriver, Get: func(l transform.Line) string { return drivers.DriverCategory(l.Driver) }, KeepEmpty: true},
			{Name: ColZoneCode, Get: zoneOf},
			{Name: ColSubZone, Get: subZoneOf},
			{Name: ColOrigin, Get: originOf},
			{Name: ColProduct, Get: productOf, KeepEmpty: true},
		},
		Measures: []Measure[transform.Line]{
			SumInt(ColPacks, packsOf),
		},
	}
	grouped := Aggregate(lines, spec)

	// Pass 1: total packs per origin across every product.
	totals := make(map[string]int64)
	for _, l := range lines {
		totals[l.Origin] += l.PackCount
	}

	// Pass 2: keep packed products, collapse unpacked origins to one row.
	out := table.New(spec.Columns()...)
	sentinel := make(map[string]bool)
	for _, row := range grouped.Rows {
		origin := row[3].String()
		if totals[origin] == 0 {
			id := joinKey(row[:4])
			if sentinel[id] {
				continue
			}
			sentinel[id] = true
			out.Append(row[0], row[1], row[2], row[3], table.Text(noPackages), table.NumberText(0, "0"))
			continue
		}
		if row[5].Num > 0 {
			out.Append(row...)
		}
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		return lessKey(rowKey(out.Rows[i][:5]), rowKey(out.Rows[j][:5]))
	})

	return View{Name: "conductores", Title: "Conductores bultos", Keys: spec.KeyColumns(), Table: out}
}

func rowKey(cells []table.Value) []string {
	key := make([]string, len(cells))
	for i, c := range cells {
		key[i] = c.String()
	}
	return key
}

func joinKey(cells []table.Value) string {
	return strings.Join(rowKey(cells), "\x1f")
}
