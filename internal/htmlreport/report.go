// =============================================================================
// Picking Reports - HTML Documents
// =============================================================================
//
// This module renders aggregated views as printable HTML documents. A PDF
// converter, when one is used, takes these documents as input.
//
// DOCUMENT STRUCTURE:
//   - Title and a metadata block (customer, document id, salesperson, city,
//     zone code, sub-zone)
//   - One table per group. Grouped layouts print a heading whenever a group
//     value changes, e.g. "ZONA: Norte" then "Origen: INV001".
//   - Generation timestamp
//
// =============================================================================

package htmlreport

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/ginjaninja78/picking-reports/internal/aggregate"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

//go:embed report.tmpl.html
var reportHTML string

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

// Metadata fallbacks.
const (
	UnknownCustomer = "Cliente Desconocido"
	NotAvailable    = "N/A"
)

// =============================================================================
// LAYOUTS
// =============================================================================

// Column maps a view column to a document column.
type Column struct {
	Source string
	Label  string
	Class  string
}

// Group splits a document into sections by a view column.
type Group struct {
	Column string

	// Heading is a fmt format with one %s verb for the group value.
	Heading string
}

// Layout describes how one view is printed.
type Layout struct {
	Title   string
	Columns []Column
	GroupBy []Group
}

// Document layouts of the picking and denied views.
var (
	// ListingLayout prints BulkPackManifest.
	ListingLayout = Layout{
		Title: "Listado total",
		Columns: []Column{
			{aggregate.ColBrand, "Marca", "col-marca"},
			{aggregate.ColProduct, "Producto", "col-producto"},
			{aggregate.ColPacks, "Bultos", "col-bultos align-center"},
			{aggregate.ColZoneCode, "Cod.", "col-cod align-center"},
			{aggregate.ColOrigins, "Origen", "col-origen"},
		},
	}

	// BulkByZoneLayout prints BulkPackByZone, one table per zone code.
	BulkByZoneLayout = Layout{
		Title: "Bultos por zona",
		Columns: []Column{
			{aggregate.ColZoneCode, "Código", "col-cod"},
			{aggregate.ColBrand, "Marca", "col-marca"},
			{aggregate.ColProduct, "Producto", "col-producto"},
			{aggregate.ColPacks, "Bultos", "col-bultos align-center"},
			{aggregate.ColOrigins, "Origen", "col-origen"},
		},
		GroupBy: []Group{{aggregate.ColZoneCode, "Código de Zona: %s"}},
	}

	// RemainderByZoneLayout prints RemainderByZoneOrigin, one table per
	// sub-zone and origin.
	RemainderByZoneLayout = Layout{
		Title: "Regueros por zona",
		Columns: []Column{
			{aggregate.ColZoneCode, "Código", "col-cod align-center"},
			{aggregate.ColOrigin, "Origen", "col-origen"},
			{aggregate.ColBrand, "Marca", "col-marca"},
			{aggregate.ColProduct, "Producto", "col-producto"},
			{aggregate.ColLooseUnits, "Und", "col-und align-center"},
		},
		GroupBy: []Group{
			{aggregate.ColSubZone, "ZONA: %s"},
			{aggregate.ColOrigin, "Origen: %s"},
		},
	}

	// PickingLayout prints RemainderManifest.
	PickingLayout = Layout{
		Title: "Picking masivo",
		Columns: []Column{
			{aggregate.ColBrand, "Marca", "col-marca"},
			{aggregate.ColProduct, "Producto", "col-producto"},
			{aggregate.ColUnits, "Unidades", "col-und align-center"},
			{aggregate.ColZoneCode, "Cod.", "col-cod align-center"},
			{aggregate.ColOrigins, "Origen", "col-origen"},
		},
	}

	// DeniedLayout prints DeniedDetail.
	DeniedLayout = Layout{
		Title: "Producto negado",
		Columns: []Column{
			{aggregate.ColProduct, "Producto", "col-producto"},
			{aggregate.ColDeniedQuantity, "Cantidad negada", "col-negadas align-center"},
			{aggregate.ColBrand, "Marca", "col-marca"},
			{aggregate.ColOrigin, "Origen", "col-origen"},
			{aggregate.ColReference, "Referencia", "col-ref"},
		},
	}
)

// =============================================================================
// METADATA
// =============================================================================

// Metadata is the header block of a document.
type Metadata struct {
	Customer    string
	DocumentID  string
	Salesperson string
	City        string
	ZoneCode    string
	SubZone     string
}

// NewMetadata takes the header fields from the first record. Without records
// the customer is UnknownCustomer and the other fields are NotAvailable.
func NewMetadata(records []transform.Record, now time.Time) Metadata {
	meta := Metadata{
		Customer:    UnknownCustomer,
		DocumentID:  "CARGA-" + now.Format("200601021504"),
		Salesperson: NotAvailable,
		City:        NotAvailable,
		ZoneCode:    NotAvailable,
		SubZone:     NotAvailable,
	}
	if len(records) == 0 {
		return meta
	}

	first := records[0]
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	meta.Customer = or(first.CustomerName, UnknownCustomer)
	meta.Salesperson = or(first.Salesperson, NotAvailable)
	meta.City = or(first.City, NotAvailable)
	meta.ZoneCode = or(first.ZoneCode, NotAvailable)
	meta.SubZone = or(first.SubZone, NotAvailable)
	return meta
}

// =============================================================================
// RENDER
// =============================================================================

type heading struct {
	Level int
	Text  string
}

type section struct {
	Headings []heading
	Rows     [][]string
}

type document struct {
	Title       string
	Meta        Metadata
	Columns     []Column
	Classes     []string
	Sections    []section
	GeneratedAt string
}

// Render writes the view as an HTML document.
//
// RETURNS:
//   - An error when a layout column or group column is not in the view.
func Render(w io.Writer, view aggregate.View, layout Layout, meta Metadata, now time.Time) error {
	t := view.Table

	cols := make([]int, len(layout.Columns))
	classes := make([]string, len(layout.Columns))
	for i, c := range layout.Columns {
		if cols[i] = t.Index(c.Source); cols[i] < 0 {
			return fmt.Errorf("%s: column %q not in view %q", layout.Title, c.Source, view.Name)
		}
		classes[i] = c.Class
	}
	groups := make([]int, len(layout.GroupBy))
	for i, g := range layout.GroupBy {
		if groups[i] = t.Index(g.Column); groups[i] < 0 {
			return fmt.Errorf("%s: group column %q not in view %q", layout.Title, g.Column, view.Name)
		}
	}

	// Order rows by group values, keeping the view order inside a group.
	type keyed struct {
		key   []string
		cells []string
	}
	rows := make([]keyed, len(t.Rows))
	for r, row := range t.Rows {
		k := keyed{key: make([]string, len(groups)), cells: make([]string, len(cols))}
		for i, g := range groups {
			k.key[i] = row.Get(g).String()
		}
		for i, c := range cols {
			k.cells[i] = row.Get(c).String()
		}
		rows[r] = k
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return slices.Compare(rows[i].key, rows[j].key) < 0
	})

	doc := document{
		Title:       layout.Title,
		Meta:        meta,
		Columns:     layout.Columns,
		Classes:     classes,
		GeneratedAt: now.Format("02-01-2006 15:04:05"),
	}

	var prev []string
	for _, row := range rows {
		changed := prev == nil
		var hs []heading
		for i, v := range row.key {
			if !changed && v != prev[i] {
				changed = true
			}
			if changed {
				hs = append(hs, heading{Level: min(2+i, 3), Text: fmt.Sprintf(layout.GroupBy[i].Heading, v)})
			}
		}
		if changed || len(doc.Sections) == 0 {
			doc.Sections = append(doc.Sections, section{Headings: hs})
		}
		last := &doc.Sections[len(doc.Sections)-1]
		last.Rows = append(last.Rows, row.cells)
		prev = row.key
	}
	if len(doc.Sections) == 0 {
		doc.Sections = []section{{}}
	}

	return reportTemplate.Execute(w, doc)
}
