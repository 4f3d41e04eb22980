// =============================================================================
// Picking Reports - XLSX Report Writer
// =============================================================================
//
// This module renders aggregated views as workbooks. It consumes a table and
// a layout.Plan per worksheet and applies them declaratively.
//
// WORKSHEET STRUCTURE:
//
//   Row 1   Title, merged across every column
//           "{title} (Generado el: YYYY-MM-DD)"
//   Row 2   Column headers
//   Row 3+  Data rows. Cells inside a span of a mergeable column are merged
//           and show the span value once.
//
//   Header and data cells get thin borders, and every column is as wide as
//   its longest value plus a small padding.
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/picking-reports/internal/aggregate"
	"github.com/ginjaninja78/picking-reports/internal/layout"
	"github.com/ginjaninja78/picking-reports/internal/table"
)

// Rows of the worksheet structure, 1-based.
const (
	titleRow  = 1
	headerRow = 2
	firstRow  = 3
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how reports are rendered.
type Options struct {
	// GeneratedAt is the date printed in every sheet title.
	// Default: time.Now()
	GeneratedAt time.Time

	// WidthPadding is added to the longest value of each column.
	// Default: 3
	WidthPadding float64

	// HeaderColor is the fill color of the header row.
	// Default: "D9E1F2"
	HeaderColor string

	// BorderStyle is the excelize border style of table cells.
	// Default: 1 (thin)
	BorderStyle int
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{
		GeneratedAt:  time.Now(),
		WidthPadding: 3,
		HeaderColor:  "D9E1F2",
		BorderStyle:  1,
	}
}

// Sheet is one worksheet to render.
type Sheet struct {
	Name  string
	Title string
	Table *table.Table
	Plan  *layout.Plan
}

// =============================================================================
// VIEW TO SHEETS
// =============================================================================

// ViewSheets lays out an aggregated view as worksheets.
//
// PARAMETERS:
//   - view: The aggregated view.
//   - partitionKey: When set, one sheet per distinct value of this column,
//     titled "{title} - {partitionKey}: {value}". When empty, a single sheet
//     named after the view title.
//   - unassigned: Sheet name for rows without a partition value.
func ViewSheets(view aggregate.View, partitionKey, unassigned string) ([]Sheet, error) {
	if partitionKey == "" {
		return []Sheet{{
			Name:  layout.SanitizeSheetName(view.Title, view.Name),
			Title: view.Title,
			Table: view.Table,
			Plan:  layout.BuildSpans(view.Table, layout.MergeableColumns(view.Keys)),
		}}, nil
	}

	parts, err := layout.PartitionBySheet(view.Table, partitionKey, unassigned)
	if err != nil {
		return nil, err
	}

	mergeable := layout.MergeableColumns(view.Keys, partitionKey)
	sheets := make([]Sheet, 0, len(parts))
	for _, p := range parts {
		key := p.Key
		if key == "" {
			key = unassigned
		}
		sheets = append(sheets, Sheet{
			Name:  p.Name,
			Title: fmt.Sprintf("%s - %s: %s", view.Title, partitionKey, key),
			Table: p.Table,
			Plan:  layout.BuildSpans(p.Table, mergeable),
		})
	}
	return sheets, nil
}

// =============================================================================
// WORKBOOK
// =============================================================================

// Write renders the sheets as a workbook to w.
func Write(w io.Writer, sheets []Sheet, opts Options) error {
	f, err := Build(sheets, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders the sheets as a workbook at path.
func WriteFile(path string, sheets []Sheet, opts Options) error {
	f, err := Build(sheets, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Build renders the sheets into a new workbook. The caller closes it.
func Build(sheets []Sheet, opts Options) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to write")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	f := excelize.NewFile()
	st, err := newStyles(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, sheet := range sheets {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err == nil {
			err = writeSheet(f, sheet, st, opts)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

type styles struct {
	title, header, cell, date int
}

func newStyles(f *excelize.File, opts Options) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: opts.BorderStyle},
		{Type: "top", Color: "000000", Style: opts.BorderStyle},
		{Type: "right", Color: "000000", Style: opts.BorderStyle},
		{Type: "bottom", Color: "000000", Style: opts.BorderStyle},
	}

	var s styles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{opts.HeaderColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	if s.cell, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Vertical: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create cell style: %w", err)
	}
	if s.date, err = f.NewStyle(&excelize.Style{
		Border:    border,
		NumFmt:    14,
		Alignment: &excelize.Alignment{Vertical: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create date style: %w", err)
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet Sheet, st styles, opts Options) error {
	t := sheet.Table
	name := sheet.Name
	ncols := len(t.Columns)
	if ncols == 0 {
		return fmt.Errorf("table has no columns")
	}
	plan := sheet.Plan
	if plan == nil {
		plan = layout.BuildSpans(t, nil)
	}

	// Title.
	title := fmt.Sprintf("%s (Generado el: %s)", sheet.Title, opts.GeneratedAt.Format(table.DateLayout))
	if err := f.SetCellValue(name, cellName(1, titleRow), title); err != nil {
		return err
	}
	if ncols > 1 {
		if err := f.MergeCell(name, cellName(1, titleRow), cellName(ncols, titleRow)); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(name, cellName(1, titleRow), cellName(ncols, titleRow), st.title); err != nil {
		return err
	}

	// Header.
	widths := make([]int, ncols)
	for c, column := range t.Columns {
		if err := f.SetCellValue(name, cellName(c+1, headerRow), column); err != nil {
			return err
		}
		widths[c] = utf8.RuneCountInString(column)
	}
	if err := f.SetCellStyle(name, cellName(1, headerRow), cellName(ncols, headerRow), st.header); err != nil {
		return err
	}

	// Data. Cells continuing a span stay empty; the merge shows the value.
	continued := continuations(t, plan)
	for r, row := range t.Rows {
		for c := range t.Columns {
			v := row.Get(c)
			if n := utf8.RuneCountInString(v.String()); n > widths[c] {
				widths[c] = n
			}
			if v.IsMissing() || continued[c][r] {
				continue
			}
			if err := setValue(f, name, cellName(c+1, firstRow+r), v); err != nil {
				return err
			}
		}
	}
	if t.Len() > 0 {
		last := cellName(ncols, firstRow+t.Len()-1)
		if err := f.SetCellStyle(name, cellName(1, firstRow), last, st.cell); err != nil {
			return err
		}
		for c := range t.Columns {
			if columnHasDates(t, c) {
				top, bottom := cellName(c+1, firstRow), cellName(c+1, firstRow+t.Len()-1)
				if err := f.SetCellStyle(name, top, bottom, st.date); err != nil {
					return err
				}
			}
		}
	}

	// Merges.
	for c, column := range t.Columns {
		for _, span := range plan.Spans[column] {
			if span.Len() < 2 {
				continue
			}
			if err := f.MergeCell(name, cellName(c+1, firstRow+span.Start), cellName(c+1, firstRow+span.End)); err != nil {
				return err
			}
		}
	}

	// Widths.
	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, float64(w)+opts.WidthPadding); err != nil {
			return err
		}
	}

	return nil
}

func setValue(f *excelize.File, sheet, axis string, v table.Value) error {
	switch v.Kind {
	case table.KindNumber:
		return f.SetCellValue(sheet, axis, v.Num)
	case table.KindTime:
		return f.SetCellValue(sheet, axis, v.Time)
	default:
		return f.SetCellStr(sheet, axis, v.String())
	}
}

// continuations marks, per column, the rows inside a span below its first row.
func continuations(t *table.Table, plan *layout.Plan) [][]bool {
	marks := make([][]bool, len(t.Columns))
	for c, column := range t.Columns {
		marks[c] = make([]bool, t.Len())
		for _, span := range plan.Spans[column] {
			for r := span.Start + 1; r <= span.End && r < t.Len(); r++ {
				marks[c][r] = true
			}
		}
	}
	return marks
}

func columnHasDates(t *table.Table, c int) bool {
	for _, row := range t.Rows {
		if row.Get(c).Kind == table.KindTime {
			return true
		}
	}
	return false
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
