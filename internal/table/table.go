// =============================================================================
// Picking Reports - Table Module
// =============================================================================
//
// This module defines the in-memory table that every stage of the pipeline
// reads and writes. Loaders produce a Table, the transformation stage
// reshapes it, and the report sinks consume it.
//
// DATA MODEL:
//   - A Table is an ordered list of column names plus rows of Values.
//   - A Value is a typed cell: missing, text, number or date/time.
//   - Missing is an explicit kind, never an empty string or NaN.
//
// =============================================================================

package table

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// VALUE
// =============================================================================

// Kind identifies the type of a cell value.
type Kind uint8

const (
	// KindMissing marks an empty or unparseable cell.
	KindMissing Kind = iota
	// KindString is free text.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
	// KindTime is a date or date/time cell.
	KindTime
)

// DateLayout is the canonical rendering of date cells.
const DateLayout = "2006-01-02"

// Value is a single typed cell.
type Value struct {
	Kind Kind

	// Str holds the text of a string cell. For numbers read from a file it
	// keeps the source text, so "10.50" is not rewritten as "10.5".
	Str string

	// Num holds the value of a number cell.
	Num float64

	// Time holds the value of a date cell.
	Time time.Time
}

// Null returns the missing value.
func Null() Value {
	return Value{}
}

// Text returns a string value. Empty text is treated as missing.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindString, Str: s}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// NumberText returns a numeric value that remembers its source text.
func NumberText(f float64, raw string) Value {
	return Value{Kind: KindNumber, Num: f, Str: raw}
}

// Date returns a date/time value.
func Date(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// IsMissing reports whether the cell is empty.
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// String renders the value the way it is shown in reports.
// Missing values render as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if v.Str != "" {
			return v.Str
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format(DateLayout)
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal reports whether two values are the same cell content.
// Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindMissing:
		return true
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindTime:
		return v.Time.Equal(o.Time)
	}
	return false
}

// Compare orders two values for sorting. Numbers sort before dates, dates
// before text, and missing values sort last.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		return rank(a.Kind) - rank(b.Kind)
	}
	switch a.Kind {
	case KindString:
		return strings.Compare(a.Str, b.Str)
	case KindNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
	case KindTime:
		return a.Time.Compare(b.Time)
	}
	return 0
}

func rank(k Kind) int {
	switch k {
	case KindNumber:
		return 0
	case KindTime:
		return 1
	case KindString:
		return 2
	default:
		return 3
	}
}

// =============================================================================
// ROW AND TABLE
// =============================================================================

// Row is one record of a Table, aligned with Table.Columns.
type Row []Value

// Get returns the value at index i, or missing when i is out of range.
func (r Row) Get(i int) Value {
	if i < 0 || i >= len(r) {
		return Null()
	}
	return r[i]
}

// Table is an ordered set of named columns and the rows beneath them.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of a column, or -1 when absent.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Append adds a row. Short rows are padded with missing values and long
// rows are truncated to the column count.
func (t *Table) Append(values ...Value) {
	row := make(Row, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Cell returns the value of a column in a row, or missing when the column
// does not exist.
func (t *Table) Cell(row int, column string) Value {
	return t.Rows[row].Get(t.Index(column))
}

// Set writes a cell. It is a no-op when the column does not exist.
func (t *Table) Set(row int, column string, v Value) {
	if i := t.Index(column); i >= 0 {
		t.Rows[row][i] = v
	}
}

// Column returns a copy of every value in one column.
func (t *Table) Column(name string) []Value {
	idx := t.Index(name)
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(idx)
	}
	return out
}

// AddColumn appends a column filled with the given value and returns its
// index. An existing column is left untouched.
func (t *Table) AddColumn(name string, fill Value) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	return len(t.Columns) - 1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}

// Select returns a new table holding the named columns in the given order.
// Columns that do not exist are filled with missing values.
func (t *Table) Select(columns ...string) *Table {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	out := New(columns...)
	out.Rows = make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		nr := make(Row, len(columns))
		for i, j := range idx {
			nr[i] = row.Get(j)
		}
		out.Rows[r] = nr
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.Columns...)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, append(Row(nil), row...))
		}
	}
	return out
}
