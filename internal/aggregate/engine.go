// =============================================================================
// Picking Reports - Aggregation Engine
// =============================================================================
//
// This package groups records by an ordered tuple of key fields and computes
// one or more measures per group. It is generic over the record type, so the
// same engine serves invoice lines, denied lines and raw weight rows.
//
// SEMANTICS:
//   - A group exists per distinct key tuple; rows with an empty key field
//     are dropped unless the key is marked KeepEmpty
//   - Output rows are sorted ascending by the key tuple
//   - The output is a table.Table: key columns first, then measure columns
//   - Empty input yields an empty table with the right columns
//
// MEASURES:
//   SumInt, SumDecimal   exact sums
//   CountDistinct        distinct values, empty values included
//   NUnique              distinct non-empty values
//   JoinUnique           distinct non-empty values in first-seen order
//
// =============================================================================

package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/picking-reports/internal/table"
)

// DefaultSeparator joins the values of a JoinUnique measure.
const DefaultSeparator = ", "

// =============================================================================
// KEYS AND MEASURES
// =============================================================================

// Key is one grouping field.
type Key[T any] struct {
	// Name is the output column name.
	Name string

	// Get extracts the key text from a record. "" means missing.
	Get func(T) string

	// KeepEmpty keeps records whose key is "" as their own group instead of
	// dropping them.
	KeepEmpty bool
}

// Measure is one summary column computed per group.
type Measure[T any] struct {
	// Name is the output column name.
	Name string

	newAcc func() accumulator[T]
}

type accumulator[T any] interface {
	add(T)
	value() table.Value
}

// Spec describes one aggregation.
type Spec[T any] struct {
	Keys     []Key[T]
	Measures []Measure[T]

	// Filter, when set, drops records before grouping.
	Filter func(T) bool
}

// Columns returns the output column names of the spec.
func (s Spec[T]) Columns() []string {
	cols := make([]string, 0, len(s.Keys)+len(s.Measures))
	for _, k := range s.Keys {
		cols = append(cols, k.Name)
	}
	for _, m := range s.Measures {
		cols = append(cols, m.Name)
	}
	return cols
}

// KeyColumns returns the names of the grouping columns.
func (s Spec[T]) KeyColumns() []string {
	cols := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		cols[i] = k.Name
	}
	return cols
}

// =============================================================================
// AGGREGATE
// =============================================================================

type group[T any] struct {
	key  []string
	accs []accumulator[T]
}

// Aggregate groups rows by the spec keys and computes the spec measures.
func Aggregate[T any](rows []T, spec Spec[T]) *table.Table {
	groups := make(map[string]*group[T])
	var order []*group[T]

next:
	for _, row := range rows {
		if spec.Filter != nil && !spec.Filter(row) {
			continue
		}

		key := make([]string, len(spec.Keys))
		for i, k := range spec.Keys {
			key[i] = k.Get(row)
			if key[i] == "" && !k.KeepEmpty {
				continue next
			}
		}

		id := strings.Join(key, "\x1f")
		g, ok := groups[id]
		if !ok {
			g = &group[T]{key: key, accs: make([]accumulator[T], len(spec.Measures))}
			for i, m := range spec.Measures {
				g.accs[i] = m.newAcc()
			}
			groups[id] = g
			order = append(order, g)
		}
		for _, acc := range g.accs {
			acc.add(row)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessKey(order[i].key, order[j].key)
	})

	out := table.New(spec.Columns()...)
	out.Rows = make([]table.Row, 0, len(order))
	for _, g := range order {
		row := make(table.Row, 0, len(g.key)+len(g.accs))
		for _, k := range g.key {
			row = append(row, table.Text(k))
		}
		for _, acc := range g.accs {
			row = append(row, acc.value())
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func lessKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// =============================================================================
// MEASURE CONSTRUCTORS
// =============================================================================

// SumInt sums an integer field.
func SumInt[T any](name string, get func(T) int64) Measure[T] {
	return Measure[T]{Name: name, newAcc: func() accumulator[T] { return &sumInt[T]{get: get} }}
}

// SumDecimal sums a decimal field exactly.
func SumDecimal[T any](name string, get func(T) decimal.Decimal) Measure[T] {
	return Measure[T]{Name: name, newAcc: func() accumulator[T] { return &sumDecimal[T]{get: get, sum: decimal.Zero} }}
}

// CountDistinct counts distinct values of a field, counting "" as a value.
func CountDistinct[T any](name string, get func(T) string) Measure[T] {
	return Measure[T]{Name: name, newAcc: func() accumulator[T] {
		return &distinct[T]{get: get, seen: map[string]bool{}, keepEmpty: true}
	}}
}

// NUnique counts distinct non-empty values of a field.
func NUnique[T any](name string, get func(T) string) Measure[T] {
	return Measure[T]{Name: name, newAcc: func() accumulator[T] {
		return &distinct[T]{get: get, seen: map[string]bool{}}
	}}
}

// JoinUnique joins the distinct non-empty values of a field in first-seen
// order.
func JoinUnique[T any](name string, get func(T) string, sep string) Measure[T] {
	return Measure[T]{Name: name, newAcc: func() accumulator[T] {
		return &joinUnique[T]{get: get, sep: sep, seen: map[string]bool{}}
	}}
}

type sumInt[T any] struct {
	get func(T) int64
	sum int64
}

func (s *sumInt[T]) add(row T) { s.sum += s.get(row) }

func (s *sumInt[T]) value() table.Value {
	return table.NumberText(float64(s.sum), strconv.FormatInt(s.sum, 10))
}

type sumDecimal[T any] struct {
	get func(T) decimal.Decimal
	sum decimal.Decimal
}

func (s *sumDecimal[T]) add(row T) { s.sum = s.sum.Add(s.get(row)) }

func (s *sumDecimal[T]) value() table.Value {
	f, _ := s.sum.Float64()
	return table.NumberText(f, s.sum.String())
}

type distinct[T any] struct {
	get       func(T) string
	seen      map[string]bool
	keepEmpty bool
}

func (d *distinct[T]) add(row T) {
	v := d.get(row)
	if v == "" && !d.keepEmpty {
		return
	}
	d.seen[v] = true
}

func (d *distinct[T]) value() table.Value {
	n := len(d.seen)
	return table.NumberText(float64(n), strconv.Itoa(n))
}

type joinUnique[T any] struct {
	get    func(T) string
	sep    string
	seen   map[string]bool
	values []string
}

func (j *joinUnique[T]) add(row T) {
	v := j.get(row)
	if v == "" || j.seen[v] {
		return
	}
	j.seen[v] = true
	j.values = append(j.values, v)
}

func (j *joinUnique[T]) value() table.Value {
	return table.Text(strings.Join(j.values, j.sep))
}
