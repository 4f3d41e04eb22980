package table

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"missing", Null(), ""},
		{"empty text is missing", Text(""), ""},
		{"text", Text("ADORE"), "ADORE"},
		{"integer", Number(12), "12"},
		{"fraction", Number(2.5), "2.5"},
		{"source text kept", NumberText(10.5, "10.50"), "10.50"},
		{"date", Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), "2024-03-05"},
		{"date time", Date(time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)), "2024-03-05 14:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
	assert.True(t, Text("").IsMissing())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Number(3).Equal(NumberText(3, "3.0")))
	assert.False(t, Number(3).Equal(Text("3")))
	assert.False(t, Text("a").Equal(Text("b")))
}

func TestCompare(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	values := []Value{Text("b"), Null(), Number(2), Date(day), Text("a"), Number(1)}
	slices.SortStableFunc(values, Compare)

	want := []string{"1", "2", "2024-03-05", "a", "b", ""}
	got := make([]string, len(values))
	for i, v := range values {
		got[i] = v.String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestTableOperations(t *testing.T) {
	tb := New("zona", "cliente")
	tb.Append(Text("10"), Text("Tienda 1"))
	tb.Append(Text("20"))
	tb.Append(Text("30"), Text("Tienda 3"), Text("extra"))

	require.Equal(t, 3, tb.Len())
	assert.True(t, tb.Cell(1, "cliente").IsMissing())
	assert.Len(t, tb.Rows[2], 2)
	assert.True(t, tb.Cell(0, "nope").IsMissing())
	assert.Equal(t, -1, tb.Index("nope"))

	tb.Set(1, "cliente", Text("Tienda 2"))
	tb.Set(1, "nope", Text("ignored"))
	assert.Equal(t, "Tienda 2", tb.Cell(1, "cliente").String())

	idx := tb.AddColumn("peso", Number(0))
	assert.Equal(t, 2, idx)
	assert.Equal(t, idx, tb.AddColumn("peso", Number(9)))
	assert.Equal(t, "0", tb.Cell(2, "peso").String())

	sel := tb.Select("cliente", "falta")
	assert.Equal(t, []string{"cliente", "falta"}, sel.Columns)
	assert.Equal(t, "Tienda 3", sel.Cell(2, "cliente").String())
	assert.True(t, sel.Cell(2, "falta").IsMissing())

	f := tb.Filter(func(r Row) bool { return r[0].String() != "20" })
	assert.Equal(t, 2, f.Len())

	c := tb.Clone()
	c.Set(0, "zona", Text("99"))
	assert.Equal(t, "10", tb.Cell(0, "zona").String())
	assert.Len(t, tb.Column("zona"), 3)

	var nilTable *Table
	assert.Zero(t, nilTable.Len())
}
