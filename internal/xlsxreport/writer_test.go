package xlsxreport

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/picking-reports/internal/aggregate"
	"github.com/ginjaninja78/picking-reports/internal/table"
)

func driverView() aggregate.View {
	t := table.New("conductor", "codigoZona", "origen", "producto", "Pacas")
	t.Append(table.Text("NORTE"), table.Text("10"), table.Text("INV1"), table.Text("A"), table.NumberText(2, "2"))
	t.Append(table.Text("NORTE"), table.Text("10"), table.Text("INV1"), table.Text("B"), table.NumberText(1, "1"))
	t.Append(table.Text("NORTE"), table.Text("20"), table.Text("INV2"), table.Text("B"), table.NumberText(4, "4"))
	t.Append(table.Text("SUR/ESTE"), table.Text("30"), table.Text("INV3"), table.Text("C"), table.NumberText(1, "1"))
	t.Append(table.Null(), table.Text("40"), table.Text("INV4"), table.Text("D"), table.NumberText(1, "1"))
	return aggregate.View{
		Name:  "conductores",
		Title: "Conductores bultos",
		Keys:  []string{"conductor", "codigoZona", "origen", "producto"},
		Table: t,
	}
}

func mergedRanges(t *testing.T, f *excelize.File, sheet string) []string {
	t.Helper()
	cells, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.GetStartAxis() + ":" + c.GetEndAxis()
	}
	sort.Strings(out)
	return out
}

func TestViewSheets_Partitioned(t *testing.T) {
	sheets, err := ViewSheets(driverView(), "conductor", "SIN_ASIGNAR")
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	assert.Equal(t, "NORTE", sheets[0].Name)
	assert.Equal(t, "Conductores bultos - conductor: NORTE", sheets[0].Title)
	assert.Equal(t, []string{"codigoZona", "origen", "producto", "Pacas"}, sheets[0].Table.Columns)
	assert.True(t, sheets[0].Plan.Mergeable("codigoZona"))
	assert.False(t, sheets[0].Plan.Mergeable("origen"))
	assert.False(t, sheets[0].Plan.Mergeable("Pacas"))

	assert.Equal(t, "SURESTE", sheets[1].Name)
	assert.Equal(t, "Conductores bultos - conductor: SUR/ESTE", sheets[1].Title)
	assert.Equal(t, "SIN_ASIGNAR", sheets[2].Name)
	assert.Equal(t, "Conductores bultos - conductor: SIN_ASIGNAR", sheets[2].Title)
}

func TestWrite(t *testing.T) {
	sheets, err := ViewSheets(driverView(), "conductor", "SIN_ASIGNAR")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.GeneratedAt = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sheets, opts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"NORTE", "SURESTE", "SIN_ASIGNAR"}, f.GetSheetList())

	title, err := f.GetCellValue("NORTE", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Conductores bultos - conductor: NORTE (Generado el: 2024-03-05)", title)

	header, err := f.GetCellValue("NORTE", "C2")
	require.NoError(t, err)
	assert.Equal(t, "producto", header)

	// codigoZona "10" and producto "B" span two rows each; origen never merges.
	assert.Equal(t, []string{"A1:D1", "A3:A4", "C4:C5"}, mergedRanges(t, f, "NORTE"))

	zone, err := f.GetCellValue("NORTE", "A3")
	require.NoError(t, err)
	assert.Equal(t, "10", zone)
	packs, err := f.GetCellValue("NORTE", "D5")
	require.NoError(t, err)
	assert.Equal(t, "4", packs)

	width, err := f.GetColWidth("NORTE", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("codigoZona")+3), width)
}

func TestWrite_SingleSheet(t *testing.T) {
	view := aggregate.ZoneBrandProductSummary(nil)
	sheets, err := ViewSheets(view, "", "SIN_ASIGNAR")
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, view.Title, sheets[0].Name)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sheets, DefaultOptions()))
	assert.NotZero(t, buf.Len())
}

func TestBuild_NoSheets(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	assert.Error(t, err)
}
