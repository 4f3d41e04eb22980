package reporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/transform"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var generatedAt = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

const pickingCSV = `Nombre de la empresa a mostrar en la factura,Fecha de Factura/Recibo,Vendedor,Líneas de factura/Cantidad,Líneas de factura/Producto,Líneas de factura/Producto/Peso,Asociado/Ciudad,Asociado/Zona,Origen,ID,Términos y condiciones
Tienda 1,2024-03-01,Ana,13,[3201] Croqueta (6),2.5,Cali,10.Norte,INV001,7,Santiago Perez
,,,4,[2001] Bios (10),1,,,INV001,7,
Tienda 2,2024-03-01,Luis,5,[2001] Bios (10),1,Palmira,20.Sur,INV002,8,Edgar
`

const deniedCSV = `Fecha Programada,Movimientos de Existencias/Descripción,Movimientos de Existencias/Cantidad Real,Movimientos de Existencias/Cantidad Reservada,Documento Origen,Referencia
2024-03-01,[3201] Croqueta (6),10,4,INV001,REF1
2024-03-01,[2001] Bios (10),5,5,INV002,REF2
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newReporter(t *testing.T, opts Options) *Reporter {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	opts.Now = generatedAt
	return New(config.DefaultCatalog(), opts, zaptest.NewLogger(t))
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func TestRun_WritesEveryReport(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Options{OutputDir: out, FileNameFormat: "{original}_{report}", HTML: true})

	res := r.Run(context.Background(), writeInput(t, "picking.csv", pickingCSV))
	require.NoError(t, res.Error)
	require.True(t, res.Success)

	assert.ElementsMatch(t, []string{
		"picking_listado.xlsx",
		"picking_bultos.xlsx",
		"picking_bultos_zona.xlsx",
		"picking_regueros.xlsx",
		"picking_regueros_zona.xlsx",
		"picking_conductores.xlsx",
		"picking_estadisticas.xlsx",
		"picking_ruta_peso.xlsx",
		"picking_listado.html",
		"picking_bultos_zona.html",
		"picking_regueros_zona.html",
		"picking_picking.html",
	}, baseNames(res.Outputs))
	for _, p := range res.Outputs {
		assert.FileExists(t, p)
	}

	assert.Equal(t, 3, res.Stats.RowsProcessed)
	assert.Equal(t, 2, res.Stats.Totals.Orders)
	assert.Equal(t, int64(2), res.Stats.Totals.Packs)
	assert.NotNil(t, res.Table)
	assert.Equal(t, 3, res.Table.Len())
}

func TestRun_DriverWorkbook(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Options{OutputDir: out, FileNameFormat: "{report}"})

	res := r.Run(context.Background(), writeInput(t, "picking.csv", pickingCSV))
	require.NoError(t, res.Error)

	f, err := excelize.OpenFile(filepath.Join(out, "conductores.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"EDGAR", "SANTIAGO"}, f.GetSheetList())

	title, err := f.GetCellValue("EDGAR", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Conductores bultos - conductor: EDGAR (Generado el: 2024-03-05)", title)

	// INV002 has no packs, so it shows up once with the sentinel product.
	product, err := f.GetCellValue("EDGAR", "D3")
	require.NoError(t, err)
	assert.Equal(t, "No lleva bultos", product)
}

func TestRun_NoHTML(t *testing.T) {
	r := newReporter(t, Options{FileNameFormat: "{report}"})

	res := r.Run(context.Background(), writeInput(t, "picking.csv", pickingCSV))
	require.NoError(t, res.Error)
	for _, p := range res.Outputs {
		assert.True(t, strings.HasSuffix(p, ".xlsx"), p)
	}
}

func TestRun_DryRun(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Options{OutputDir: out, HTML: true, DryRun: true})

	res := r.Run(context.Background(), writeInput(t, "picking.csv", pickingCSV))
	require.NoError(t, res.Error)
	assert.True(t, res.Success)
	assert.Empty(t, res.Outputs)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_MissingColumn(t *testing.T) {
	input := writeInput(t, "bad.csv", "Origen,Vendedor\nINV001,Ana\n")
	r := newReporter(t, Options{})

	res := r.Run(context.Background(), input)
	assert.False(t, res.Success)

	var missing *validation.MissingColumnError
	require.True(t, errors.As(res.Error, &missing), "got %v", res.Error)
	assert.Nil(t, res.Table)
	assert.Empty(t, res.Outputs)
}

func TestRun_UnsupportedFormat(t *testing.T) {
	r := newReporter(t, Options{})
	res := r.Run(context.Background(), writeInput(t, "picking.pdf", "x"))
	assert.False(t, res.Success)
	assert.Error(t, res.Error)
}

func TestRun_CanceledContext(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Options{OutputDir: out})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.Run(ctx, writeInput(t, "picking.csv", pickingCSV))

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Error, context.Canceled)
	assert.Empty(t, res.Outputs)
}

func TestNormalize(t *testing.T) {
	r := newReporter(t, Options{})

	norm, err := r.Normalize(writeInput(t, "picking.csv", pickingCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, norm.Table.Len())
	assert.Equal(t, 0, norm.ZoneFallbacks)
	assert.Equal(t, "10", norm.Table.Cell(1, transform.ColZoneCode).String(), "sparse row is repaired by the fill pass")
	assert.Equal(t, "Tienda 1", norm.Table.Cell(1, transform.ColCustomerName).String())
}

func TestRunDenied(t *testing.T) {
	out := t.TempDir()
	r := newReporter(t, Options{OutputDir: out, FileNameFormat: "{report}", HTML: true})

	res := r.RunDenied(context.Background(), writeInput(t, "negados.csv", deniedCSV))
	require.NoError(t, res.Error)
	require.True(t, res.Success)

	require.Len(t, res.Denied, 1)
	assert.Equal(t, "6", res.Denied[0].Denied.String())
	assert.Equal(t, "ADORE", res.Denied[0].Brand)
	assert.ElementsMatch(t, []string{"negados.xlsx", "negados.html"}, baseNames(res.Outputs))

	f, err := excelize.OpenFile(filepath.Join(out, "negados.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Producto negado por marca", "Producto negado"}, f.GetSheetList())
}
