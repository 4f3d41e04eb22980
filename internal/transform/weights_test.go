package transform

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

func TestWeightRows(t *testing.T) {
	tr := New(config.DefaultCatalog())

	raw := table.New("Asociado/Ciudad", "Asociado/Zona", "Nombre de la empresa a mostrar en la factura",
		"Vendedor", "Origen", "ID", "Líneas de factura/Producto/Peso")
	raw.Append(table.Text("Cali"), table.Text("10.Norte"), table.Text("Tienda 1"),
		table.Text("Ana"), table.Text("INV001"), table.Number(7), table.NumberText(1.25, "1.25"))
	raw.Append(table.Text("Cali"), table.Text("10.Norte"), table.Null(),
		table.Text("Ana"), table.Text("INV001"), table.Number(7), table.Number(3))

	rows, err := tr.WeightRows(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1, "rows without a customer are dropped")

	got := rows[0]
	assert.Equal(t, "10.Norte", got.Zone)
	assert.Equal(t, "7", got.ID)
	assert.True(t, got.Weight.Equal(decimal.RequireFromString("1.25")))
}

func TestWeightRows_MissingColumns(t *testing.T) {
	tr := New(config.DefaultCatalog())

	_, err := tr.WeightRows(table.New("Asociado/Ciudad", "Origen"))

	var missing *validation.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Columns, "Peso Total")
	assert.Contains(t, missing.Columns, "Asociado/Zona")
	assert.NotContains(t, missing.Columns, "Origen")

	_, err = tr.WeightRows(table.New())
	assert.ErrorIs(t, err, validation.ErrEmptyInput)
}
