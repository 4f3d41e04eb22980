package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/table"
)

func TestBrand(t *testing.T) {
	r := NewResolver(config.DefaultCatalog())

	tests := []struct {
		name       string
		descriptor table.Value
		want       string
	}{
		{"known code", table.Text("[24] ITALCOL CERDOS (4)"), "ITALCOL"},
		{"shared catch-all", table.Text("X02 VARIOS"), "PUNTO DE VENTA-OTROS"},
		{"single character code", table.Text("X1"), "PUNTO DE VENTA-OTROS"},
		{"unknown code passes through", table.Text("AB(12)FOO"), "B("},
		{"empty code uses fallback", table.Text("X"), "OTROS"},
		{"missing descriptor", table.Null(), "OTROS"},
		{"accented runes", table.Text("ÁÑÉ"), "ÑÉ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Brand(tt.descriptor))
		})
	}
}

func TestBrandIsTotal(t *testing.T) {
	r := NewResolver(config.DefaultCatalog())
	for _, s := range []string{"", " ", "(", "()", "ab", "\x00\x01\x02", "日本語テキスト"} {
		assert.NotEmpty(t, r.Brand(table.Text(s)), "input %q", s)
	}
}

func TestBrandWithInjectedCatalog(t *testing.T) {
	catalog := config.DefaultCatalog()
	catalog.Brands = map[string]string{"AB": "ACME"}
	catalog.FallbackBrand = "OTHER"
	r := NewResolver(catalog)

	assert.Equal(t, "ACME", r.Brand(table.Text("XAB-123")))
	assert.Equal(t, "OTHER", r.Brand(table.Null()))

	// The resolver keeps its own copy.
	catalog.Brands["AB"] = "CHANGED"
	assert.Equal(t, "ACME", r.Brand(table.Text("XAB-123")))
}

func TestDriverCategory(t *testing.T) {
	r := NewResolver(config.DefaultCatalog())

	tests := map[string]string{
		"Ruta Santiago Lopez":        "SANTIAGO",
		"JESUS MARTINEZ":             "DARIO",
		"dario":                      "DARIO",
		"Stiven":                     "DAVID",
		"Envío por TRANSPORTADORA":   "TRANSPORTADORA",
		"agencia del sur":            "AGENCIA",
		"Fernando":                   "FERNANDO",
		"sin conductor":              "",
		"":                           "",
		"david y stiven":             "DAVID",
		"transportadora de santiago": "TRANSPORTADORA",
	}
	for label, want := range tests {
		assert.Equal(t, want, r.DriverCategory(label), label)
	}
}

func TestDriverCategoryFirstMatchWins(t *testing.T) {
	catalog := config.DefaultCatalog()
	catalog.Drivers = []config.DriverRule{
		{Contains: "STIVEN", Category: "FIRST"},
		{Contains: "david", Category: "SECOND"},
	}
	r := NewResolver(catalog)

	assert.Equal(t, "FIRST", r.DriverCategory("david stiven"))
}
