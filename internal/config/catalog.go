package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CATALOG STRUCTURE
// =============================================================================

// Catalog is the static lookup data of the pipeline. It is built once, passed
// to constructors and never modified afterwards.
type Catalog struct {
	// Brands maps the two-character brand code of a product descriptor to a
	// brand name. Several supplier codes share "PUNTO DE VENTA-OTROS".
	Brands map[string]string `yaml:"brands"`

	// FallbackBrand is used when no code can be extracted or the product
	// column is absent.
	// Default: "OTROS"
	FallbackBrand string `yaml:"fallback_brand"`

	// Drivers is the ordered list of driver category rules. The first rule
	// whose text is contained in the lower-cased driver label wins.
	Drivers []DriverRule `yaml:"drivers"`

	// Columns maps each canonical field to the source headers accepted for
	// it. Headers are compared after folding case and accents.
	Columns map[string][]string `yaml:"columns"`

	// DeniedColumns lists the source headers of the denied products export.
	DeniedColumns map[string][]string `yaml:"denied_columns"`

	// WeightColumns lists the source headers used by the weight summary.
	WeightColumns map[string][]string `yaml:"weight_columns"`

	// DateColumns are converted to YYYY-MM-DD even when the cells are text.
	DateColumns []string `yaml:"date_columns"`

	// MaxOriginLength is the longest plausible origin document code.
	// Default: 7
	MaxOriginLength int `yaml:"max_origin_length"`

	// DefaultZone replaces zone values still missing after repair.
	// Default: "Otras Zonas"
	DefaultZone string `yaml:"default_zone"`

	// NoPackagesLabel is the product text of driver manifest rows for
	// origins without packs.
	// Default: "No lleva bultos"
	NoPackagesLabel string `yaml:"no_packages_label"`

	// UnassignedSheet names a sheet whose key sanitizes to nothing.
	// Default: "SIN_ASIGNAR"
	UnassignedSheet string `yaml:"unassigned_sheet"`

	// MissingPlaceholder replaces missing cells in API payloads.
	// Default: "__NAN_PLACEHOLDER__"
	MissingPlaceholder string `yaml:"missing_placeholder"`
}

// DriverRule maps a substring of a driver label to a category.
type DriverRule struct {
	Contains string `yaml:"contains"`
	Category string `yaml:"category"`
}

// =============================================================================
// BUILT-IN CATALOG
// =============================================================================

// DefaultCatalog returns a fresh copy of the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Brands: map[string]string{
			"32": "ADORE",
			"25": "AGRALBA-IVANAGRO",
			"46": "AMALIAS",
			"20": "BIOS",
			"14": "CANAMOR",
			"44": "CIPA",
			"18": "CONTEGRAL GRANDES ESPECIES",
			"19": "FINCA GRANDES ESPECIES",
			"21": "GABRICA",
			"24": "ITALCOL",
			"23": "ITALCOL GRANDES ESPECIES",
			"27": "JAULAS",
			"29": "KITTY PAW",
			"30": "LABORATORIOS ZOO",
			"36": "MAXIPETS",
			"45": "MONAMI",
			"47": "FINOTRATO",
			"26": "NUTRA NUGGETS",
			"38": "PINOMININO",
			"12": "POLAR",
			"00": "PUNTO DE VENTA-OTROS",
			"02": "PUNTO DE VENTA-OTROS",
			"1":  "PUNTO DE VENTA-OTROS",
			"15": "PUNTO DE VENTA-OTROS",
			"17": "PUNTO DE VENTA-OTROS",
			"28": "PUNTO DE VENTA-OTROS",
			"35": "PUNTO DE VENTA-OTROS",
			"39": "PUNTO DE VENTA-OTROS",
			"CR": "PUNTO DE VENTA-OTROS",
			"10": "PUNTOMERCA",
			"37": "PANDAPAN",
			"40": "PURINA",
			"41": "SEMILLAS",
			"42": "SOLLA",
			"43": "SOLLA MASCOTAS",
			"34": "TETRACOLOR",
		},
		FallbackBrand: "OTROS",
		Drivers: []DriverRule{
			{Contains: "transportadora", Category: "TRANSPORTADORA"},
			{Contains: "santiago", Category: "SANTIAGO"},
			{Contains: "edgar", Category: "EDGAR"},
			{Contains: "david", Category: "DAVID"},
			{Contains: "jesus", Category: "DARIO"},
			{Contains: "dario", Category: "DARIO"},
			{Contains: "peligro", Category: "PELIGRO"},
			{Contains: "fabio", Category: "FABIO"},
			{Contains: "stiven", Category: "DAVID"},
			{Contains: "agencia", Category: "AGENCIA"},
			{Contains: "fernando", Category: "FERNANDO"},
		},
		Columns: map[string][]string{
			"nombreAsociado":         {"Nombre de la empresa a mostrar en la factura"},
			"fechaFactura":           {"Fecha de Factura/Recibo"},
			"identificacionAsociado": {"Asociado/Documento de Identificación"},
			"vendedor":               {"Vendedor"},
			"cantidad":               {"Líneas de factura/Cantidad"},
			"producto":               {"Líneas de factura/Producto"},
			"pesoUnitario":           {"Líneas de factura/Producto/Peso"},
			"cuidad":                 {"Asociado/Ciudad"},
			"zonaAsociadoOriginal":   {"Asociado/Zona"},
			"origen":                 {"Origen"},
			"idOdoo":                 {"ID"},
			"conductor":              {"Términos y condiciones"},
		},
		DeniedColumns: map[string][]string{
			"fecha":              {"Fecha Programada"},
			"producto":           {"Movimientos de Existencias/Descripción"},
			"cantidad_real":      {"Movimientos de Existencias/Cantidad Real"},
			"cantidad_reservada": {"Movimientos de Existencias/Cantidad Reservada"},
			"origen":             {"Documento Origen"},
			"referencia":         {"Referencia"},
		},
		WeightColumns: map[string][]string{
			"ciudad":   {"Asociado/Ciudad"},
			"zona":     {"Asociado/Zona"},
			"cliente":  {"Nombre de la empresa a mostrar en la factura"},
			"vendedor": {"Vendedor"},
			"origen":   {"Origen"},
			"id":       {"ID"},
			"peso":     {"Peso Total", "Líneas de factura/Producto/Peso"},
		},
		DateColumns:        []string{"fechaFactura"},
		MaxOriginLength:    7,
		DefaultZone:        "Otras Zonas",
		NoPackagesLabel:    "No lleva bultos",
		UnassignedSheet:    "SIN_ASIGNAR",
		MissingPlaceholder: "__NAN_PLACEHOLDER__",
	}
}

// =============================================================================
// CATALOG LOADING
// =============================================================================

// LoadCatalog reads a YAML catalog on top of the built-in one. Maps in the
// file add to or replace individual entries; lists and scalars replace the
// built-in value. An empty path returns the built-in catalog.
//
// PARAMETERS:
//   - path: The catalog file, or "".
//
// RETURNS:
//   - The merged catalog.
//   - An error if the file cannot be read, parsed or validated.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Validate checks that the catalog can drive the pipeline.
func (c *Catalog) Validate() error {
	if strings.TrimSpace(c.FallbackBrand) == "" {
		return fmt.Errorf("fallback_brand must not be empty")
	}
	for i, rule := range c.Drivers {
		if strings.TrimSpace(rule.Contains) == "" {
			return fmt.Errorf("drivers[%d]: contains must not be empty", i)
		}
		if rule.Category == "" {
			return fmt.Errorf("drivers[%d]: category must not be empty", i)
		}
	}
	for _, field := range []string{"cantidad", "origen"} {
		if len(c.Columns[field]) == 0 {
			return fmt.Errorf("columns.%s needs at least one source header", field)
		}
	}
	if c.MaxOriginLength < 1 {
		return fmt.Errorf("max_origin_length must be positive")
	}
	return nil
}
