// =============================================================================
// Picking Reports - Record Transformer
// =============================================================================
//
// This package turns a raw invoice-line extract into canonical records:
//
//   1. Rename/select source columns into the canonical schema
//   2. Coerce quantity and unit weight to numbers
//   3. Split the compound customer zone into zone code and sub-zone
//   4. Fall back to the city for blank zone fields
//   5. Forward-fill the remaining gaps (explicit, audited repair pass)
//   6. Derive the brand from the product descriptor
//   7. Reorder to the canonical column set and render dates as YYYY-MM-DD
//
// It also decomposes quantities into packs and loose units, flags suspicious
// origin codes, prepares denied-product extracts and shapes API payloads.
//
// =============================================================================

package transform

// Canonical column names. They double as the field names of API payloads,
// including the historical "cuidad" spelling expected by the backend.
const (
	ColCustomerName = "nombreAsociado"
	ColInvoiceDate  = "fechaFactura"
	ColCustomerID   = "identificacionAsociado"
	ColSalesperson  = "vendedor"
	ColQuantity     = "cantidad"
	ColProduct      = "producto"
	ColUnitWeight   = "pesoUnitario"
	ColCity         = "cuidad"
	ColZoneCode     = "codigoZona"
	ColSubZone      = "zona"
	ColOrigin       = "origen"
	ColBrand        = "marca"
	ColExternalID   = "idOdoo"
	ColDriver       = "conductor"

	// ColCompoundZone is the intermediate "code.subzone" source field.
	ColCompoundZone = "zonaAsociadoOriginal"

	// ColCutName is added to every payload record.
	ColCutName = "nombrecorte"
)

// CanonicalColumns is the fixed column order of a normalized table.
var CanonicalColumns = []string{
	ColCustomerName,
	ColInvoiceDate,
	ColCustomerID,
	ColSalesperson,
	ColQuantity,
	ColProduct,
	ColUnitWeight,
	ColCity,
	ColZoneCode,
	ColSubZone,
	ColOrigin,
	ColBrand,
	ColExternalID,
	ColDriver,
}

// sourceFields are the canonical fields read directly from the extract, in
// the order they are selected.
var sourceFields = []string{
	ColCustomerName,
	ColInvoiceDate,
	ColCustomerID,
	ColSalesperson,
	ColQuantity,
	ColProduct,
	ColUnitWeight,
	ColCity,
	ColCompoundZone,
	ColOrigin,
	ColExternalID,
	ColDriver,
}
