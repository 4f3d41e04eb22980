// =============================================================================
// Picking Reports - Category Resolver
// =============================================================================
//
// The resolver turns coded fields into human-readable categories:
//   - brand: from the two characters at offset 1-3 of a product descriptor
//   - driver category: from substrings of a free-text driver label
//
// Both lookups are total. They never fail and always return a string.
// Lookup tables come from an injected config.Catalog.
//
// =============================================================================

package category

import (
	"strings"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/table"
)

// Brand code position inside a product descriptor, in runes.
const (
	brandCodeStart = 1
	brandCodeEnd   = 3
)

// Resolver maps product descriptors and driver labels to categories.
// A Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	brands   map[string]string
	fallback string
	drivers  []config.DriverRule
}

// NewResolver builds a resolver from a catalog. The catalog tables are
// copied, so later changes to the catalog do not affect the resolver.
func NewResolver(catalog *config.Catalog) *Resolver {
	brands := make(map[string]string, len(catalog.Brands))
	for code, name := range catalog.Brands {
		brands[code] = name
	}

	drivers := make([]config.DriverRule, len(catalog.Drivers))
	for i, rule := range catalog.Drivers {
		drivers[i] = config.DriverRule{
			Contains: strings.ToLower(rule.Contains),
			Category: rule.Category,
		}
	}

	return &Resolver{
		brands:   brands,
		fallback: catalog.FallbackBrand,
		drivers:  drivers,
	}
}

// Fallback returns the brand used when no code is available.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// BrandCode extracts the lookup code from a descriptor: the runes at offsets
// 1 and 2. Short descriptors yield a shorter (possibly empty) code.
func BrandCode(descriptor string) string {
	runes := []rune(descriptor)
	start, end := brandCodeStart, brandCodeEnd
	if start > len(runes) {
		return ""
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

// Brand resolves the brand of a product descriptor. A code found in the
// catalog returns its brand name; an unknown code is returned unchanged. A
// missing descriptor or an empty code returns the fallback brand.
func (r *Resolver) Brand(descriptor table.Value) string {
	if descriptor.IsMissing() {
		return r.fallback
	}
	code := BrandCode(descriptor.String())
	if code == "" {
		return r.fallback
	}
	if name, ok := r.brands[code]; ok {
		return name
	}
	return code
}

// DriverCategory returns the category of the first rule whose text appears
// in the lower-cased label, or "" when no rule matches. Rules are checked in
// catalog order, so a label containing both "david" and "stiven" resolves by
// whichever rule is listed first.
func (r *Resolver) DriverCategory(label string) string {
	lower := strings.ToLower(label)
	for _, rule := range r.drivers {
		if strings.Contains(lower, rule.Contains) {
			return rule.Category
		}
	}
	return ""
}
