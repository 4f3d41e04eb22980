package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldHeader reduces a column header to a comparison key: trimmed, lower
// case, accents removed and inner whitespace collapsed to one space.
// "  Líneas de factura/Cantidad " and "lineas de factura/cantidad" fold to
// the same key.
func FoldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, drop combining marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(folded), " ")
}

// HeaderIndex maps folded header keys to column positions. The first
// column wins when two headers fold to the same key.
func HeaderIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		key := FoldHeader(c)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}
