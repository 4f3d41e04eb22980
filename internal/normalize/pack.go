package normalize

import (
	"regexp"
	"strconv"
)

var packSizePattern = regexp.MustCompile(`\((\d+)\)`)

// ExtractPackSize returns the units-per-pack number written in parentheses
// inside a product descriptor, e.g. 12 for "AB(12)FOO". It returns 1 when no
// such number exists or when the number is zero or too large to parse.
func ExtractPackSize(descriptor string) int {
	m := packSizePattern.FindStringSubmatch(descriptor)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
