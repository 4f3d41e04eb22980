package transform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// ValidateOriginCodes flags, without blocking, extracts where some distinct
// origin code is longer than the catalog limit. Long codes usually mean a
// shifted or concatenated column in the source export.
//
// RETURNS:
//   - A warning listing the offending codes in first-seen order, or nil.
func (tr *Transformer) ValidateOriginCodes(records []Record) *validation.Issue {
	limit := tr.catalog.MaxOriginLength
	seen := make(map[string]bool)
	var long []string
	for _, rec := range records {
		if seen[rec.Origin] {
			continue
		}
		seen[rec.Origin] = true
		if utf8.RuneCountInString(rec.Origin) > limit {
			long = append(long, rec.Origin)
		}
	}
	if len(long) == 0 {
		return nil
	}

	issue := validation.Warning(validation.RuleOriginLength, ColOrigin,
		fmt.Sprintf("review the origin codes, %d exceed %d characters and may be malformed", len(long), limit))
	issue.Value = strings.Join(long, ", ")
	return issue
}
