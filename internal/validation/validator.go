// =============================================================================
// Picking Reports - Validation Module
// =============================================================================
//
// This module defines how data problems are reported by the pipeline.
//
// ISSUE TAXONOMY:
//   1. Malformed field (warning): one cell could not be parsed and was
//      replaced by a missing marker or a safe default.
//   2. Validation warning (warning): a heuristic data-quality finding, such
//      as implausibly long origin codes. Processing continues.
//   3. Missing column (error): a structurally required source column is
//      absent and has no fallback. Returned as a blocking error.
//   4. Empty input (error): the file has no header row at all.
//
// ERROR HANDLING:
//   - Cell and record problems are collected, never returned as errors
//   - Each issue carries the field, the offending value and the data row
//   - Only whole-table problems stop processing
//
// =============================================================================

package validation

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// =============================================================================
// SEVERITY AND RULES
// =============================================================================

// Severity classifies an issue.
type Severity string

const (
	// SeverityError blocks processing of the table.
	SeverityError Severity = "error"
	// SeverityWarning is reported but processing continues.
	SeverityWarning Severity = "warning"
)

// Rule names used by the pipeline.
const (
	RuleMalformedNumber = "malformed_number"
	RuleFractional      = "fractional_quantity"
	RuleMalformedDate   = "malformed_date"
	RuleOriginLength    = "origin_length"
	RuleMissingColumn   = "missing_column"
)

// ErrEmptyInput is returned when a file has no header row.
var ErrEmptyInput = errors.New("input has no columns")

// =============================================================================
// ISSUE
// =============================================================================

// Issue is a single data-quality finding.
type Issue struct {
	// Severity is "error" or "warning".
	Severity Severity

	// Rule is the rule that produced the issue (see the Rule constants).
	Rule string

	// Field is the column the issue refers to. Empty for table-level issues.
	Field string

	// Value is the offending cell text, when there is one.
	Value string

	// Row is the 1-based data row, or 0 when the issue is not tied to a row.
	Row int

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", strings.ToUpper(string(i.Severity)))
	if i.Row > 0 {
		fmt.Fprintf(&b, "row %d, ", i.Row)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, "field '%s': ", i.Field)
	}
	b.WriteString(i.Message)
	if i.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", i.Value)
	}
	return b.String()
}

// Malformed records a cell that could not be parsed.
func Malformed(rule, field string, row int, value, message string) Issue {
	return Issue{
		Severity: SeverityWarning,
		Rule:     rule,
		Field:    field,
		Value:    value,
		Row:      row,
		Message:  message,
	}
}

// Warning records a non-blocking, table-level finding.
func Warning(rule, field, message string) *Issue {
	return &Issue{
		Severity: SeverityWarning,
		Rule:     rule,
		Field:    field,
		Message:  message,
	}
}

// =============================================================================
// MISSING COLUMN ERROR
// =============================================================================

// MissingColumnError reports required source columns that are absent and
// have no fallback. No partial transformation is produced alongside it.
type MissingColumnError struct {
	Columns []string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// =============================================================================
// RESULT
// =============================================================================

// Result collects the issues raised while processing one table.
type Result struct {
	Issues       []Issue
	ErrorCount   int
	WarningCount int
}

// Add appends issues and updates the counters.
func (r *Result) Add(issues ...Issue) {
	for _, is := range issues {
		r.Issues = append(r.Issues, is)
		if is.Severity == SeverityError {
			r.ErrorCount++
		} else {
			r.WarningCount++
		}
	}
}

// IsValid is true when no blocking issue was recorded.
func (r *Result) IsValid() bool {
	return r.ErrorCount == 0
}

// =============================================================================
// ISSUE FORMATTING
// =============================================================================

// FormatIssues formats issues for display or logging.
//
// PARAMETERS:
//   - issues: The issues to format.
//
// RETURNS:
//   - A formatted string containing all issues.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "No validation issues."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d issue(s):\n\n", len(issues))
	for i := range issues {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, issues[i].Error())
	}
	return builder.String()
}

// WriteIssueLog writes issues to a text file.
//
// PARAMETERS:
//   - issues: The issues to write.
//   - source: The input file the issues belong to.
//   - filePath: The path to the output file.
//
// RETURNS:
//   - An error if writing fails.
func WriteIssueLog(issues []Issue, source, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create issue log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Picking Reports - Issue Log\nSource:    %s\nGenerated: %s\n", source, time.Now().Format("2006-01-02 15:04:05"))
	writer.WriteString("================================================================================\n\n")
	writer.WriteString(FormatIssues(issues))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write issue log: %w", err)
	}
	return nil
}
