package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueError(t *testing.T) {
	is := Malformed(RuleMalformedNumber, "cantidad", 4, "abc", "not a number")
	assert.Equal(t, "[WARNING] row 4, field 'cantidad': not a number (value: 'abc')", is.Error())

	w := Warning(RuleOriginLength, "origen", "origin codes look too long")
	assert.Equal(t, "[WARNING] field 'origen': origin codes look too long", w.Error())
}

func TestMissingColumnError(t *testing.T) {
	err := &MissingColumnError{Columns: []string{"Origen", "Zona"}}
	assert.Equal(t, "missing required column(s): Origen, Zona", err.Error())
}

func TestResult(t *testing.T) {
	var r Result
	r.Add(Malformed(RuleMalformedDate, "fecha", 1, "x", "bad date"))
	assert.True(t, r.IsValid())

	r.Add(Issue{Severity: SeverityError, Rule: RuleMissingColumn, Message: "missing"})
	assert.False(t, r.IsValid())
	assert.Equal(t, 1, r.ErrorCount)
	assert.Equal(t, 1, r.WarningCount)
	assert.Len(t, r.Issues, 2)
}

func TestFormatIssues(t *testing.T) {
	assert.Equal(t, "No validation issues.", FormatIssues(nil))

	out := FormatIssues([]Issue{Malformed(RuleFractional, "cantidad", 2, "1.5", "fractional quantity")})
	assert.Contains(t, out, "1 issue(s)")
	assert.Contains(t, out, "1. [WARNING] row 2, field 'cantidad'")
}

func TestWriteIssueLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv.issues.txt")
	issues := []Issue{Malformed(RuleMalformedNumber, "peso", 3, "n/a", "not a number")}
	require.NoError(t, WriteIssueLog(issues, "export.csv", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Source:    export.csv")
	assert.Contains(t, string(data), "(value: 'n/a')")

	assert.Error(t, WriteIssueLog(issues, "x", filepath.Join(t.TempDir(), "missing", "log.txt")))
}
