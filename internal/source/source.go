// =============================================================================
// Picking Reports - Source Loader
// =============================================================================
//
// This module loads order-management exports into a table.Table, the only
// shape the transformation pipeline accepts.
//
// SUPPORTED FORMATS:
//   .xlsx  First worksheet. Numeric cells stay numbers, cells with a date
//          number format become dates, everything else is text.
//   .csv   Delimiter sniffed from the header line (, ; tab |). Every cell
//          is text; the transformer parses numbers and dates.
//
// COMMON RULES:
//   - The first row holds the headers. Blank headers become Column_N.
//   - Rows with no value at all are skipped.
//   - Surrounding whitespace is trimmed and empty cells are missing.
//
// =============================================================================

package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies an input file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat returns the format of a file from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// Load reads an export file into a table.
//
// RETURNS:
//   - ErrUnsupportedFormat for unknown extensions.
//   - validation.ErrEmptyInput when the file has no header row.
func Load(path string) (*table.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Read(file, format)
}

// Read reads an export of the given format from r.
func Read(r io.Reader, format Format) (*table.Table, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	case FormatCSV:
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// =============================================================================
// XLSX
// =============================================================================

// ReadXLSX reads the first worksheet of a workbook.
func ReadXLSX(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, validation.ErrEmptyInput
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, validation.ErrEmptyInput
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	cells := &cellReader{file: f, sheet: sheet, date1904: date1904, dateStyles: map[int]bool{}}

	t := table.New(cleanHeaders(rows[0])...)
	for r := 1; r < len(rows); r++ {
		if isRowEmpty(rows[r]) {
			continue
		}
		row := make(table.Row, len(t.Columns))
		for c := 0; c < len(t.Columns) && c < len(rows[r]); c++ {
			row[c] = cells.value(c, r, rows[r][c])
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// cellReader types raw worksheet values, caching which styles are dates.
type cellReader struct {
	file       *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (cr *cellReader) value(col, row int, raw string) table.Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table.Null()
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return table.Text(raw)
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return table.NumberText(f, raw)
	}

	if kind, err := cr.file.GetCellType(cr.sheet, axis); err == nil &&
		(kind == excelize.CellTypeSharedString || kind == excelize.CellTypeInlineString) {
		return table.Text(raw)
	}

	if cr.isDate(axis) {
		if t, err := excelize.ExcelDateToTime(f, cr.date1904); err == nil {
			return table.Date(t)
		}
	}

	return table.NumberText(f, raw)
}

func (cr *cellReader) isDate(axis string) bool {
	id, err := cr.file.GetCellStyle(cr.sheet, axis)
	if err != nil || id == 0 {
		return false
	}
	if known, ok := cr.dateStyles[id]; ok {
		return known
	}

	isDate := false
	if style, err := cr.file.GetStyle(id); err == nil {
		isDate = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	cr.dateStyles[id] = isDate
	return isDate
}

var (
	quotedOrBracketed = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]`)
	dateTokens        = regexp.MustCompile(`[ymdhs]`)
)

// isDateNumFmt reports whether a number format renders dates or times.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		code := quotedOrBracketed.ReplaceAllString(strings.ToLower(*custom), "")
		return dateTokens.MatchString(code)
	}
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// =============================================================================
// CSV
// =============================================================================

// ReadCSV reads a delimited text export. Input that is not valid UTF-8 is
// decoded as Windows-1252, the usual encoding of spreadsheet CSV exports.
func ReadCSV(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("failed to decode file: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, validation.ErrEmptyInput
	}

	t := table.New(cleanHeaders(records[0])...)
	for _, rec := range records[1:] {
		if isRowEmpty(rec) {
			continue
		}
		row := make(table.Row, len(t.Columns))
		for c := 0; c < len(t.Columns) && c < len(rec); c++ {
			row[c] = table.Text(strings.TrimSpace(rec[c]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// sniffDelimiter picks the candidate delimiter that occurs most often in the
// header line. Ties go to the earlier candidate.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// =============================================================================
// HELPERS
// =============================================================================

// cleanHeaders trims header values and names blank ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
