package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.XLSX", "c.xlsm", "notes.txt", ".hidden.csv", "~$a.xlsx", "sub/d.csv"} {
		touch(t, filepath.Join(dir, name))
	}

	fm := NewFileManager(dir, t.TempDir(), t.TempDir())
	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.XLSX", "b.csv", "c.xlsm"}, names)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "nope"), "", "")
	_, err := fm.DiscoverInputFiles()
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	in, archive := t.TempDir(), t.TempDir()
	src := filepath.Join(in, "picking.xlsx")
	touch(t, src)

	fm := NewFileManager(in, t.TempDir(), archive)
	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(archive, "picking.xlsx"), dst)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(dst))
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	in := t.TempDir()
	src := filepath.Join(in, "picking.csv")
	touch(t, src)

	fm := NewFileManager(in, t.TempDir(), t.TempDir())
	fm.ArchiveOnSuccess = false
	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
	assert.True(t, FileExists(src))
}

func TestArchivePath_TimestampSubdirs(t *testing.T) {
	fm := NewFileManager("in", "out", "arch")
	fm.UseTimestampSubdirs = true
	got := fm.archivePath("in/x.csv", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("arch", "2024", "01", "05", "x.csv"), got)
}

func TestGenerateOutputFileName(t *testing.T) {
	got := GenerateOutputFileName("{report}_{date}_{original}", map[string]string{
		"report":   "bultos",
		"original": "picking lunes",
	}, ".xlsx")
	assert.Regexp(t, regexp.MustCompile(`^bultos_\d{8}_picking lunes\.xlsx$`), got)

	withUUID := GenerateOutputFileName("{report}_{uuid}", map[string]string{"report": "listado"}, ".html")
	assert.Regexp(t, regexp.MustCompile(`^listado_[0-9a-f-]{36}\.html$`), withUUID)

	kept := GenerateOutputFileName("fixed.XLSX", nil, ".xlsx")
	assert.Equal(t, "fixed.XLSX", kept)

	noSlash := GenerateOutputFileName("{original}", map[string]string{"original": "a/b"}, ".xlsx")
	assert.Equal(t, "a_b.xlsx", noSlash)
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "picking.xlsx",
		ErrorType:    "missing_column",
		ErrorMessage: "missing required column(s): Cantidad",
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Errors: 1")
	assert.Contains(t, string(data), "picking.xlsx")
	assert.Contains(t, string(data), "missing_column")
}

func TestWriteSummaryLog(t *testing.T) {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	summary := ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(90 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalRows:       120,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:   "a.xlsx",
			OutputFiles: []string{"out/listado.xlsx", "out/bultos.xlsx"},
			Rows:        120,
		}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "empty input"}},
	}

	path, err := WriteSummaryLog(summary, t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "processing_summary_20240305_100130.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Duration:       1m30s")
	assert.Contains(t, text, "Output:       out/bultos.xlsx")
	assert.Contains(t, text, "Error: empty input")
}
