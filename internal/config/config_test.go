package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadMainConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.True(t, cfg.ArchiveOnSuccess)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "{report}_{timestamp}_{uuid}", cfg.OutputFileNameFormat)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.DirExists(t, filepath.Join(dir, "input"))
	assert.DirExists(t, filepath.Join(dir, "output"))
}

func TestLoadMainConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
input_dir: ` + filepath.Join(dir, "in") + `
output_dir: ` + filepath.Join(dir, "out") + `
input_archive_dir: ` + filepath.Join(dir, "archive") + `
max_concurrency: 2
api:
  base_url: http://localhost:8000/api/
  username: bodega
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PICKING_API_PASSWORD", "secreto")
	t.Setenv("PICKING_MAX_CONCURRENCY", "3")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "in"), cfg.InputDir)
	assert.Equal(t, 3, cfg.MaxConcurrency, "environment wins over the file")
	assert.Equal(t, "http://localhost:8000/api/", cfg.API.BaseURL)
	assert.Equal(t, "bodega", cfg.API.Username)
	assert.Equal(t, "secreto", cfg.API.Password)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestLoadMainConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: 0\ninput_dir: "+dir+"\noutput_dir: "+dir+"\ninput_archive_dir: "+dir+"\n"), 0o644))

	_, err := LoadMainConfig(path)
	assert.ErrorContains(t, err, "max_concurrency")
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Brands, 36)
	assert.Equal(t, "PUNTO DE VENTA-OTROS", c.Brands["CR"])
	assert.Equal(t, "transportadora", c.Drivers[0].Contains)

	// Each call returns an independent copy.
	c.Brands["99"] = "NUEVA"
	assert.NotContains(t, DefaultCatalog().Brands, "99")
}

func TestLoadCatalogMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
brands:
  "99": NUEVA MARCA
drivers:
  - contains: ruta
    category: RUTA
max_origin_length: 9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "NUEVA MARCA", c.Brands["99"])
	assert.Equal(t, "ADORE", c.Brands["32"], "built-in entries survive")
	assert.Equal(t, []DriverRule{{Contains: "ruta", Category: "RUTA"}}, c.Drivers)
	assert.Equal(t, 9, c.MaxOriginLength)
	assert.Equal(t, "OTROS", c.FallbackBrand)
}

func TestLoadCatalogRejectsEmptyRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drivers:\n  - contains: \"\"\n    category: X\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "drivers[0]")
}
