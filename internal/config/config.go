// =============================================================================
// Picking Reports - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml, env PICKING_*): directories, naming, API
//   2. Catalog (catalog.yaml, optional): brand codes, driver rules, source
//      column aliases and report labels (see catalog.go)
//
// PRECEDENCE (main config):
//   environment > config file > defaults
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by LoadMainConfig.
// PICKING_API_PASSWORD sets api.password, PICKING_OUTPUT_DIR sets output_dir.
const EnvPrefix = "PICKING"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xlsx and .csv exports.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir" yaml:"input_dir"`

	// OutputDir receives the generated reports and logs.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir" yaml:"input_archive_dir"`

	// ArchiveOnSuccess moves processed inputs to InputArchiveDir.
	// Default: true
	ArchiveOnSuccess bool `mapstructure:"archive_on_success" yaml:"archive_on_success"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFileNameFormat names every report file. Placeholders:
	// {uuid}, {timestamp}, {date}, {time}, {report}, {original}.
	// Default: "{report}_{timestamp}_{uuid}"
	OutputFileNameFormat string `mapstructure:"output_file_name_format" yaml:"output_file_name_format"`

	// HTMLReports also renders the printable HTML documents.
	// Default: true
	HTMLReports bool `mapstructure:"html_reports" yaml:"html_reports"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// CatalogFile points to a YAML catalog. Empty uses the built-in catalog.
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`

	// MaxConcurrency limits how many files are processed at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// API configures the remote persistence API.
	API APIConfig `mapstructure:"api" yaml:"api"`
}

// APIConfig holds the remote API connection settings.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://backoffice.example.com/api/".
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username and Password are used for the JWT login.
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	// Timeout bounds each HTTP request.
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// TokenFile persists access and refresh tokens between runs.
	// Empty keeps tokens in memory only.
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from file, environment and
// defaults.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; defaults and environment still apply.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file exists but cannot be parsed, or validation fails.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyMainConfigDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults registers a default for every key so that
// environment overrides are visible to Unmarshal.
func applyMainConfigDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("archive_on_success", true)
	v.SetDefault("output_file_name_format", "{report}_{timestamp}_{uuid}")
	v.SetDefault("html_reports", true)
	v.SetDefault("catalog_file", "")
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.username", "")
	v.SetDefault("api.password", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.token_file", "")
}

// validateMainConfig validates the main configuration and creates the
// working directories.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1 (got %d)", config.MaxConcurrency)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	for _, dir := range []string{config.InputDir, config.OutputDir, config.InputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
