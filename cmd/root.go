// =============================================================================
// Picking Reports - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (picking)
//   ├── processCmd  (picking process)
//   ├── deniedCmd   (picking denied)
//   ├── submitCmd   (picking submit)
//   ├── validateCmd (picking validate)
//   └── versionCmd  (picking version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --catalog, --verbose)
//   2. Loading the main configuration and the catalog
//   3. Building the logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/picking-reports/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// catalogFile overrides catalog_file from the main configuration.
var catalogFile string

// verbose enables debug logging.
var verbose bool

// Loaded by PersistentPreRunE for the subcommands.
var (
	mainConfig *config.MainConfig
	catalog    *config.Catalog
	logger     = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "picking",
	Short: "Picking Reports - Turn order-management exports into picking reports",
	Long: `Picking Reports cleans invoice-line exports from the order-management
system and turns them into the operational reports used on the warehouse
floor: product listings, bulk pack and loose unit manifests, driver route
sheets and weight summaries.

Key Features:
  - Accepts .xlsx and .csv exports with sparse, inconsistently named columns
  - Repairs zones and sparse cells with an audited fill pass
  - Writes spreadsheet reports with merged group cells, plus HTML documents
  - Optionally uploads the cleaned records to the back-office API

Example Usage:
  picking process                       # Process every export in the input directory
  picking process --file ./lunes.xlsx   # Process a single export
  picking denied --file ./negados.xlsx  # Denied products report
  picking validate --file ./lunes.xlsx  # Check an export without writing reports`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.HasParent() || cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initialize()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Sync fails on terminals; nothing useful can be done about it.
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&catalogFile,
		"catalog",
		"",
		"Path to a catalog file (overrides catalog_file)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initialize loads the configuration and the catalog and builds the logger.
func initialize() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	mainConfig = cfg

	if logger, err = newLogger(cfg.LogLevel, verbose); err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	path := cfg.CatalogFile
	if catalogFile != "" {
		path = catalogFile
	}
	if catalog, err = config.LoadCatalog(path); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("catalog", path),
		zap.String("input_dir", cfg.InputDir),
		zap.String("output_dir", cfg.OutputDir),
	)
	return nil
}

// newLogger builds a console logger at the configured level. verbose forces
// debug.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.DisableStacktrace = !verbose
	return zcfg.Build()
}
