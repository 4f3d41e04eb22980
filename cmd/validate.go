// =============================================================================
// Picking Reports - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. Without flags it checks that the
// configuration and the catalog load. With --file it also loads and
// normalizes the export and prints the issues found, writing nothing.
//
// COMMAND USAGE:
//   picking validate [--file F]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/picking-reports/internal/reporter"
	"github.com/ginjaninja78/picking-reports/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, and optionally an export",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration OK: %d brand codes, %d driver rules\n", len(catalog.Brands), len(catalog.Drivers))

		if filePath == "" {
			return nil
		}

		rep := reporter.New(catalog, reporter.OptionsFromConfig(mainConfig), logger)
		norm, err := rep.Normalize(filePath)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d rows, %d zone fallbacks, %d filled cells\n",
			filePath, norm.Table.Len(), norm.ZoneFallbacks, norm.Filled.Total())
		fmt.Fprint(out, validation.FormatIssues(norm.Issues))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&filePath, "file", "", "Export to check")
}
