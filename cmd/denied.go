// =============================================================================
// Picking Reports - Denied Command
// =============================================================================
//
// This file defines the 'denied' command, which reports the products that
// were requested but not reserved in a stock-movement export.
//
// COMMAND USAGE:
//   picking denied --file F [--submit] [--dry-run]
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/picking-reports/internal/reporter"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

var deniedCmd = &cobra.Command{
	Use:   "denied",
	Short: "Build the denied products report of a stock-movement export",
	Long: `The denied command reads a stock-movement export, keeps the lines where
fewer units were reserved than requested and writes the denied products
report. With --submit the denied lines are also uploaded to the API.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if filePath == "" {
			return errors.New("--file is required")
		}

		opts := reporter.OptionsFromConfig(mainConfig)
		opts.DryRun = dryRun
		rep := reporter.New(catalog, opts, logger)

		res := rep.RunDenied(cmd.Context(), filePath)
		if !res.Success {
			return res.Error
		}
		for _, is := range res.Issues {
			logger.Warn(is.Error())
		}
		for _, out := range res.Outputs {
			logger.Info("wrote report", zap.String("path", out))
		}

		if !submit || dryRun {
			return nil
		}
		if len(res.Denied) == 0 {
			logger.Info("no denied products to upload")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		payload := rep.Transformer().Payload(transform.DeniedTable(res.Denied), nil)
		up, err := client.UploadDenied(cmd.Context(), payload)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		logger.Info("uploaded denied products", zap.Int("sent", len(payload)), zap.Int("saved", up.Saved))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deniedCmd)

	deniedCmd.Flags().StringVar(&filePath, "file", "", "Stock-movement export to process")
	deniedCmd.Flags().BoolVar(&submit, "submit", false, "Upload the denied lines to the API")
	deniedCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing reports")
}
