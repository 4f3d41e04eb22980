// =============================================================================
// Picking Reports - Submit Command
// =============================================================================
//
// This file defines the 'submit' command, which normalizes one export and
// uploads it to the back-office API without writing reports.
//
// COMMAND USAGE:
//   picking submit --file F --cut-name N [--cut-date YYYY-MM-DD]
//
// API SESSION:
//   Credentials come from the api.* settings (PICKING_API_USERNAME,
//   PICKING_API_PASSWORD). With api.token_file set, the session survives
//   between runs.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/picking-reports/internal/api"
	"github.com/ginjaninja78/picking-reports/internal/reporter"
	"github.com/ginjaninja78/picking-reports/pkg/utils"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Normalize an export and upload it to the API",
	Long: `The submit command normalizes a picking export, creates a cut on the
back-office API and uploads every normalized line to it. No report is
written and the export is not archived.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if filePath == "" {
			return errors.New("--file is required")
		}
		if cutName == "" {
			return errors.New("--cut-name is required")
		}

		rep := reporter.New(catalog, reporter.OptionsFromConfig(mainConfig), logger)
		norm, err := rep.Normalize(filePath)
		if err != nil {
			return err
		}
		for _, is := range norm.Issues {
			logger.Warn(is.Error())
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		date, err := parseCutDate(cutDate)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		cut, err := client.CreateCut(ctx, cutName, date)
		if err != nil {
			return fmt.Errorf("failed to create cut: %w", err)
		}
		res, err := client.UploadPicking(ctx, rep.Transformer().Payload(norm.Table, cut.ID))
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		logger.Info("upload complete",
			zap.String("cut", cut.ID.String()),
			zap.String("cut_name", cut.Name),
			zap.Int("sent", norm.Table.Len()),
			zap.Int("saved", res.Saved),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&filePath, "file", "", "Export to upload")
	submitCmd.Flags().StringVar(&cutName, "cut-name", "", "Name of the cut to create")
	submitCmd.Flags().StringVar(&cutDate, "cut-date", "", "Date of the cut, YYYY-MM-DD (default today)")
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// newAPIClient builds the API client of the main configuration.
func newAPIClient() (*api.Client, error) {
	var store api.TokenStore = &api.MemoryStore{}
	if mainConfig.API.TokenFile != "" {
		store = api.NewFileStore(mainConfig.API.TokenFile)
	}
	client, err := api.New(mainConfig.API, store, api.WithLogger(logger.Named("api")))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// parseCutDate parses a YYYY-MM-DD date. Empty means today.
func parseCutDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --cut-date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// fileManager builds the file manager of the main configuration.
func fileManager() *utils.FileManager {
	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
	fm.ArchiveOnSuccess = mainConfig.ArchiveOnSuccess
	return fm
}
