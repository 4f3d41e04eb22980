// =============================================================================
// Picking Reports - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command of the tool. It
// runs the picking pipeline over the exports of the input directory.
//
// COMMAND USAGE:
//   picking process [flags]
//
// FLAGS:
//   --file      : Process only this file instead of scanning the input directory
//   --dry-run   : Run the pipeline without writing reports or archiving
//   --submit    : Upload the normalized records after the reports are written
//   --cut-name  : Name of the cut created for the upload (with --submit)
//   --cut-date  : Date of the cut, YYYY-MM-DD (default today)
//
// PROCESSING PIPELINE:
//   1. Discover .xlsx/.csv exports in the input directory
//   2. For each file (concurrently, at most max_concurrency at once):
//      a. Load and normalize the export
//      b. Build the aggregated views
//      c. Write the spreadsheet and HTML reports
//   3. Optionally create a cut and upload every normalized file
//   4. Archive processed files
//   5. Write the summary and error logs
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/picking-reports/internal/reporter"
	"github.com/ginjaninja78/picking-reports/internal/validation"
	"github.com/ginjaninja78/picking-reports/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// dryRun runs the pipeline without writing reports.
	dryRun bool

	// filePath restricts processing to one file.
	filePath string

	// submit uploads normalized records to the API.
	submit bool

	// cutName and cutDate describe the cut created for an upload.
	cutName string
	cutDate string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build the picking reports of every export in the input directory",
	Long: `The process command scans the input directory for .xlsx and .csv exports,
normalizes each one and writes its reports to the output directory.

Files are processed concurrently. An error in one file does not stop the
others.

On successful processing:
  - The reports are placed in the output directory
  - The export is moved to the input archive
  - A summary log is written

On error:
  - An error log is created in the output directory
  - The export remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if submit && cutName == "" {
			return errors.New("--cut-name is required with --submit")
		}
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing reports")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process only this file")
	processCmd.Flags().BoolVar(&submit, "submit", false, "Upload the normalized records to the API")
	processCmd.Flags().StringVar(&cutName, "cut-name", "", "Name of the cut created for the upload")
	processCmd.Flags().StringVar(&cutDate, "cut-date", "", "Date of the cut, YYYY-MM-DD (default today)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the picking pipeline over every input file.
func runProcess(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	fm := fileManager()
	if dryRun {
		fm.ArchiveOnSuccess = false
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles := []string{filePath}
	if filePath == "" {
		var err error
		if inputFiles, err = fm.DiscoverInputFiles(); err != nil {
			return err
		}
	}
	if len(inputFiles) == 0 {
		logger.Info("no exports found", zap.String("input_dir", mainConfig.InputDir))
		return nil
	}
	logger.Info("processing files", zap.Int("files", len(inputFiles)), zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	opts := reporter.OptionsFromConfig(mainConfig)
	opts.DryRun = dryRun
	rep := reporter.New(catalog, opts, logger)

	results := make([]reporter.Result, len(inputFiles))
	var g errgroup.Group
	g.SetLimit(mainConfig.MaxConcurrency)
	for i, file := range inputFiles {
		i, file := i, file
		g.Go(func() error {
			results[i] = rep.Run(ctx, file)
			return nil
		})
	}
	g.Wait()

	// =========================================================================
	// STEP 3: SUBMIT
	// =========================================================================

	if submit && !dryRun {
		if err := submitResults(ctx, rep, results); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 4: ARCHIVE, SUMMARY AND ERROR LOG
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}
	var failures []utils.ErrorLogEntry
	for _, res := range results {
		name := filepath.Base(res.FilePath)
		if !res.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: res.Error.Error(),
			})
			failures = append(failures, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     name,
				ErrorType:    errorType(res.Error),
				ErrorMessage: res.Error.Error(),
			})
			logger.Error("file failed", zap.String("file", name), zap.Error(res.Error))
			continue
		}

		info := utils.ProcessedFileInfo{
			InputFile:   name,
			OutputFiles: res.Outputs,
			Rows:        res.Stats.RowsProcessed,
			Issues:      len(res.Issues),
			ProcessTime: res.Stats.ProcessingTime,
		}
		if filePath == "" {
			archived, err := fm.ArchiveInputFile(res.FilePath)
			if err != nil {
				logger.Warn("failed to archive file", zap.String("file", name), zap.Error(err))
			} else if archived != res.FilePath {
				info.ArchivePath = archived
			}
		}
		if len(res.Issues) > 0 && !dryRun {
			logPath := filepath.Join(mainConfig.OutputDir, name+".issues.txt")
			if err := validation.WriteIssueLog(res.Issues, name, logPath); err != nil {
				logger.Warn("failed to write issue log", zap.String("file", name), zap.Error(err))
			}
		}

		summary.SuccessfulFiles++
		summary.TotalRows += res.Stats.RowsProcessed
		summary.TotalLines += res.Stats.Totals.Lines
		summary.TotalIssues += len(res.Issues)
		summary.ProcessedFiles = append(summary.ProcessedFiles, info)
	}
	summary.EndTime = time.Now()

	if !dryRun {
		if path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write summary", zap.Error(err))
		} else {
			logger.Debug("wrote summary", zap.String("path", path))
		}
		if path, err := utils.WriteErrorLog(failures, mainConfig.OutputDir); err != nil {
			logger.Warn("failed to write error log", zap.Error(err))
		} else if path != "" {
			logger.Info("errors have been logged", zap.String("path", path))
		}
	}

	logger.Info("processing complete",
		zap.Int("total", summary.TotalFiles),
		zap.Int("successful", summary.SuccessfulFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.Duration("elapsed", summary.EndTime.Sub(startTime)),
	)

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// submitResults creates one cut and uploads the normalized table of every
// successful file to it.
func submitResults(ctx context.Context, rep *reporter.Reporter, results []reporter.Result) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	date, err := parseCutDate(cutDate)
	if err != nil {
		return err
	}

	cut, err := client.CreateCut(ctx, cutName, date)
	if err != nil {
		return fmt.Errorf("failed to create cut: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(mainConfig.MaxConcurrency)
	for i := range results {
		res := &results[i]
		if !res.Success || res.Table == nil {
			continue
		}
		g.Go(func() error {
			payload := rep.Transformer().Payload(res.Table, cut.ID)
			up, err := client.UploadPicking(ctx, payload)
			if err != nil {
				res.Success = false
				res.Error = fmt.Errorf("upload failed: %w", err)
				return nil
			}
			logger.Info("uploaded records",
				zap.String("file", filepath.Base(res.FilePath)),
				zap.String("cut", cut.ID.String()),
				zap.Int("saved", up.Saved),
			)
			return nil
		})
	}
	return g.Wait()
}

// errorType classifies a pipeline error for the error log.
func errorType(err error) string {
	var missing *validation.MissingColumnError
	switch {
	case errors.As(err, &missing):
		return "missing_column"
	case errors.Is(err, validation.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "processing"
	}
}
