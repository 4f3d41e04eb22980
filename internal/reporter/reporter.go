// =============================================================================
// Picking Reports - Reporter Module
// =============================================================================
//
// This module orchestrates the report pipeline for a single input file, from
// loading the export to writing every report artifact.
//
// PICKING PIPELINE:
//   1. Load the export (.xlsx or .csv)
//   2. Normalize it into the canonical schema
//   3. Convert to records and check the origin codes
//   4. Decompose quantities into packs and loose units
//   5. Build the aggregated views and their layouts
//   6. Write the spreadsheet and HTML artifacts concurrently
//
// DENIED PIPELINE:
//   1. Load the stock-movement export
//   2. Prepare the denied product lines
//   3. Write the denied spreadsheet and HTML artifacts
//
// CONCURRENCY:
//   A Reporter holds no per-file state. Run and RunDenied can be called from
//   several goroutines at once.
//
// =============================================================================

package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/picking-reports/internal/aggregate"
	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/htmlreport"
	"github.com/ginjaninja78/picking-reports/internal/source"
	"github.com/ginjaninja78/picking-reports/internal/table"
	"github.com/ginjaninja78/picking-reports/internal/transform"
	"github.com/ginjaninja78/picking-reports/internal/validation"
	"github.com/ginjaninja78/picking-reports/internal/xlsxreport"
	"github.com/ginjaninja78/picking-reports/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Outputs lists the written artifacts. It is empty on failure and in dry
	// runs.
	Outputs []string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Issues lists the non-blocking problems found in the input.
	Issues []validation.Issue

	// Table is the normalized picking table, used for API submission.
	// Nil for denied runs and when loading or normalizing fails.
	Table *table.Table

	// Denied holds the prepared lines of a denied run.
	Denied []transform.DeniedLine

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows in the input.
	RowsProcessed int

	// Totals are the whole-extract figures of a picking run.
	Totals aggregate.Totals

	// ZoneFallbacks counts zone cells replaced by the city.
	ZoneFallbacks int

	// FilledCells counts cells written by the forward-fill pass.
	FilledCells int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// REPORTER STRUCTURE
// =============================================================================

// Options controls where and how artifacts are written.
type Options struct {
	// OutputDir receives the artifacts.
	OutputDir string

	// FileNameFormat names each artifact, see utils.GenerateOutputFileName.
	// Default: "{report}_{timestamp}_{uuid}"
	FileNameFormat string

	// HTML also renders the printable documents.
	HTML bool

	// DryRun runs the whole pipeline but writes nothing.
	DryRun bool

	// Now fixes the generation time. Zero means time.Now() at each run.
	Now time.Time
}

// DefaultFileNameFormat is used when Options.FileNameFormat is empty.
const DefaultFileNameFormat = "{report}_{timestamp}_{uuid}"

// OptionsFromConfig builds the options of the main configuration.
func OptionsFromConfig(cfg *config.MainConfig) Options {
	return Options{
		OutputDir:      cfg.OutputDir,
		FileNameFormat: cfg.OutputFileNameFormat,
		HTML:           cfg.HTMLReports,
	}
}

// Reporter runs the report pipelines.
type Reporter struct {
	catalog *config.Catalog
	tr      *transform.Transformer
	opts    Options
	logger  *zap.Logger
}

// New creates a Reporter. A nil logger discards output.
func New(catalog *config.Catalog, opts Options, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FileNameFormat == "" {
		opts.FileNameFormat = DefaultFileNameFormat
	}
	return &Reporter{
		catalog: catalog,
		tr:      transform.New(catalog),
		opts:    opts,
		logger:  logger,
	}
}

// Transformer returns the transformer built from the catalog.
func (r *Reporter) Transformer() *transform.Transformer {
	return r.tr
}

func (r *Reporter) now() time.Time {
	if r.opts.Now.IsZero() {
		return time.Now()
	}
	return r.opts.Now
}

// =============================================================================
// PICKING PIPELINE
// =============================================================================

// Run executes the picking pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (r *Reporter) Run(ctx context.Context, path string) Result {
	start := time.Now()
	now := r.now()
	log := r.logger.With(zap.String("file", filepath.Base(path)))
	result := Result{FilePath: path}

	// =========================================================================
	// STEP 1: LOAD
	// =========================================================================

	raw, err := source.Load(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to load input: %w", err)
		return result
	}
	result.Stats.RowsProcessed = raw.Len()
	log.Debug("loaded input", zap.Int("rows", raw.Len()), zap.Int("columns", len(raw.Columns)))

	// =========================================================================
	// STEP 2: NORMALIZE
	// =========================================================================

	norm, err := r.tr.Normalize(raw)
	if err != nil {
		result.Error = fmt.Errorf("failed to normalize input: %w", err)
		return result
	}
	result.Table = norm.Table
	result.Issues = append(result.Issues, norm.Issues...)
	result.Stats.ZoneFallbacks = norm.ZoneFallbacks
	result.Stats.FilledCells = norm.Filled.Total()
	log.Debug("normalized input",
		zap.Int("zone_fallbacks", norm.ZoneFallbacks),
		zap.Int("filled_cells", norm.Filled.Total()),
		zap.Int("issues", len(norm.Issues)),
	)

	// =========================================================================
	// STEP 3: RECORDS AND ORIGIN CHECK
	// =========================================================================

	records := transform.Records(norm.Table)
	if warning := r.tr.ValidateOriginCodes(records); warning != nil {
		result.Issues = append(result.Issues, *warning)
		log.Warn(warning.Message, zap.String("codes", warning.Value))
	}

	// =========================================================================
	// STEP 4: PACK DECOMPOSITION
	// =========================================================================

	lines := transform.DecomposeQuantity(records)
	result.Stats.Totals = aggregate.Summarize(lines)

	// =========================================================================
	// STEP 5: VIEWS AND LAYOUTS
	// =========================================================================

	artifacts, err := r.pickingArtifacts(raw, records, lines, now, log)
	if err != nil {
		result.Error = fmt.Errorf("failed to lay out reports: %w", err)
		return result
	}

	// =========================================================================
	// STEP 6: WRITE
	// =========================================================================

	if result.Outputs, err = r.write(ctx, path, artifacts, log); err != nil {
		result.Error = fmt.Errorf("failed to write reports: %w", err)
		result.Outputs = nil
		return result
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	log.Info("processed file",
		zap.Int("rows", result.Stats.RowsProcessed),
		zap.Int("orders", result.Stats.Totals.Orders),
		zap.Int64("packs", result.Stats.Totals.Packs),
		zap.Int("outputs", len(result.Outputs)),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)
	return result
}

// Normalize loads and normalizes a picking export without building reports.
func (r *Reporter) Normalize(path string) (*transform.Result, error) {
	raw, err := source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	norm, err := r.tr.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize input: %w", err)
	}
	if warning := r.tr.ValidateOriginCodes(transform.Records(norm.Table)); warning != nil {
		norm.Issues = append(norm.Issues, *warning)
	}
	return norm, nil
}

func (r *Reporter) pickingArtifacts(raw *table.Table, records []transform.Record, lines []transform.Line, now time.Time, log *zap.Logger) ([]artifact, error) {
	unassigned := r.catalog.UnassignedSheet
	xopts := xlsxreport.DefaultOptions()
	xopts.GeneratedAt = now

	workbooks := []workbook{
		{"listado", []aggregate.View{aggregate.ZoneBrandProductSummary(lines)}, ""},
		{"bultos", []aggregate.View{aggregate.BulkPackManifest(lines)}, ""},
		{"bultos_zona", []aggregate.View{aggregate.BulkPackByZone(lines)}, aggregate.ColZoneCode},
		{"regueros", []aggregate.View{aggregate.RemainderManifest(lines)}, ""},
		{"regueros_zona", []aggregate.View{aggregate.RemainderByZoneOrigin(lines)}, aggregate.ColZoneCode},
		{"conductores", []aggregate.View{aggregate.DriverManifest(lines, r.tr.Resolver(), r.catalog.NoPackagesLabel)}, aggregate.ColDriver},
		{"estadisticas", []aggregate.View{aggregate.ZoneStats(lines), aggregate.SalespersonStats(lines)}, ""},
	}

	weights, err := r.tr.WeightRows(raw)
	var missing *validation.MissingColumnError
	switch {
	case errors.As(err, &missing):
		log.Debug("skipping weight summary", zap.Strings("missing", missing.Columns))
	case err != nil:
		return nil, err
	default:
		workbooks = append(workbooks, workbook{"ruta_peso", []aggregate.View{
			aggregate.WeightSummary(weights),
			aggregate.RouteZoneStats(weights, false),
			aggregate.RouteZoneStats(weights, true),
		}, ""})
	}

	var artifacts []artifact
	for _, wb := range workbooks {
		var sheets []xlsxreport.Sheet
		for _, view := range wb.views {
			s, err := xlsxreport.ViewSheets(view, wb.key, unassigned)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", wb.report, err)
			}
			sheets = append(sheets, s...)
		}
		if len(sheets) == 0 {
			log.Debug("nothing to report", zap.String("report", wb.report))
			continue
		}
		artifacts = append(artifacts, xlsxArtifact(wb.report, sheets, xopts))
	}

	if r.opts.HTML {
		meta := htmlreport.NewMetadata(records, now)
		docs := []struct {
			report string
			view   aggregate.View
			layout htmlreport.Layout
		}{
			{"listado", aggregate.BulkPackManifest(lines), htmlreport.ListingLayout},
			{"bultos_zona", aggregate.BulkPackByZone(lines), htmlreport.BulkByZoneLayout},
			{"regueros_zona", aggregate.RemainderByZoneOrigin(lines), htmlreport.RemainderByZoneLayout},
			{"picking", aggregate.RemainderManifest(lines), htmlreport.PickingLayout},
		}
		for _, d := range docs {
			artifacts = append(artifacts, htmlArtifact(d.report, d.view, d.layout, meta, now))
		}
	}

	return artifacts, nil
}

// =============================================================================
// DENIED PIPELINE
// =============================================================================

// RunDenied executes the denied products pipeline for the file.
func (r *Reporter) RunDenied(ctx context.Context, path string) Result {
	start := time.Now()
	now := r.now()
	log := r.logger.With(zap.String("file", filepath.Base(path)))
	result := Result{FilePath: path}

	raw, err := source.Load(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to load input: %w", err)
		return result
	}
	result.Stats.RowsProcessed = raw.Len()

	denied, err := r.tr.PrepareDenied(raw, now)
	if err != nil {
		result.Error = fmt.Errorf("failed to prepare denied products: %w", err)
		return result
	}
	result.Denied = denied.Lines
	result.Issues = denied.Issues
	log.Debug("prepared denied products", zap.Int("lines", len(denied.Lines)), zap.Int("issues", len(denied.Issues)))

	xopts := xlsxreport.DefaultOptions()
	xopts.GeneratedAt = now

	var sheets []xlsxreport.Sheet
	for _, view := range []aggregate.View{aggregate.DeniedByBrand(denied.Lines), aggregate.DeniedDetail(denied.Lines)} {
		s, err := xlsxreport.ViewSheets(view, "", r.catalog.UnassignedSheet)
		if err != nil {
			result.Error = fmt.Errorf("failed to lay out reports: %w", err)
			return result
		}
		sheets = append(sheets, s...)
	}

	artifacts := []artifact{xlsxArtifact("negados", sheets, xopts)}
	if r.opts.HTML {
		meta := htmlreport.NewMetadata(nil, now)
		artifacts = append(artifacts, htmlArtifact("negados", aggregate.DeniedDetail(denied.Lines), htmlreport.DeniedLayout, meta, now))
	}

	if result.Outputs, err = r.write(ctx, path, artifacts, log); err != nil {
		result.Error = fmt.Errorf("failed to write reports: %w", err)
		result.Outputs = nil
		return result
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)
	log.Info("processed denied products",
		zap.Int("rows", result.Stats.RowsProcessed),
		zap.Int("denied_lines", len(denied.Lines)),
		zap.Int("outputs", len(result.Outputs)),
	)
	return result
}

// =============================================================================
// ARTIFACTS
// =============================================================================

// workbook groups views written to one spreadsheet. With a partition key
// every view is split into one sheet per key value.
type workbook struct {
	report string
	views  []aggregate.View
	key    string
}

// artifact is one report file waiting to be written.
type artifact struct {
	report string
	ext    string
	render func(io.Writer) error
}

func xlsxArtifact(report string, sheets []xlsxreport.Sheet, opts xlsxreport.Options) artifact {
	return artifact{report: report, ext: ".xlsx", render: func(w io.Writer) error {
		return xlsxreport.Write(w, sheets, opts)
	}}
}

func htmlArtifact(report string, view aggregate.View, layout htmlreport.Layout, meta htmlreport.Metadata, now time.Time) artifact {
	return artifact{report: report, ext: ".html", render: func(w io.Writer) error {
		return htmlreport.Render(w, view, layout, meta, now)
	}}
}

// write renders the artifacts concurrently. Output paths keep the artifact
// order. A failed artifact removes its partial file; the others are kept.
func (r *Reporter) write(ctx context.Context, input string, artifacts []artifact, log *zap.Logger) ([]string, error) {
	if r.opts.DryRun {
		for _, a := range artifacts {
			log.Info("dry run, not writing", zap.String("report", a.report), zap.String("format", a.ext))
		}
		return nil, nil
	}

	original := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		name := utils.GenerateOutputFileName(r.opts.FileNameFormat, map[string]string{
			"report":   a.report,
			"original": original,
		}, a.ext)
		paths[i] = filepath.Join(r.opts.OutputDir, name)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, a := range artifacts {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writeFile(paths[i], a.render); err != nil {
				return fmt.Errorf("%s%s: %w", a.report, a.ext, err)
			}
			log.Debug("wrote report", zap.String("report", a.report), zap.String("path", paths[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return render(f)
}
