// =============================================================================
// Excel Analytics - Converter Module
// =============================================================================
//
// This module contains the per-file pipeline. It turns one uploaded file into
// one chart payload document.
//
// CONVERSION PIPELINE:
//   1. Load the upload (.json, .csv or .xlsx) into a raw payload
//   2. Locate and normalize the table inside the payload
//   3. Analyze column types
//   4. Validate the job's axis selection against the table
//   5. Build the chart payload
//   6. Apply the job's label rules
//   7. Write the payload file
//   8. Archive the processed files
//
// CONCURRENCY:
//   Each file is processed by its own Converter. Converters share nothing
//   but the logger, so many can run at once.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/excel-analytics/internal/chartpayload"
	"github.com/ginjaninja78/excel-analytics/internal/coltype"
	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/csvparser"
	"github.com/ginjaninja78/excel-analytics/internal/format"
	"github.com/ginjaninja78/excel-analytics/internal/logging"
	"github.com/ginjaninja78/excel-analytics/internal/normalizer"
	"github.com/ginjaninja78/excel-analytics/internal/payloadwriter"
	"github.com/ginjaninja78/excel-analytics/internal/rawjson"
	"github.com/ginjaninja78/excel-analytics/internal/validation"
	"github.com/ginjaninja78/excel-analytics/internal/xlsxparser"
	"github.com/ginjaninja78/excel-analytics/pkg/utils"
	"github.com/google/uuid"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Stage names the pipeline step a file failed in.
type Stage string

const (
	StageInput         Stage = "input"
	StageNormalization Stage = "normalization"
	StageValidation    Stage = "validation"
	StagePayload       Stage = "payload"
	StageOutput        Stage = "output"
)

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// JobCode is the job the file was processed with.
	JobCode string

	// OutputFile is the path to the generated payload.
	// This is empty if processing failed or for dry runs.
	OutputFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// FailedStage is the step that produced Error.
	FailedStage Stage

	// Issues holds every validation issue, warnings included.
	Issues []*validation.Issue

	// Payload is the built payload, nil if building failed.
	Payload *chartpayload.ChartPayload

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Rows is the number of table rows plotted.
	Rows int

	// Columns is the number of table columns.
	Columns int

	// Datasets is the number of Y series.
	Datasets int

	// Strategy is the recognizer that located the table.
	Strategy normalizer.Strategy

	// Fallbacks counts cells that were plotted as 0.
	Fallbacks format.FallbackStats

	// Warnings is the number of validation warnings.
	Warnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single upload to a chart payload.
type Converter struct {
	// inputPath is the path to the uploaded file.
	inputPath string

	// job is the chart job the file matched.
	job *config.JobConfig

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// files handles output naming and archival.
	files *utils.FileManager

	logger logging.Logger

	// dryRun stops the pipeline before anything is written.
	dryRun bool
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the uploaded file.
//   - job: The chart job configuration.
//   - mainConfig: The main application configuration.
//   - logger: The logger; nil discards log output.
func New(inputPath string, job *config.JobConfig, mainConfig *config.MainConfig, logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.Nop
	}

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.ArchiveOnSuccess = mainConfig.ArchiveOnSuccess

	return &Converter{
		inputPath:  inputPath,
		job:        job,
		mainConfig: mainConfig,
		files:      files,
		logger:     logger,
	}
}

// WithDryRun makes Run stop after the payload is built and encoded.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{
		FilePath: c.inputPath,
		JobCode:  c.job.JobCode,
	}
	fail := func(stage Stage, err error) Result {
		result.FailedStage = stage
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	c.logger.Info("Processing file: %s (job %s)", c.inputPath, c.job.JobCode)

	// =========================================================================
	// STEP 1: LOAD UPLOAD
	// =========================================================================

	upload, err := LoadUpload(c.inputPath, c.job)
	if err != nil {
		var normErr *normalizer.NormalizationError
		if errors.As(err, &normErr) {
			return fail(StageNormalization, err)
		}
		return fail(StageInput, err)
	}
	c.logger.Debug("Loaded %s upload", upload.Format)

	// =========================================================================
	// STEP 2: NORMALIZE
	// =========================================================================
	// The recognizers run in a fixed order; the first usable array wins.

	loc, err := normalizer.Locate(upload.Raw)
	if err != nil {
		return fail(StageNormalization, err)
	}
	table := loc.Table
	result.Stats.Strategy = loc.Strategy
	result.Stats.Columns = len(table.Columns)
	c.logger.Debug("Located %s table at %q via %s: %d columns, %d rows",
		loc.Form, loc.Path, loc.Strategy, len(table.Columns), len(table.Rows))

	// =========================================================================
	// STEP 3: ANALYZE COLUMN TYPES
	// =========================================================================
	// The validator and the builder share one analyzer so they agree on
	// every column's type.

	analyzer, err := coltype.NewAnalyzer(table, c.mainConfig.SampleSize, c.mainConfig.TypeCacheSize)
	if err != nil {
		return fail(StagePayload, fmt.Errorf("failed to create column analyzer: %w", err))
	}

	// =========================================================================
	// STEP 4: VALIDATE AXIS SELECTION
	// =========================================================================

	validationResult := validation.Validate(c.job.Selection(), table, validation.Options{
		ChartType: c.job.ChartType,
		Dimension: c.job.Dimension(),
		Resolver:  analyzer,
	})
	result.Issues = validationResult.Issues
	result.Stats.Warnings = validationResult.WarningCount

	for _, issue := range validationResult.Issues {
		if issue.Severity == validation.SeverityWarning {
			c.logger.Warn("%s: %s", filepath.Base(c.inputPath), issue.Message)
		}
	}
	if err := validationResult.Err(); err != nil {
		return fail(StageValidation, err)
	}

	// =========================================================================
	// STEP 5: BUILD PAYLOAD
	// =========================================================================

	formatter := format.New(
		format.WithDateLayout(c.mainConfig.DisplayDateLayout),
		format.WithLogger(c.logger),
	)
	builder := chartpayload.New(
		chartpayload.WithFormatter(formatter),
		chartpayload.WithSourceCap(c.mainConfig.SourceRowCap),
		chartpayload.WithPalette(c.job.Palette),
	)

	sel := c.job.Selection()
	payload, err := builder.Build(chartpayload.BuildArgs{
		Title:          c.job.Title,
		Description:    c.job.Description,
		FileID:         uuid.New().String(),
		SourceFile:     filepath.Base(c.inputPath),
		ChartType:      c.job.ChartType,
		ChartDimension: c.job.Dimension(),
		Selection:      &sel,
		Table:          table,
		SheetName:      upload.SheetName,
		Resolver:       analyzer,
	})
	if err != nil {
		return fail(StagePayload, fmt.Errorf("failed to build payload: %w", err))
	}

	result.Stats.Fallbacks = formatter.Fallbacks()
	result.Stats.Rows = payload.RowCount()
	result.Stats.Datasets = len(payload.Data.Datasets)
	if n := result.Stats.Fallbacks.Total(); n > 0 {
		c.logger.Info("%s: %d cell(s) plotted as 0 (%d blank, %d unparsable)",
			filepath.Base(c.inputPath), n, result.Stats.Fallbacks.Blank, result.Stats.Fallbacks.Unparsable)
	}

	// =========================================================================
	// STEP 6: APPLY LABEL RULES
	// =========================================================================

	if len(c.job.LabelRules) > 0 {
		labels, err := NewLabelTransformer(c.job.LabelRules)
		if err != nil {
			return fail(StagePayload, fmt.Errorf("failed to compile label rules: %w", err))
		}
		payload.MapLabels(labels.Transform)
		c.logger.Debug("Applied %d label rule(s)", labels.Len())
	}
	result.Payload = payload

	// =========================================================================
	// STEP 7: WRITE OUTPUT FILE
	// =========================================================================

	writeOpts := payloadwriter.DefaultGenerateOptions()
	writeOpts.Pretty = c.mainConfig.PrettyOutput
	data, err := payloadwriter.GenerateWithOptions(payload, writeOpts)
	if err != nil {
		return fail(StageOutput, fmt.Errorf("failed to generate payload JSON: %w", err))
	}

	if c.dryRun {
		c.logger.Info("Dry run: %s would produce %d bytes", c.inputPath, len(data))
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	outputPath, err := c.writeOutput(data, payload)
	if err != nil {
		return fail(StageOutput, fmt.Errorf("failed to write output: %w", err))
	}
	result.OutputFile = outputPath
	c.logger.Info("Wrote output to: %s", outputPath)

	// =========================================================================
	// STEP 8: ARCHIVE FILES
	// =========================================================================

	if err := c.archiveFiles(outputPath); err != nil {
		// The payload is already written; archival problems don't fail the file.
		c.logger.Warn("Failed to archive files: %v", err)
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeOutput names the payload file after the uuid_format and writes it.
func (c *Converter) writeOutput(data []byte, payload *chartpayload.ChartPayload) (string, error) {
	base := filepath.Base(c.inputPath)
	fileName := utils.GenerateOutputFileName(c.mainConfig.UUIDFormat, map[string]string{
		"job":      c.job.JobCode,
		"type":     payload.Type,
		"original": strings.TrimSuffix(base, filepath.Ext(base)),
	})
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	if err := payloadwriter.WriteFile(outputPath, data); err != nil {
		return "", err
	}
	return outputPath, nil
}

// archiveFiles moves the input to the input archive and copies the payload
// to the output archive.
func (c *Converter) archiveFiles(outputPath string) error {
	if !c.mainConfig.ArchiveOnSuccess {
		return nil
	}

	if _, err := c.files.ArchiveInputFile(c.inputPath); err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		return fmt.Errorf("failed to archive output file: %w", err)
	}
	return nil
}

// =============================================================================
// UPLOAD LOADING
// =============================================================================

// Upload is a file read into the raw payload form the normalizer takes.
type Upload struct {
	// Raw is the payload: decoded JSON, a CSV array of arrays or an
	// XLSX sheets wrapper.
	Raw any

	// Format is "json", "csv" or "xlsx".
	Format string

	// SheetName is the worksheet the table comes from, if known.
	SheetName string
}

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// LoadUpload reads path according to its extension.
//
// PARAMETERS:
//   - path: The upload path.
//   - job: Supplies CSV settings and the XLSX sheet name. May be nil.
func LoadUpload(path string, job *config.JobConfig) (*Upload, error) {
	csvSettings := config.DefaultCSVSettings()
	sheetName := ""
	if job != nil {
		if job.CSVSettings.HeaderRows > 0 {
			csvSettings = job.CSVSettings
		}
		sheetName = job.SheetName
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		raw, err := rawjson.Decode(data)
		if err != nil {
			return nil, &normalizer.NormalizationError{
				Kind:   normalizer.InvalidPayload,
				Reason: err.Error(),
				Err:    err,
			}
		}
		return &Upload{Raw: raw, Format: "json", SheetName: sheetName}, nil

	case ".csv":
		data, err := csvparser.Parse(path, csvSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		return &Upload{Raw: data.Payload(), Format: "csv"}, nil

	case ".xlsx":
		wb, err := xlsxparser.Parse(path, xlsxparser.Options{SheetName: sheetName})
		if err != nil {
			return nil, fmt.Errorf("failed to parse workbook: %w", err)
		}
		return &Upload{Raw: wb.Payload(), Format: "xlsx", SheetName: wb.Sheets[0].Name}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
