// =============================================================================
// Excel Analytics - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main batch command. It turns
// every upload in the input directory into a chart payload.
//
// COMMAND USAGE:
//   excel-analytics process [flags]
//
// FLAGS:
//   --dry-run : Run the whole pipeline without writing or archiving anything
//   --single  : Process only a single file (specify with --file)
//   --file    : Path to a specific file to process (used with --single)
//   --job     : Process only files for a specific job code
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Discover uploads in the input directory
//   3. Match each file to a job configuration
//   4. For each file (concurrently, at most max_concurrency at once):
//      a. Load the upload
//      b. Normalize it to a table
//      c. Validate the axis selection
//      d. Build the chart payload and apply label rules
//      e. Write the payload file
//      f. Archive processed files
//   5. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/converter"
	"github.com/ginjaninja78/excel-analytics/internal/logging"
	"github.com/ginjaninja78/excel-analytics/internal/validation"
	"github.com/ginjaninja78/excel-analytics/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun runs the pipeline without writing output files.
var dryRun bool

// singleFile indicates whether to process only a single file.
var singleFile bool

// filePath is the path to a specific file to process (used with --single).
var filePath string

// jobCode filters processing to a specific job.
var jobCode string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process uploads and write chart payloads",
	Long: `The process command scans the input directory for .json, .csv and .xlsx
uploads, matches them to a chart job configuration and writes one chart payload
per upload.

Files are processed concurrently, at most max_concurrency at a time. An error
in one file does not affect the others unless continue_on_error is false, in
which case no new files are started after the first failure.

On successful processing:
  - The chart payload is placed in the output directory
  - The upload is moved to the input archive (archive_on_success)
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The upload remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing or archiving files",
	)

	processCmd.Flags().BoolVar(
		&singleFile,
		"single",
		false,
		"Process only a single file (use with --file)",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a specific file to process (used with --single)",
	)

	processCmd.Flags().StringVar(
		&jobCode,
		"job",
		"",
		"Process only files for a specific job code",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the batch.
func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Excel Analytics ===")
	fmt.Println("Loading configuration...")

	mainConfig, logger, closeLog, err := setupRuntime()
	if err != nil {
		return err
	}
	defer closeLog()

	jobs, err := config.LoadJobConfigs(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load job configs: %w", err)
	}
	if jobCode != "" {
		job, ok := jobs[jobCode]
		if !ok {
			return fmt.Errorf("unknown job %q", jobCode)
		}
		jobs = map[string]*config.JobConfig{jobCode: job}
	}

	fmt.Printf("Loaded %d job configuration(s)\n", len(jobs))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)

	var inputFiles []string
	if singleFile {
		if filePath == "" {
			return fmt.Errorf("--single requires --file")
		}
		if !utils.FileExists(filePath) {
			return fmt.Errorf("file not found: %s", filePath)
		}
		inputFiles = []string{filePath}
	} else {
		fmt.Println("Discovering input files...")
		inputFiles, err = files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No uploads found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))
	if dryRun {
		fmt.Println("Dry run: nothing will be written or archived.")
	}

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	fmt.Println("Processing files...")

	results := processFiles(inputFiles, jobs, mainConfig, logger)

	// =========================================================================
	// STEP 4: COLLECT RESULTS AND GENERATE SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{
		RunID:      uuid.New().String(),
		StartTime:  startTime,
		DryRun:     dryRun,
		TotalFiles: len(inputFiles),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalRows += result.Stats.Rows
			summary.TotalDatasets += result.Stats.Datasets
			summary.TotalWarnings += result.Stats.Warnings
			summary.BlankFallbacks += result.Stats.Fallbacks.Blank
			summary.UnparsableFallbacks += result.Stats.Fallbacks.Unparsable
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				Job:         result.JobCode,
				Strategy:    string(result.Stats.Strategy),
				Rows:        result.Stats.Rows,
				Columns:     result.Stats.Columns,
				Datasets:    result.Stats.Datasets,
				Fallbacks:   result.Stats.Fallbacks.Total(),
				ProcessTime: result.Stats.ProcessingTime,
			})

			output := result.OutputFile
			if output == "" {
				output = "(dry run)"
			}
			fmt.Printf("  ✓ %s -> %s\n", name, output)
			continue
		}

		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
			ErrorType:    string(result.FailedStage),
		})

		var issues []string
		for _, issue := range result.Issues {
			issues = append(issues, issue.Error())
		}
		errorEntries = append(errorEntries, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     result.FilePath,
			ErrorType:    string(result.FailedStage),
			ErrorMessage: result.Error.Error(),
			Issues:       issues,
		})
		fmt.Printf("  ✗ %s: %v\n", name, result.Error)
		if len(result.Issues) > 0 {
			report := strings.TrimRight(validation.FormatIssues(result.Issues), "\n")
			for _, line := range strings.Split(report, "\n") {
				fmt.Printf("      %s\n", line)
			}
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	skipped := len(inputFiles) - len(results)

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", len(inputFiles))
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	if skipped > 0 {
		fmt.Printf("Skipped:         %d\n", skipped)
	}
	fmt.Printf("Cells as 0:      %d\n", summary.BlankFallbacks+summary.UnparsableFallbacks)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if logPath, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir); err != nil {
			logger.Error("Failed to write error log: %v", err)
		} else if logPath != "" {
			fmt.Printf("\nErrors have been logged to %s\n", logPath)
		}

		if summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			logger.Error("Failed to write summary: %v", err)
		} else {
			logger.Debug("Summary written to %s", summaryPath)
		}
	}

	if summary.FailedFiles > 0 && !mainConfig.ContinueOnError {
		return fmt.Errorf("processing stopped after %d failed file(s)", summary.FailedFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// processFiles runs one converter per file, at most MaxConcurrency at a time.
//
// RETURNS:
//   - The results sorted by file path. Files not started because an earlier
//     file failed with continue_on_error off have no result.
func processFiles(inputFiles []string, jobs map[string]*config.JobConfig, mainConfig *config.MainConfig, logger logging.Logger) []converter.Result {
	var wg sync.WaitGroup
	var stopped atomic.Bool

	// Buffered so workers never block on a slow collector.
	results := make(chan converter.Result, len(inputFiles))
	sem := make(chan struct{}, mainConfig.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)

		go func(path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if stopped.Load() {
				logger.Warn("Skipping %s after an earlier failure", path)
				return
			}

			result := processFile(path, jobs, mainConfig, logger)
			if !result.Success && !mainConfig.ContinueOnError {
				stopped.Store(true)
			}
			results <- result
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []converter.Result
	for result := range results {
		collected = append(collected, result)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].FilePath < collected[j].FilePath
	})
	return collected
}

// processFile matches path to a job and runs the converter.
func processFile(path string, jobs map[string]*config.JobConfig, mainConfig *config.MainConfig, logger logging.Logger) converter.Result {
	job := config.FindJobForFile(path, jobs)
	if job == nil {
		return converter.Result{
			FilePath:    path,
			FailedStage: converter.StageInput,
			Error:       fmt.Errorf("no matching job configuration found"),
		}
	}

	return converter.New(path, job, mainConfig, logger).WithDryRun(dryRun).Run()
}
