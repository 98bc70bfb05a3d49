// =============================================================================
// Excel Analytics - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the batch processor:
//   - Upload discovery in the input directory
//   - File archival (moving processed inputs, copying payloads)
//   - Output file naming
//   - Error log and processing summary files
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Output payloads are copied to output_archive
//   - Failed files remain in their original location
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupportedExtensions lists the upload formats the processor reads.
var SupportedExtensions = []string{".json", ".csv", ".xlsx"}

// IsSupported reports whether path has a supported upload extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the processor.
type FileManager struct {
	// InputDir is the directory where uploads are placed.
	InputDir string

	// OutputDir is the directory where payloads are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived payloads.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/sales.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether files are archived at all.
	ArchiveOnSuccess bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the uploads in the input directory.
//
// RETURNS:
//   - The .json, .csv and .xlsx files, sorted by name. Directories, dot
//     files and Excel lock files ("~$...") are skipped.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if IsSupported(name) {
			files = append(files, filepath.Join(fm.InputDir, name))
		}
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed upload into InputArchiveDir.
//
// RETURNS:
//   - Where the upload now lives (filePath itself when archiving is off).
//   - An error if the upload could not be moved.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	return fm.archive(fm.InputArchiveDir, filePath, true)
}

// ArchiveOutputFile puts a copy of a written payload into OutputArchiveDir.
// The payload itself stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	return fm.archive(fm.OutputArchiveDir, filePath, false)
}

func (fm *FileManager) archive(dir, filePath string, move bool) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	dest := fm.getArchivePath(dir, filePath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if move && os.Rename(filePath, dest) == nil {
		return dest, nil
	}
	// Rename fails across devices; copy, then drop the original if moving.
	if err := copyFile(filePath, dest); err != nil {
		return "", fmt.Errorf("failed to copy %s to archive: %w", filepath.Base(filePath), err)
	}
	if move {
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove archived upload: %w", err)
		}
	}
	return dest, nil
}

// getArchivePath places the file under dir, or under dir/YYYY/MM/DD when
// UseTimestampSubdirs is set.
func (fm *FileManager) getArchivePath(dir, filePath string) string {
	name := filepath.Base(filePath)
	if !fm.UseTimestampSubdirs {
		return filepath.Join(dir, name)
	}
	return filepath.Join(dir, fm.clock().Format(filepath.Join("2006", "01", "02")), name)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {job}       - Job code
//               {type}      - Chart type
//               {original}  - Input file name without extension
//   - params: Values for the custom placeholders (job, type, original).
//
// RETURNS:
//   - The generated file name, always ending in ".json".
//
// EXAMPLE:
//   format: "{job}_{timestamp}_{uuid}.json"
//   params: {"job": "SALES"}
//   output: "SALES_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.json"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = sanitizeFileName(value)
	}

	placeholders := make([]string, 0, len(replacements))
	for p := range replacements {
		placeholders = append(placeholders, p)
	}
	sort.Strings(placeholders)

	result := format
	for _, p := range placeholders {
		result = strings.ReplaceAll(result, p, replacements[p])
	}

	if !strings.HasSuffix(strings.ToLower(result), ".json") {
		result += ".json"
	}

	return result
}

// sanitizeFileName replaces path separators so a placeholder value cannot
// escape the output directory.
func sanitizeFileName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

// =============================================================================
// RUN REPORTS
// =============================================================================

const (
	reportRule  = "================================================================================\n"
	sectionRule = "--------------------------------------------------------------------------------\n"
	stampLayout = "2006-01-02 15:04:05"
)

// ErrorLogEntry is one failed upload in the error log.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string

	// Issues holds the individual validation messages, if any.
	Issues []string
}

// WriteErrorLog writes error_log_<timestamp>.txt into outputDir.
//
// RETURNS:
//   - The log path, or "" when entries is empty (nothing is written).
//   - An error if the file cannot be written.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	return writeReport(outputDir, "error_log", func(w *bufio.Writer) {
		fmt.Fprintf(w, "Excel Analytics - Error Log\nGenerated: %s\nTotal Errors: %d\n%s\n",
			time.Now().Format(stampLayout), len(entries), reportRule)

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n", i+1)
			field(w, 15, "Timestamp", entry.Timestamp.Format(stampLayout))
			field(w, 15, "File", entry.FileName)
			field(w, 15, "Error Type", entry.ErrorType)
			field(w, 15, "Message", entry.ErrorMessage)
			for _, issue := range entry.Issues {
				fmt.Fprintf(w, "    - %s\n", issue)
			}
			w.WriteString("\n")
		}
		w.WriteString(reportRule + "End of Error Log\n")
	})
}

// writeReport creates <prefix>_<timestamp>.txt in dir and fills it with body.
func writeReport(dir, prefix string, body func(w *bufio.Writer)) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", prefix, time.Now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", prefix, err)
	}
	defer f.Close()

	if err := renderReport(f, body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", prefix, err)
	}
	return path, nil
}

func renderReport(out io.Writer, body func(w *bufio.Writer)) error {
	w := bufio.NewWriter(out)
	body(w)
	return w.Flush()
}

// field writes an indented "Label: value" line with the value column at
// the given width.
func field(w io.Writer, width int, label string, value any) {
	fmt.Fprintf(w, "  %-*s %v\n", width, label+":", value)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	DryRun          bool
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	TotalDatasets   int
	TotalWarnings   int

	// BlankFallbacks and UnparsableFallbacks count cells plotted as 0.
	BlankFallbacks      int64
	UnparsableFallbacks int64

	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Job         string
	Strategy    string
	Rows        int
	Columns     int
	Datasets    int
	Fallbacks   int64
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt into outputDir
// and returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	return writeReport(outputDir, "processing_summary", func(w *bufio.Writer) {
		writeSummary(w, summary)
	})
}

func writeSummary(w *bufio.Writer, s ProcessingSummary) {
	mode := "normal"
	if s.DryRun {
		mode = "dry run"
	}

	w.WriteString("Excel Analytics - Processing Summary\n" + reportRule + "\nRun Information:\n")
	field(w, 15, "Run ID", s.RunID)
	field(w, 15, "Mode", mode)
	field(w, 15, "Start Time", s.StartTime.Format(stampLayout))
	field(w, 15, "End Time", s.EndTime.Format(stampLayout))
	field(w, 15, "Duration", s.EndTime.Sub(s.StartTime))

	w.WriteString("\nStatistics:\n")
	field(w, 22, "Total Files", s.TotalFiles)
	field(w, 22, "Successful", s.SuccessfulFiles)
	field(w, 22, "Failed", s.FailedFiles)
	field(w, 22, "Total Rows", s.TotalRows)
	field(w, 22, "Total Datasets", s.TotalDatasets)
	field(w, 22, "Warnings", s.TotalWarnings)
	field(w, 22, "Blank Cells As 0", s.BlankFallbacks)
	field(w, 22, "Unparsable Cells As 0", s.UnparsableFallbacks)
	w.WriteString("\n")

	if len(s.ProcessedFiles) > 0 {
		w.WriteString("Successful Files:\n" + sectionRule)
		for _, pf := range s.ProcessedFiles {
			field(w, 13, "Input", pf.InputFile)
			field(w, 13, "Output", pf.OutputFile)
			field(w, 13, "Job", pf.Job)
			field(w, 13, "Found Via", pf.Strategy)
			field(w, 13, "Rows", pf.Rows)
			field(w, 13, "Columns", pf.Columns)
			field(w, 13, "Datasets", pf.Datasets)
			field(w, 13, "Fallbacks", pf.Fallbacks)
			field(w, 13, "Process Time", pf.ProcessTime)
			w.WriteString("\n")
		}
	}

	if len(s.FailedFilesList) > 0 {
		w.WriteString("Failed Files:\n" + sectionRule)
		for _, ff := range s.FailedFilesList {
			field(w, 6, "File", ff.InputFile)
			field(w, 6, "Type", ff.ErrorType)
			field(w, 6, "Error", ff.ErrorMessage)
			w.WriteString("\n")
		}
	}

	w.WriteString(reportRule + "End of Summary\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
