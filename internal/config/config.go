// =============================================================================
// Excel Analytics - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the chart job
// configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Job Configs (configs/*.yaml): One chart definition per job
//   3. Environment (.env next to config.yaml, then the process environment):
//      overrides for a handful of main settings
//
// ENVIRONMENT OVERRIDES:
//   EXCEL_ANALYTICS_INPUT_DIR        -> input_dir
//   EXCEL_ANALYTICS_OUTPUT_DIR       -> output_dir
//   EXCEL_ANALYTICS_CONFIGS_DIR      -> configs_dir
//   EXCEL_ANALYTICS_LOG_FILE         -> log_file
//   EXCEL_ANALYTICS_LOG_LEVEL        -> log_level
//   EXCEL_ANALYTICS_MAX_CONCURRENCY  -> max_concurrency
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EXCEL_ANALYTICS_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for uploaded payloads
	// (.json, .csv, .xlsx).
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where chart payloads are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of each generated payload.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ConfigsDir is the directory containing chart job configurations.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./logs/excel-analytics.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// UUIDFormat defines the format for output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {time}      - Current time (HHMMSS)
	//   {job}       - Job code
	//   {type}      - Payload chart type
	//
	// Default: "{uuid}.json"
	UUIDFormat string `yaml:"uuid_format"`

	// PrettyOutput indents generated JSON.
	// Default: false
	PrettyOutput bool `yaml:"pretty_output"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError determines whether to continue processing other files
	// if one file fails.
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveOnSuccess moves processed inputs to InputArchiveDir.
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// =========================================================================
	// CHART SETTINGS
	// =========================================================================

	// SampleSize is the number of non-blank values inspected per column
	// when inferring its type.
	// Default: 10
	SampleSize int `yaml:"sample_size"`

	// SourceRowCap is the number of rows echoed in data.source.
	// Default: 100
	SourceRowCap int `yaml:"source_row_cap"`

	// TypeCacheSize bounds the memoized column types per table.
	// Default: 256
	TypeCacheSize int `yaml:"type_cache_size"`

	// DisplayDateLayout is the Go time layout used for date labels.
	// Default: "1/2/2006"
	DisplayDateLayout string `yaml:"display_date_layout"`
}

// =============================================================================
// JOB CONFIGURATION STRUCTURE
// =============================================================================

// JobConfig describes one chart: which files it applies to, how to read
// them, and which columns go on which axis.
type JobConfig struct {
	// =========================================================================
	// JOB IDENTIFICATION
	// =========================================================================

	// JobName is the human-readable name of the job.
	JobName string `yaml:"job_name"`

	// JobCode is a short code for the job. It keys the job map and can be
	// used in output file names.
	JobCode string `yaml:"job_code"`

	// =========================================================================
	// FILE MATCHING RULES
	// =========================================================================

	// FileMatchingPatterns is a list of glob patterns matched against the
	// input file name.
	// Examples:
	//   - "sales_*.xlsx"
	//   - "*_regional.json"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// =========================================================================
	// CHART DEFINITION
	// =========================================================================

	// Title is the chart title. Default: JobName.
	Title string `yaml:"title"`

	// Description is an optional chart description.
	Description string `yaml:"description"`

	// ChartType is the chart kind ("bar", "line", "pie", "scatter", ...).
	// Default: "bar"
	ChartType string `yaml:"chart_type"`

	// ChartDimension is "2d" or "3d".
	// Default: "2d"
	ChartDimension string `yaml:"chart_dimension"`

	// XAxis is the label column.
	XAxis string `yaml:"x_axis"`

	// YAxis lists the series columns.
	YAxis []string `yaml:"y_axis"`

	// ZAxis is the depth column. Required for 3D scatter charts.
	ZAxis string `yaml:"z_axis,omitempty"`

	// SheetName selects a worksheet in .xlsx inputs. Default: first sheet.
	SheetName string `yaml:"sheet_name,omitempty"`

	// =========================================================================
	// PARSING SETTINGS
	// =========================================================================

	// CSVSettings contains settings for parsing .csv inputs.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// =========================================================================
	// LABEL RULES
	// =========================================================================

	// LabelRules rewrite the X axis labels after the payload is built.
	// Rules are applied in order.
	LabelRules []LabelRule `yaml:"label_rules"`

	// Palette overrides the dataset colors, assigned by series index and
	// wrapping around. Empty keeps the built-in palette.
	Palette []string `yaml:"palette,omitempty"`
}

// Selection returns the job's axis selection.
func (j *JobConfig) Selection() types.AxisSelection {
	return types.AxisSelection{
		X: j.XAxis,
		Y: append([]string(nil), j.YAxis...),
		Z: j.ZAxis,
	}
}

// Dimension returns the chart dimension.
func (j *JobConfig) Dimension() types.ChartDimension {
	return types.ChartDimension(strings.ToLower(j.ChartDimension))
}

// Matches reports whether fileName matches one of the job's patterns.
func (j *JobConfig) Matches(fileName string) bool {
	base := filepath.Base(fileName)
	for _, pattern := range j.FileMatchingPatterns {
		// Invalid patterns are rejected when the job is loaded.
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows in the CSV file.
	// Multi-line headers are merged into one header row.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the row number where the actual data begins.
	// Row numbering starts at 1.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Comment marks lines to skip when it is the first character.
	// Default: none
	Comment string `yaml:"comment,omitempty"`

	// TrimLeadingSpace ignores leading white space in a field.
	TrimLeadingSpace bool `yaml:"trim_leading_space"`
}

// DefaultCSVSettings returns the settings of a job that sets none.
func DefaultCSVSettings() CSVSettings {
	return CSVSettings{Delimiter: ",", HeaderRows: 1, DataStartRow: 2}
}

// =============================================================================
// LABEL RULE STRUCTURE
// =============================================================================

// Label rule types.
const (
	RuleTrim             = "trim"
	RuleUppercase        = "uppercase"
	RuleLowercase        = "lowercase"
	RulePrependString    = "prepend_string"
	RuleAppendString     = "append_string"
	RulePadZerosToLength = "pad_zeros_to_length"
	RuleReplace          = "replace"
	RuleRegexReplace     = "regex_replace"
	RuleLookup           = "lookup"
)

var knownRules = map[string]bool{
	RuleTrim:             true,
	RuleUppercase:        true,
	RuleLowercase:        true,
	RulePrependString:    true,
	RuleAppendString:     true,
	RulePadZerosToLength: true,
	RuleReplace:          true,
	RuleRegexReplace:     true,
	RuleLookup:           true,
}

// LabelRule defines a single label transformation.
type LabelRule struct {
	// Type is the type of transformation to apply (see the Rule* constants).
	Type string `yaml:"type"`

	// Value is the parameter for the transformation:
	//   - "prepend_string"      : The string to prepend
	//   - "append_string"       : The string to append
	//   - "pad_zeros_to_length" : The target length (e.g., "6")
	//   - "replace"             : The replacement string
	//   - "regex_replace"       : The replacement (may use $1 etc.)
	Value string `yaml:"value"`

	// Find is the substring or pattern for "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps labels to replacements for "lookup".
	// Labels not in the table are left unchanged.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// LOADING
// =============================================================================

// readYAML decodes the YAML file at path into out.
func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadMainConfig reads config.yaml, then applies a .env file next to it,
// EXCEL_ANALYTICS_* variables and defaults, in that order of precedence
// (variables win over the file, defaults fill what is left).
//
// PARAMETERS:
//   - configPath: Location of the main configuration file.
//
// RETURNS:
//   - The loaded configuration. Input, output and configs directories exist.
//   - An error if the file is unreadable or a setting is out of range.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// A missing .env file is fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(configPath), ".env"))

	var cfg MainConfig
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	applyMainConfigDefaults(&cfg)
	if err := validateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides replaces config values with set environment variables.
func applyEnvOverrides(cfg *MainConfig) error {
	strs := map[string]*string{
		"INPUT_DIR":   &cfg.InputDir,
		"OUTPUT_DIR":  &cfg.OutputDir,
		"CONFIGS_DIR": &cfg.ConfigsDir,
		"LOG_FILE":    &cfg.LogFile,
		"LOG_LEVEL":   &cfg.LogLevel,
	}
	for name, target := range strs {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + name)); v != "" {
			*target = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "MAX_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_CONCURRENCY: %w", EnvPrefix, err)
		}
		cfg.MaxConcurrency = n
	}
	return nil
}

func orDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

func applyMainConfigDefaults(cfg *MainConfig) {
	orDefault(&cfg.InputDir, "./input")
	orDefault(&cfg.OutputDir, "./output")
	orDefault(&cfg.InputArchiveDir, "./input_archive")
	orDefault(&cfg.OutputArchiveDir, "./output_archive")
	orDefault(&cfg.ConfigsDir, "./configs")
	orDefault(&cfg.LogFile, "./logs/excel-analytics.log")
	orDefault(&cfg.LogLevel, "info")
	orDefault(&cfg.UUIDFormat, "{uuid}.json")
	orDefault(&cfg.MaxConcurrency, 4)
	orDefault(&cfg.SampleSize, 10)
	orDefault(&cfg.SourceRowCap, 100)
	orDefault(&cfg.TypeCacheSize, 256)
	orDefault(&cfg.DisplayDateLayout, "1/2/2006")
}

// validateMainConfig range-checks settings and creates the input, output
// and configs directories.
func validateMainConfig(cfg *MainConfig) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	positive := []struct {
		key string
		val int
	}{
		{"max_concurrency", cfg.MaxConcurrency},
		{"sample_size", cfg.SampleSize},
		{"source_row_cap", cfg.SourceRowCap},
		{"type_cache_size", cfg.TypeCacheSize},
	}
	for _, p := range positive {
		if p.val < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", p.key, p.val)
		}
	}

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ConfigsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoadJobConfigs loads every *.yaml and *.yml job in configsDir.
//
// RETURNS:
//   - Jobs keyed by job_code. A job without a code is keyed, and coded, by
//     its file name.
//   - An error if any file is invalid or two jobs share a code.
func LoadJobConfigs(configsDir string) (map[string]*JobConfig, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(configsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list job configs: %w", err)
		}
		files = append(files, matches...)
	}

	jobs := make(map[string]*JobConfig, len(files))
	for _, file := range files {
		job, err := LoadJobConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if job.JobCode == "" {
			job.JobCode = filepath.Base(file)
		}
		if _, dup := jobs[job.JobCode]; dup {
			return nil, fmt.Errorf("duplicate job_code %q in %s", job.JobCode, file)
		}
		jobs[job.JobCode] = job
	}
	return jobs, nil
}

// LoadJobConfig loads, defaults and validates one job file.
func LoadJobConfig(filePath string) (*JobConfig, error) {
	var job JobConfig
	if err := readYAML(filePath, &job); err != nil {
		return nil, err
	}
	applyJobConfigDefaults(&job)
	if err := validateJobConfig(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// applyJobConfigDefaults sets default values for job configuration.
func applyJobConfigDefaults(job *JobConfig) {
	orDefault(&job.Title, job.JobName)
	orDefault(&job.ChartType, "bar")
	orDefault(&job.ChartDimension, string(types.Dimension2D))

	csv := &job.CSVSettings
	orDefault(&csv.Delimiter, ",")
	orDefault(&csv.HeaderRows, 1)
	orDefault(&csv.DataStartRow, csv.HeaderRows+1)
}

// validateJobConfig checks the settings that can be checked without data.
// Column names are checked against the data at run time.
func validateJobConfig(config *JobConfig) error {
	switch config.Dimension() {
	case types.Dimension2D, types.Dimension3D:
	default:
		return fmt.Errorf("chart_dimension must be \"2d\" or \"3d\", got %q", config.ChartDimension)
	}

	for _, pattern := range config.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid file_matching_pattern %q: %w", pattern, err)
		}
	}

	if config.CSVSettings.DataStartRow <= config.CSVSettings.HeaderRows {
		return fmt.Errorf("csv_settings.data_start_row (%d) must come after the header rows (%d)",
			config.CSVSettings.DataStartRow, config.CSVSettings.HeaderRows)
	}

	for i, rule := range config.LabelRules {
		if !knownRules[rule.Type] {
			return fmt.Errorf("label_rules[%d]: unknown type %q", i, rule.Type)
		}
		switch rule.Type {
		case RulePadZerosToLength:
			if n, err := strconv.Atoi(rule.Value); err != nil || n < 0 {
				return fmt.Errorf("label_rules[%d]: pad_zeros_to_length needs a length, got %q", i, rule.Value)
			}
		case RuleRegexReplace:
			if _, err := regexp.Compile(rule.Find); err != nil {
				return fmt.Errorf("label_rules[%d]: invalid pattern: %w", i, err)
			}
		case RuleReplace:
			if rule.Find == "" {
				return fmt.Errorf("label_rules[%d]: replace needs find", i)
			}
		}
	}

	return nil
}

// FindJobForFile returns the job whose patterns match fileName.
// Jobs are tried in job code order so the result is deterministic.
func FindJobForFile(fileName string, jobs map[string]*JobConfig) *JobConfig {
	codes := make([]string, 0, len(jobs))
	for code := range jobs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if jobs[code].Matches(fileName) {
			return jobs[code]
		}
	}
	return nil
}
