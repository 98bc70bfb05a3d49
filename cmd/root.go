// =============================================================================
// Excel Analytics - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (excel-analytics)
//   ├── processCmd  (excel-analytics process)
//   ├── inspectCmd  (excel-analytics inspect FILE)
//   ├── validateCmd (excel-analytics validate)
//   └── versionCmd  (excel-analytics version)
//
// The root command owns the global flags (--config, --verbose) and the
// shared setup of configuration and logging.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "excel-analytics",
	Short: "Excel Analytics - Turn spreadsheet uploads into chart payloads",
	Long: `Excel Analytics reads uploaded spreadsheets (.json payloads, .csv and .xlsx
files), finds the table inside them, checks the configured axis selection and
writes one chart payload document per upload.

Key Features:
  - Recognizes the common upload shapes (sheets, data, content, excelData, ...)
  - Column type inference (numeric, date, string)
  - Axis validation with every violated constraint reported
  - Per-job label rules
  - Concurrent processing with archival of processed files

Example Usage:
  excel-analytics process                     # Process every upload in the input directory
  excel-analytics process --config ./my.yaml  # Use a custom configuration file
  excel-analytics inspect ./input/sales.xlsx  # Show the table found in a file
  excel-analytics validate                    # Validate configuration without processing`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setupRuntime loads the main configuration and opens the logger.
//
// RETURNS:
//   - The main configuration.
//   - The logger.
//   - A function closing the log file.
//   - An error if the configuration or the log file cannot be loaded.
func setupRuntime() (*config.MainConfig, logging.Logger, func() error, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = logging.LevelDebug.String()
	}

	logger, closeLog, err := logging.NewFromConfig(level, mainConfig.LogFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return mainConfig, logger, closeLog, nil
}
