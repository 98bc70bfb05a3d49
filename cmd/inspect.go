// =============================================================================
// Excel Analytics - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command. It shows what the normalizer finds
// in a single upload: where the table is, its columns and their types. No
// configuration file is needed.
//
// COMMAND USAGE:
//   excel-analytics inspect FILE [--sheet NAME] [--delimiter D] [--json]
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/excel-analytics/internal/coltype"
	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/converter"
	"github.com/ginjaninja78/excel-analytics/internal/format"
	"github.com/ginjaninja78/excel-analytics/internal/normalizer"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/ginjaninja78/excel-analytics/internal/xlsxparser"
	"github.com/spf13/cobra"
)

var (
	inspectSheet      string
	inspectDelimiter  string
	inspectJSON       bool
	inspectSampleSize int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the table found in an upload",
	Long: `The inspect command loads one .json, .csv or .xlsx upload, runs the
structural normalizer on it and prints the recognizer that matched, the
columns and the inferred column types.

Use it to choose x_axis / y_axis values for a job configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "Worksheet to read from .xlsx files")
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", ",", "Field delimiter for .csv files")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the report as JSON")
	inspectCmd.Flags().IntVar(&inspectSampleSize, "sample-size", coltype.DefaultSampleSize, "Values sampled per column for type inference")
}

// inspectReport is the machine-readable output of inspect.
type inspectReport struct {
	File           string                  `json:"file"`
	Format         string                  `json:"format"`
	SheetName      string                  `json:"sheetName,omitempty"`
	Shape          string                  `json:"shape"`
	Form           string                  `json:"form"`
	Strategy       string                  `json:"strategy"`
	Path           string                  `json:"path"`
	Rows           int                     `json:"rows"`
	Columns        []coltype.ColumnProfile `json:"columns"`
	NumericColumns []string                `json:"numericColumns"`
}

func runInspect(w io.Writer, path string) error {
	job := &config.JobConfig{SheetName: inspectSheet}
	job.CSVSettings = config.DefaultCSVSettings()
	job.CSVSettings.Delimiter = inspectDelimiter

	upload, err := converter.LoadUpload(path, job)
	if errors.Is(err, xlsxparser.ErrSheetNotFound) {
		return missingSheetError(path, err)
	}
	if err != nil {
		return err
	}

	loc, err := normalizer.Locate(upload.Raw)
	if err != nil {
		return err
	}

	analyzer, err := coltype.NewAnalyzer(loc.Table, inspectSampleSize, 0)
	if err != nil {
		return fmt.Errorf("failed to create column analyzer: %w", err)
	}

	report := inspectReport{
		File:           filepath.Base(path),
		Format:         upload.Format,
		SheetName:      upload.SheetName,
		Shape:          loc.Kind.String(),
		Form:           loc.Form.String(),
		Strategy:       string(loc.Strategy),
		Path:           loc.Path,
		Rows:           len(loc.Table.Rows),
		Columns:        analyzer.Profile(),
		NumericColumns: analyzer.ColumnsOfType(types.ColumnNumeric),
	}
	if report.NumericColumns == nil {
		report.NumericColumns = []string{}
	}

	if inspectJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(w, report)
}

// missingSheetError adds the workbook's sheet names to a --sheet miss.
func missingSheetError(path string, err error) error {
	names, listErr := xlsxparser.ListSheets(path)
	if listErr != nil {
		return err
	}
	return fmt.Errorf("%w; sheets in %s: %s", err, filepath.Base(path), strings.Join(names, ", "))
}

func printReport(w io.Writer, r inspectReport) error {
	fmt.Fprintf(w, "File:      %s (%s)\n", r.File, r.Format)
	if r.SheetName != "" {
		fmt.Fprintf(w, "Sheet:     %s\n", r.SheetName)
	}
	fmt.Fprintf(w, "Found via: %s at %s (%s, %s)\n", r.Strategy, r.Path, r.Shape, r.Form)
	fmt.Fprintf(w, "Rows:      %d\n\n", r.Rows)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNON-BLANK\tSAMPLES")
	for _, c := range r.Columns {
		samples := make([]string, len(c.Samples))
		for i, s := range c.Samples {
			samples[i] = format.Text(s)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\n", c.Name, c.Type, c.NonBlank, samples)
	}
	return tw.Flush()
}
