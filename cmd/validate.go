// =============================================================================
// Excel Analytics - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the main configuration
// and every job configuration without processing anything, and reports
// which job each waiting upload would be processed with.
//
// COMMAND USAGE:
//   excel-analytics validate
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/ginjaninja78/excel-analytics/pkg/utils"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without processing",
	Long: `The validate command loads config.yaml and every job configuration in
configs_dir, reports problems that can be found without data, and lists which
job each upload in the input directory matches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		return runValidate(cmd.OutOrStdout(), mainConfig)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate prints the configuration report.
//
// RETURNS:
//   - An error if a job cannot be loaded or a job has problems.
func runValidate(w io.Writer, mainConfig *config.MainConfig) error {
	fmt.Fprintf(w, "Main configuration OK (input: %s, output: %s)\n", mainConfig.InputDir, mainConfig.OutputDir)

	jobs, err := config.LoadJobConfigs(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load job configs: %w", err)
	}

	codes := make([]string, 0, len(jobs))
	for code := range jobs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintf(w, "Loaded %d job configuration(s)\n", len(jobs))

	problems := 0
	for _, code := range codes {
		job := jobs[code]
		fmt.Fprintf(w, "\n[%s] %s\n", code, job.JobName)
		fmt.Fprintf(w, "  Chart:    %s (%s)\n", job.ChartType, job.Dimension())
		fmt.Fprintf(w, "  X axis:   %s\n", job.XAxis)
		fmt.Fprintf(w, "  Y axis:   %s\n", strings.Join(job.YAxis, ", "))
		if job.ZAxis != "" {
			fmt.Fprintf(w, "  Z axis:   %s\n", job.ZAxis)
		}
		fmt.Fprintf(w, "  Patterns: %s\n", strings.Join(job.FileMatchingPatterns, ", "))

		for _, p := range jobProblems(job) {
			problems++
			fmt.Fprintf(w, "  ✗ %s\n", p)
		}
	}

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, "", "")
	uploads, err := files.DiscoverInputFiles()
	if err != nil {
		return err
	}
	if len(uploads) > 0 {
		fmt.Fprintln(w, "\nUploads:")
		for _, path := range uploads {
			match := "no matching job"
			if job := config.FindJobForFile(path, jobs); job != nil {
				match = job.JobCode
			}
			fmt.Fprintf(w, "  %s -> %s\n", filepath.Base(path), match)
		}
	}

	if problems > 0 {
		return fmt.Errorf("found %d problem(s) in job configurations", problems)
	}
	fmt.Fprintln(w, "\nConfiguration is valid.")
	return nil
}

// jobProblems reports the axis settings that would fail every upload.
func jobProblems(job *config.JobConfig) []string {
	var problems []string
	if len(job.FileMatchingPatterns) == 0 {
		problems = append(problems, "no file_matching_patterns; the job never matches")
	}
	if strings.TrimSpace(job.XAxis) == "" {
		problems = append(problems, "x_axis is empty")
	}
	if len(job.YAxis) == 0 {
		problems = append(problems, "y_axis is empty")
	}
	for i, y := range job.YAxis {
		if strings.TrimSpace(y) == "" {
			problems = append(problems, fmt.Sprintf("y_axis[%d] is empty", i))
		}
	}
	if types.IsScatter3D(job.ChartType, job.Dimension()) && strings.TrimSpace(job.ZAxis) == "" {
		problems = append(problems, "3d scatter charts need z_axis")
	}
	return problems
}
