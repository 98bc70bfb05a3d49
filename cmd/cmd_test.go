package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/ginjaninja78/excel-analytics/internal/logging"
	"github.com/ginjaninja78/excel-analytics/internal/xlsxparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testMainConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:          filepath.Join(root, "input"),
		OutputDir:         filepath.Join(root, "output"),
		InputArchiveDir:   filepath.Join(root, "input_archive"),
		OutputArchiveDir:  filepath.Join(root, "output_archive"),
		ConfigsDir:        filepath.Join(root, "configs"),
		UUIDFormat:        "{job}_{uuid}.json",
		MaxConcurrency:    2,
		ContinueOnError:   true,
		SampleSize:        10,
		SourceRowCap:      100,
		TypeCacheSize:     256,
		DisplayDateLayout: "1/2/2006",
	}
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ConfigsDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const salesJobYAML = `job_name: Regional sales
job_code: SALES
file_matching_patterns: ["sales*.json"]
x_axis: Region
y_axis: [Sales]
`

const salesJSON = `[["Region","Sales"],["East",100],["West",200]]`

func TestInspectJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.json")
	writeFile(t, path, `{"data":[{"Region":"East","Sales":1,"When":"2024-01-15"}]}`)

	inspectJSON = true
	defer func() { inspectJSON = false }()

	var out bytes.Buffer
	require.NoError(t, runInspect(&out, path))

	var report inspectReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "json", report.Format)
	assert.Equal(t, "data", report.Strategy)
	assert.Equal(t, "data", report.Path)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, []string{"Sales"}, report.NumericColumns)
	require.Len(t, report.Columns, 3)
	assert.Equal(t, "When", report.Columns[2].Name)
	assert.Equal(t, "date", string(report.Columns[2].Type))
}

func TestInspectTextReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	writeFile(t, path, "Region;Sales\nEast;100\n")

	inspectDelimiter = ";"
	defer func() { inspectDelimiter = "," }()

	var out bytes.Buffer
	require.NoError(t, runInspect(&out, path))

	text := out.String()
	assert.Contains(t, text, "File:      sales.csv (csv)")
	assert.Contains(t, text, "Found via: array")
	assert.Contains(t, text, "COLUMN")
	assert.Regexp(t, `Sales\s+numeric\s+1\s+\[100\]`, text)
}

func TestInspectListsSheetsOnMiss(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Sales"))
	require.NoError(t, f.SetSheetRow("Sales", "A1", &[]interface{}{"Region", "Sales"}))
	_, err := f.NewSheet("Costs")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	inspectSheet = "Q3"
	defer func() { inspectSheet = "" }()

	err = runInspect(&bytes.Buffer{}, path)
	assert.ErrorIs(t, err, xlsxparser.ErrSheetNotFound)
	assert.ErrorContains(t, err, "sheets in book.xlsx: Sales, Costs")
}

func TestInspectNoTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	writeFile(t, path, `{}`)

	err := runInspect(&bytes.Buffer{}, path)
	assert.ErrorContains(t, err, "NoTabularDataFound")
}

func TestValidateReport(t *testing.T) {
	cfg := testMainConfig(t)
	writeFile(t, filepath.Join(cfg.ConfigsDir, "sales.yaml"), salesJobYAML)
	writeFile(t, filepath.Join(cfg.InputDir, "sales_q1.json"), salesJSON)
	writeFile(t, filepath.Join(cfg.InputDir, "other.json"), salesJSON)

	var out bytes.Buffer
	require.NoError(t, runValidate(&out, cfg))

	text := out.String()
	assert.Contains(t, text, "[SALES] Regional sales")
	assert.Contains(t, text, "sales_q1.json -> SALES")
	assert.Contains(t, text, "other.json -> no matching job")
	assert.Contains(t, text, "Configuration is valid.")
}

func TestValidateReportsJobProblems(t *testing.T) {
	cfg := testMainConfig(t)
	writeFile(t, filepath.Join(cfg.ConfigsDir, "cube.yaml"), `job_name: Cube
job_code: CUBE
chart_type: scatter
chart_dimension: 3d
x_axis: X
y_axis: [Y]
`)

	var out bytes.Buffer
	err := runValidate(&out, cfg)
	assert.ErrorContains(t, err, "found 2 problem(s)")
	assert.Contains(t, out.String(), "no file_matching_patterns")
	assert.Contains(t, out.String(), "3d scatter charts need z_axis")
}

func TestProcessFiles(t *testing.T) {
	cfg := testMainConfig(t)
	writeFile(t, filepath.Join(cfg.ConfigsDir, "sales.yaml"), salesJobYAML)
	good := filepath.Join(cfg.InputDir, "sales_q1.json")
	unmatched := filepath.Join(cfg.InputDir, "other.json")
	writeFile(t, good, salesJSON)
	writeFile(t, unmatched, salesJSON)

	jobs, err := config.LoadJobConfigs(cfg.ConfigsDir)
	require.NoError(t, err)

	results := processFiles([]string{unmatched, good}, jobs, cfg, logging.Nop)
	require.Len(t, results, 2)

	assert.Equal(t, unmatched, results[0].FilePath)
	assert.False(t, results[0].Success)
	assert.ErrorContains(t, results[0].Error, "no matching job configuration found")

	assert.Equal(t, good, results[1].FilePath)
	require.True(t, results[1].Success, "%v", results[1].Error)
	assert.Equal(t, "SALES", results[1].JobCode)
	_, err = os.Stat(results[1].OutputFile)
	assert.NoError(t, err)
}
