package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/normalizer"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates a workbook with a data sheet, a second sheet,
// a helper sheet and a hidden sheet.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Sales"))
	require.NoError(t, f.SetSheetRow("Sales", "A1", &[]interface{}{"Region", "Sales"}))
	require.NoError(t, f.SetSheetRow("Sales", "A2", &[]interface{}{"East", 100}))
	require.NoError(t, f.SetSheetRow("Sales", "A4", &[]interface{}{"West", 200}))

	for _, name := range []string{"Costs", "_lookup", "Secret"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, "A1", &[]interface{}{name + "_col"}))
		require.NoError(t, f.SetSheetRow(name, "A2", &[]interface{}{1}))
	}
	require.NoError(t, f.SetSheetVisible("Secret", false))

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseVisibleSheets(t *testing.T) {
	wb, err := Parse(writeWorkbook(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Sales", "Costs"}, wb.SheetNames())
	assert.Equal(t, [][]string{{"Region", "Sales"}, {"East", "100"}, {"West", "200"}}, wb.Sheets[0].Rows)
}

func TestParseSelectedSheet(t *testing.T) {
	path := writeWorkbook(t)

	wb, err := Parse(path, Options{SheetName: "costs"})
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "Costs", wb.Sheets[0].Name)
	assert.Equal(t, 1, wb.Sheets[0].Index)

	_, err = Parse(path, Options{SheetName: "Nope"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.ErrorContains(t, err, `"Nope"`)
}

func TestParseIncludeHidden(t *testing.T) {
	wb, err := Parse(writeWorkbook(t), Options{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales", "Costs", "_lookup", "Secret"}, wb.SheetNames())
}

func TestPayloadNormalizes(t *testing.T) {
	wb, err := Parse(writeWorkbook(t), Options{})
	require.NoError(t, err)

	loc := normalizer.Classify(wb.Payload())
	require.True(t, loc.Found())
	assert.Equal(t, normalizer.StrategySheets, loc.Strategy)
	assert.Equal(t, []string{"Region", "Sales"}, loc.Table.Columns)
	assert.Len(t, loc.Table.Rows, 2)
	assert.Equal(t, "200", loc.Table.Rows[1].Value("Sales"))

	first, ok := wb.Payload().Value("sheets").([]any)[0].(*types.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "data"}, first.Keys())
}

func TestListSheets(t *testing.T) {
	path := writeWorkbook(t)

	wb, err := Parse(path, Options{SheetName: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, path, wb.SourceFile)
	assert.Equal(t, []string{"Sales"}, wb.SheetNames())

	names, err := ListSheets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales", "Costs", "_lookup", "Secret"}, names)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	assert.ErrorContains(t, err, "failed to open workbook")
}
