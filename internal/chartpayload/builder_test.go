package chartpayload

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/normalizer"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionSales(t *testing.T) *types.Table {
	t.Helper()
	table, err := normalizer.NormalizeJSON([]byte(
		`{"data":[{"Region":"East","Sales":"100","Cost":"n/a"},{"Region":"West","Sales":"200","Cost":50}]}`))
	require.NoError(t, err)
	return table
}

func baseArgs(table *types.Table, sel types.AxisSelection) BuildArgs {
	return BuildArgs{
		Title:     "Sales by region",
		FileID:    "file-1",
		ChartType: "bar",
		Selection: &sel,
		Table:     table,
		SheetName: "Sheet1",
	}
}

func TestBuildRegionSales(t *testing.T) {
	payload, err := Build(baseArgs(regionSales(t), types.AxisSelection{X: "Region", Y: []string{"Sales"}}))
	require.NoError(t, err)

	assert.Equal(t, []string{"East", "West"}, payload.Data.Labels)
	require.Len(t, payload.Data.Datasets, 1)
	assert.Equal(t, []float64{100, 200}, payload.Data.Datasets[0].Data)
	assert.Equal(t, "Sales", payload.Data.Datasets[0].Label)
	assert.Equal(t, DefaultPalette[0], payload.Data.Datasets[0].BackgroundColor)

	assert.Equal(t, "bar", payload.Type)
	assert.Equal(t, types.ColumnString, payload.XAxis.Type)
	assert.Equal(t, types.ColumnNumeric, payload.YAxis[0].Type)
	assert.Nil(t, payload.ZAxis)
	assert.Equal(t, []string{"Region", "Sales", "Cost"}, payload.Columns)
	assert.NoError(t, payload.CheckAlignment())
}

func TestBuildAlignmentWithBadCells(t *testing.T) {
	payload, err := Build(baseArgs(regionSales(t), types.AxisSelection{X: "Missing", Y: []string{"Cost", "Sales"}}))
	require.NoError(t, err)

	assert.Equal(t, []string{"", ""}, payload.Data.Labels)
	assert.Equal(t, []float64{0, 50}, payload.Data.Datasets[0].Data)
	for _, ds := range payload.Data.Datasets {
		assert.Len(t, ds.Data, len(payload.Data.Labels))
	}
	assert.Equal(t, DefaultPalette[1], payload.Data.Datasets[1].BorderColor)
}

func TestBuild3DTypePrefixAndZAxis(t *testing.T) {
	args := baseArgs(regionSales(t), types.AxisSelection{X: "Region", Y: []string{"Sales"}, Z: "Cost"})
	args.ChartType = "scatter"
	args.ChartDimension = types.Dimension3D

	payload, err := Build(args)
	require.NoError(t, err)
	assert.Equal(t, "3d-scatter", payload.Type)
	require.NotNil(t, payload.ZAxis)
	assert.Equal(t, "Cost", payload.ZAxis.Field)
	assert.Equal(t, []float64{0, 50}, payload.ZAxis.Data)
	assert.Equal(t, "3d", payload.Config.Dimension)
}

func TestPaletteWrapsAround(t *testing.T) {
	table := &types.Table{Columns: []string{"x"}}
	row := types.NewObject(0)
	row.Set("x", "a")
	ys := make([]string, len(DefaultPalette)+2)
	for i := range ys {
		ys[i] = fmt.Sprintf("y%d", i)
		table.Columns = append(table.Columns, ys[i])
		row.Set(ys[i], float64(i))
	}
	table.Rows = []*types.Object{row}

	payload, err := Build(baseArgs(table, types.AxisSelection{X: "x", Y: ys}))
	require.NoError(t, err)
	assert.Equal(t, DefaultPalette[0], payload.Data.Datasets[len(DefaultPalette)].BackgroundColor)
	assert.Equal(t, DefaultPalette[1], payload.Data.Datasets[len(DefaultPalette)+1].BackgroundColor)
}

func TestSourceIsCapped(t *testing.T) {
	rows := [][]any{{"n", "v"}}
	for i := 0; i < 150; i++ {
		rows = append(rows, []any{fmt.Sprint(i), float64(i)})
	}
	table, err := normalizer.Normalize(rows)
	require.NoError(t, err)

	payload, err := New().Build(baseArgs(table, types.AxisSelection{X: "n", Y: []string{"v"}}))
	require.NoError(t, err)
	assert.Len(t, payload.Data.Source, DefaultSourceCap)
	assert.Len(t, payload.Data.Labels, 150)
	assert.Same(t, table.Rows[0], payload.Data.Source[0])

	small, err := New(WithSourceCap(5)).Build(baseArgs(table, types.AxisSelection{X: "n", Y: []string{"v"}}))
	require.NoError(t, err)
	assert.Len(t, small.Data.Source, 5)
}

func TestMissingRequiredFields(t *testing.T) {
	_, err := Build(BuildArgs{ChartType: "bar"})

	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"title", "fileId", "selection", "table"}, missing.Fields)
}

func TestPayloadJSONFieldSet(t *testing.T) {
	payload, err := Build(baseArgs(regionSales(t), types.AxisSelection{X: "Region", Y: []string{"Sales"}}))
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"columns", "config", "configuration", "data", "description", "excelFileId",
		"sheetName", "sourceFile", "title", "type", "xAxis", "yAxis", "zAxis",
	}, keys)

	assert.JSONEq(t, string(doc["config"]), string(doc["configuration"]))
	assert.Equal(t, "null", string(doc["zAxis"]))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["data"], &data))
	assert.Contains(t, data, "labels")
	assert.Contains(t, data, "datasets")
	assert.Contains(t, data, "source")
	assert.Contains(t, data, "selectedColumns")
	assert.JSONEq(t, `[{"Region":"East","Sales":"100","Cost":"n/a"},{"Region":"West","Sales":"200","Cost":50}]`,
		string(data["source"]))
}

func TestMapLabels(t *testing.T) {
	payload, err := Build(baseArgs(regionSales(t), types.AxisSelection{X: "Region", Y: []string{"Sales"}}))
	require.NoError(t, err)

	payload.MapLabels(func(s string) string { return s + "!" })
	assert.Equal(t, []string{"East!", "West!"}, payload.Data.Labels)
	assert.Equal(t, payload.Data.Labels, payload.XAxis.Data)
	assert.NoError(t, payload.CheckAlignment())
}
