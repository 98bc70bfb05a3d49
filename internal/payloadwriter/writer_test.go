package payloadwriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/chartpayload"
	"github.com/ginjaninja78/excel-analytics/internal/normalizer"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) *chartpayload.ChartPayload {
	t.Helper()
	table, err := normalizer.NormalizeJSON([]byte(`[["Name","Value"],["<a> & b",1],["c",2]]`))
	require.NoError(t, err)

	sel := types.AxisSelection{X: "Name", Y: []string{"Value"}}
	payload, err := chartpayload.Build(chartpayload.BuildArgs{
		Title:     "t",
		FileID:    "f",
		ChartType: "line",
		Selection: &sel,
		Table:     table,
	})
	require.NoError(t, err)
	return payload
}

func TestGenerate(t *testing.T) {
	data, err := GenerateWithOptions(samplePayload(t), DefaultGenerateOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.Contains(t, string(data), `"<a> & b"`)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "line", doc["type"])
}

func TestGeneratePretty(t *testing.T) {
	data, err := GenerateWithOptions(samplePayload(t), GenerateOptions{Pretty: true, Indent: "\t"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n\t\"title\": \"t\"")
}

func TestGenerateRejectsMisaligned(t *testing.T) {
	payload := samplePayload(t)
	payload.Data.Datasets[0].Data = payload.Data.Datasets[0].Data[:1]

	_, err := GenerateWithOptions(payload, DefaultGenerateOptions())
	assert.ErrorContains(t, err, "refusing to write payload")

	_, err = GenerateWithOptions(nil, DefaultGenerateOptions())
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	payload, err := GenerateWithOptions(samplePayload(t), DefaultGenerateOptions())
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, payload))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}
