package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settings(delim string, headerRows int) config.CSVSettings {
	return config.CSVSettings{
		Delimiter:    delim,
		HeaderRows:   headerRows,
		DataStartRow: headerRows + 1,
	}
}

func TestParseReaderSingleHeader(t *testing.T) {
	input := "\ufeffRegion, Sales\nEast,100\n\n , \nWest, 200\n"
	data, err := ParseReader(strings.NewReader(input), settings(",", 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Sales"}, data.Headers)
	assert.Equal(t, [][]string{{"East", "100"}, {"West", "200"}}, data.Rows)
	assert.Equal(t, 2, data.RowCount)
	assert.Equal(t, 2, data.ColumnCount)

	payload := data.Payload()
	require.Len(t, payload, 3)
	assert.Equal(t, []any{"Region", "Sales"}, payload[0])
	assert.Equal(t, []any{"West", "200"}, payload[2])
}

func TestParseReaderMultiLineHeader(t *testing.T) {
	input := "Sales||Cost|\nQ1|Q2|Q1|Q2\n1|2|3|4\n"
	data, err := ParseReader(strings.NewReader(input), settings("pipe", 2))
	require.NoError(t, err)

	assert.Equal(t, []string{"Sales Q1", "Q2", "Cost Q1", "Q2"}, data.Headers)
	assert.Equal(t, [][]string{{"1", "2", "3", "4"}}, data.Rows)
}

func TestParseReaderDataStartRowAndComments(t *testing.T) {
	s := config.CSVSettings{Delimiter: "\\t", HeaderRows: 1, DataStartRow: 3, Comment: "#"}
	input := "a\tb\nskipped\tx\n# note\n1\t2\n"
	data, err := ParseReader(strings.NewReader(input), s)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"1", "2"}}, data.Rows)
}

func TestParseReaderErrors(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), settings(",", 1))
	assert.ErrorContains(t, err, "empty")

	_, err = ParseReader(strings.NewReader("a,b\n"), settings(",", 3))
	assert.ErrorContains(t, err, "fewer rows than header_rows")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("x;y\n1;2\n"), 0644))

	data, err := Parse(path, settings(";", 1))
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, []string{"x", "y"}, data.Headers)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), settings(",", 1))
	assert.ErrorContains(t, err, "failed to open file")
}
