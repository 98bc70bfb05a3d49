package normalizer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/excel-analytics/internal/coltype"
	"github.com/ginjaninja78/excel-analytics/internal/rawjson"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, doc string) *types.Table {
	t.Helper()
	table, err := NormalizeJSON([]byte(doc))
	require.NoError(t, err)
	return table
}

func mustDecode(t *testing.T, doc string) any {
	t.Helper()
	raw, err := rawjson.Decode([]byte(doc))
	require.NoError(t, err)
	return raw
}

func jsonOf(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func rowValues(table *types.Table) [][]any {
	out := make([][]any, len(table.Rows))
	for i, row := range table.Rows {
		vals := make([]any, len(table.Columns))
		for j, c := range table.Columns {
			vals[j] = row.Value(c)
		}
		out[i] = vals
	}
	return out
}

func TestHeaderRoundTrip(t *testing.T) {
	table := mustJSON(t, `[["A","B"],[1,2],[3,4]]`)

	assert.Equal(t, []string{"A", "B"}, table.Columns)
	assert.Equal(t, [][]any{{1.0, 2.0}, {3.0, 4.0}}, rowValues(table))
	assert.Equal(t, []string{"A", "B"}, table.Rows[0].Keys())
}

func TestRegionSalesScenario(t *testing.T) {
	table := mustJSON(t, `{"data":[{"Region":"East","Sales":"100"},{"Region":"West","Sales":"200"}]}`)

	assert.Equal(t, []string{"Region", "Sales"}, table.Columns)
	assert.Equal(t, types.ColumnNumeric, coltype.Classify("Sales", table.Rows, 10))
	assert.Equal(t, types.ColumnString, coltype.Classify("Region", table.Rows, 10))
}

func TestEmptyObjectHasNoTabularData(t *testing.T) {
	table, err := Normalize(map[string]any{})
	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTabularData))

	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, NoTabularDataFound, nerr.Kind)
}

func TestNoTabularDataCases(t *testing.T) {
	inputs := []any{
		nil,
		"just text",
		42.0,
		[]any{},
		[]any{1.0, 2.0},
		map[string]any{"data": []any{}},
		map[string]any{"data": []any{map[string]any{}}},
		map[string]any{"content": "not json"},
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, err := Normalize(in)
			assert.ErrorIs(t, err, ErrNoTabularData, "input %#v", in)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	_, err := NormalizeJSON([]byte(`{"data": [`))
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, InvalidPayload, nerr.Kind)
	assert.False(t, errors.Is(err, ErrNoTabularData))
}

func TestDeeplyNestedJSON(t *testing.T) {
	depth := rawjson.MaxDepth * 100
	doc := strings.Repeat("[", depth) + strings.Repeat("]", depth)

	_, err := NormalizeJSON([]byte(doc))
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, InvalidPayload, nerr.Kind)
	assert.ErrorIs(t, err, rawjson.ErrTooDeep)
}

func TestRecognizerPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		strategy Strategy
		kind     ShapeKind
		columns  []string
	}{
		{
			name:     "sheets beats fallback",
			doc:      `{"other":[["X"],[9]],"sheets":[{"name":"S1","data":[["A"],[1]]}]}`,
			strategy: StrategySheets,
			kind:     ShapeSheetsWrapper,
			columns:  []string{"A"},
		},
		{
			name:     "sheets beats data",
			doc:      `{"data":[["D"],[1]],"sheets":[{"data":[["S"],[1]]}]}`,
			strategy: StrategySheets,
			kind:     ShapeSheetsWrapper,
			columns:  []string{"S"},
		},
		{
			name:     "data",
			doc:      `{"data":[{"a":1}]}`,
			strategy: StrategyData,
			kind:     ShapeDataWrapper,
			columns:  []string{"a"},
		},
		{
			name:     "singular sheet",
			doc:      `{"sheet":{"data":[["H"],["v"]]}}`,
			strategy: StrategySheet,
			kind:     ShapeSheetWrapper,
			columns:  []string{"H"},
		},
		{
			name:     "content string with data",
			doc:      `{"content":"{\"data\":[[\"C\"],[1]]}"}`,
			strategy: StrategyContent,
			kind:     ShapeContentWrapper,
			columns:  []string{"C"},
		},
		{
			name:     "content object with sheets",
			doc:      `{"content":{"sheets":[{"data":[{"q":1}]}]}}`,
			strategy: StrategyContent,
			kind:     ShapeContentWrapper,
			columns:  []string{"q"},
		},
		{
			name:     "direct array of objects",
			doc:      `[{"k":1,"j":2}]`,
			strategy: StrategyArray,
			kind:     ShapeArrayOfObjects,
			columns:  []string{"k", "j"},
		},
		{
			name:     "excelData array",
			doc:      `{"excelData":[["E"],[1]]}`,
			strategy: StrategyExcelData,
			kind:     ShapeExcelDataWrapper,
			columns:  []string{"E"},
		},
		{
			name:     "excelData sheets",
			doc:      `{"excelData":{"sheets":[{"data":[["ES"],[1]]}]}}`,
			strategy: StrategyExcelData,
			kind:     ShapeExcelDataWrapper,
			columns:  []string{"ES"},
		},
		{
			name:     "fallback own property",
			doc:      `{"meta":{"rows":[["N"],[1]]},"rows":[["F"],[1]]}`,
			strategy: StrategyFallback,
			kind:     ShapeUnknown,
			columns:  []string{"F"},
		},
		{
			name:     "fallback nested property",
			doc:      `{"meta":{"title":"t"},"payload":{"table":[{"n":1}]}}`,
			strategy: StrategyFallback,
			kind:     ShapeUnknown,
			columns:  []string{"n"},
		},
		{
			name:     "empty data falls through to fallback",
			doc:      `{"data":[],"rows":[["R"],[1]]}`,
			strategy: StrategyFallback,
			kind:     ShapeUnknown,
			columns:  []string{"R"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := mustJSON(t, tt.doc)
			assert.Equal(t, tt.columns, table.Columns)

			raw := mustDecode(t, tt.doc)
			loc := Classify(raw)
			require.True(t, loc.Found())
			assert.Equal(t, tt.strategy, loc.Strategy)
			assert.Equal(t, tt.kind, loc.Kind)
		})
	}
}

func TestHeaderPlaceholdersAndDuplicates(t *testing.T) {
	table := mustJSON(t, `[[" Name ", null, "", "Name", 2024],["a",1,2,3,4,"extra"],["b"]]`)

	assert.Equal(t, []string{"Name", "Column_2", "Column_3", "Name_2", "2024", "Column_6"}, table.Columns)
	assert.Equal(t, []any{"a", 1.0, 2.0, 3.0, 4.0, "extra"}, rowValues(table)[0])

	short := table.Rows[1]
	assert.Equal(t, len(table.Columns), short.Len())
	assert.True(t, short.Has("Column_6"))
	assert.Nil(t, short.Value("Column_6"))
}

func TestHeaderOnlyTable(t *testing.T) {
	table := mustJSON(t, `{"data":[["A","B"]]}`)
	assert.Equal(t, []string{"A", "B"}, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestObjectRowsKeepAlignment(t *testing.T) {
	table := mustJSON(t, `[{"a":1},"junk",{"a":3}]`)
	require.Len(t, table.Rows, 3)
	assert.Nil(t, table.Rows[1].Value("a"))
	assert.Equal(t, 3.0, table.Rows[2].Value("a"))
}

func TestObjectRowsKeepDocumentKeyOrder(t *testing.T) {
	table := mustJSON(t, `[{"Region":"East","2024":1,"2023":2},{"Region":"West","2024":3,"2023":4}]`)
	assert.Equal(t, []string{"Region", "2024", "2023"}, table.Columns)
	assert.Equal(t, 4.0, table.Rows[1].Value("2023"))
}

func TestPlainGoValues(t *testing.T) {
	raw := map[string]any{
		"data": []map[string]any{
			{"b": 2, "a": 1},
			{"b": 4, "a": 3},
		},
	}
	table, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Equal(t, 3, table.Rows[1].Value("a"))

	table, err = Normalize([][]string{{"x", "y"}, {"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, table.Columns)
	assert.Equal(t, "2", table.Rows[0].Value("y"))
}

func TestNormalizeIsIdempotentAndDoesNotMutate(t *testing.T) {
	raw := mustDecode(t, `{"sheets":[{"data":[["A","A",""],[1,2,3]]}]}`)
	before, err := jsonOf(raw)
	require.NoError(t, err)

	first, err := Normalize(raw)
	require.NoError(t, err)
	second, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, first.Columns, second.Columns)
	assert.Equal(t, rowValues(first), rowValues(second))

	after, err := jsonOf(raw)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
