// =============================================================================
// Excel Analytics - Structural Normalizer: Row Shaping
// =============================================================================
//
// The single shaping step every recognizer hands its array to.
//
// =============================================================================

package normalizer

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/format"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// =============================================================================
// ROW SHAPING
// =============================================================================

// shapeRows turns a located array into a table.
//
// ARRAY OF ARRAYS:
//   - the first element is the header row
//   - header cells are rendered as text and trimmed
//   - empty header cells become Column_N (1-based position)
//   - repeated names get a _2, _3 ... suffix
//   - the header widens to the longest data row
//   - each data row is zipped by position; short rows read as nil
//
// ARRAY OF OBJECTS:
//   - the keys of the first element are the columns
//   - elements are used as they are; non-objects become empty rows
//
// RETURNS:
//   - The table, or nil when no column could be established.
//   - The form of the array (ShapeArrayOfArrays or ShapeArrayOfObjects).
func shapeRows(arr []any) (*types.Table, ShapeKind) {
	if len(arr) == 0 {
		return nil, ShapeUnknown
	}

	if header, ok := asArray(arr[0]); ok {
		return shapeArrayRows(header, arr[1:]), ShapeArrayOfArrays
	}
	if first, ok := asObject(arr[0]); ok {
		return shapeObjectRows(first, arr), ShapeArrayOfObjects
	}
	return nil, ShapeUnknown
}

func shapeArrayRows(header []any, data []any) *types.Table {
	rows := make([][]any, len(data))
	width := len(header)
	for i, d := range data {
		if r, ok := asArray(d); ok {
			rows[i] = r
			if len(r) > width {
				width = len(r)
			}
		}
	}

	columns := headerColumns(header, width)
	if len(columns) == 0 {
		return nil
	}

	table := &types.Table{
		Columns: columns,
		Rows:    make([]*types.Object, len(rows)),
	}
	for i, r := range rows {
		obj := types.NewObject(len(columns))
		for j, col := range columns {
			var v any
			if j < len(r) {
				v = r[j]
			}
			obj.Set(col, v)
		}
		table.Rows[i] = obj
	}
	return table
}

// headerColumns names width columns from the header cells.
func headerColumns(header []any, width int) []string {
	columns := make([]string, 0, width)
	seen := make(map[string]bool, width)

	for i := 0; i < width; i++ {
		var name string
		if i < len(header) {
			name = strings.TrimSpace(format.Text(header[i]))
		}
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		name = uniqueName(name, seen)
		seen[name] = true
		columns = append(columns, name)
	}
	return columns
}

func uniqueName(name string, seen map[string]bool) string {
	if !seen[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if !seen[candidate] {
			return candidate
		}
	}
}

func shapeObjectRows(first *types.Object, arr []any) *types.Table {
	columns := first.Keys()
	if len(columns) == 0 {
		return nil
	}

	table := &types.Table{
		Columns: columns,
		Rows:    make([]*types.Object, len(arr)),
	}
	for i, el := range arr {
		obj, ok := asObject(el)
		if !ok {
			obj = types.NewObject(0)
		}
		table.Rows[i] = obj
	}
	return table
}
