// =============================================================================
// Excel Analytics - Structural Normalizer: Recognizers
// =============================================================================
//
// Locates the tabular array inside a payload and reports how it was found.
//
// =============================================================================

package normalizer

import (
	"github.com/ginjaninja78/excel-analytics/internal/rawjson"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// =============================================================================
// SHAPES
// =============================================================================

// ShapeKind tags the structure a payload was recognized as.
type ShapeKind int

const (
	ShapeUnknown ShapeKind = iota
	ShapeArrayOfArrays
	ShapeArrayOfObjects
	ShapeSheetsWrapper
	ShapeDataWrapper
	ShapeSheetWrapper
	ShapeContentWrapper
	ShapeExcelDataWrapper
)

var shapeNames = map[ShapeKind]string{
	ShapeUnknown:          "Unknown",
	ShapeArrayOfArrays:    "ArrayOfArrays",
	ShapeArrayOfObjects:   "ArrayOfObjects",
	ShapeSheetsWrapper:    "SheetsWrapper",
	ShapeDataWrapper:      "DataWrapper",
	ShapeSheetWrapper:     "SheetWrapper",
	ShapeContentWrapper:   "ContentWrapper",
	ShapeExcelDataWrapper: "ExcelDataWrapper",
}

func (k ShapeKind) String() string {
	if name, ok := shapeNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Strategy names the recognizer that located the table.
type Strategy string

const (
	StrategyNone      Strategy = ""
	StrategySheets    Strategy = "sheets"
	StrategyData      Strategy = "data"
	StrategySheet     Strategy = "sheet"
	StrategyContent   Strategy = "content"
	StrategyArray     Strategy = "array"
	StrategyExcelData Strategy = "excelData"
	StrategyFallback  Strategy = "fallback"
)

// Located is the result of classifying a payload.
type Located struct {
	// Kind is the outer shape of the payload. A payload found only by the
	// fallback scan stays ShapeUnknown.
	Kind ShapeKind

	// Form is ShapeArrayOfArrays or ShapeArrayOfObjects for the located array.
	Form ShapeKind

	// Strategy is the recognizer that matched.
	Strategy Strategy

	// Path describes where the array was found, e.g. "sheets[0].data".
	Path string

	// Array is the located array, as found in the payload.
	Array []any

	// Table is the shaped table.
	Table *types.Table
}

// Found reports whether a recognizer produced a table.
func (l Located) Found() bool {
	return l.Table != nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// candidate is an array a recognizer proposes as the table.
type candidate struct {
	path  string
	array []any
}

// recognizer proposes candidate arrays for a payload, best first.
type recognizer struct {
	strategy Strategy
	kind     ShapeKind
	find     func(raw any) []candidate
}

// recognizers run in this order; the first candidate that shapes into a
// table with at least one column wins.
var recognizers = []recognizer{
	{StrategySheets, ShapeSheetsWrapper, func(raw any) []candidate {
		return sheetsData(raw, "sheets[0].data")
	}},
	{StrategyData, ShapeDataWrapper, func(raw any) []candidate {
		return arrayProperty(raw, "data", "data")
	}},
	{StrategySheet, ShapeSheetWrapper, func(raw any) []candidate {
		obj, ok := asObject(raw)
		if !ok {
			return nil
		}
		return arrayProperty(obj.Value("sheet"), "data", "sheet.data")
	}},
	{StrategyContent, ShapeContentWrapper, findContent},
	{StrategyArray, ShapeUnknown, func(raw any) []candidate {
		if arr, ok := asArray(raw); ok && len(arr) > 0 {
			return []candidate{{path: "$", array: arr}}
		}
		return nil
	}},
	{StrategyExcelData, ShapeExcelDataWrapper, findExcelData},
	{StrategyFallback, ShapeUnknown, findFallback},
}

// Classify runs the recognizers over raw and reports the first match.
// When nothing matches, the returned Located has Kind ShapeUnknown and
// Found() is false.
func Classify(raw any) Located {
	for _, r := range recognizers {
		for _, c := range r.find(raw) {
			table, form := shapeRows(c.array)
			if table == nil {
				continue
			}

			kind := r.kind
			if r.strategy == StrategyArray {
				kind = form
			}
			return Located{
				Kind:     kind,
				Form:     form,
				Strategy: r.strategy,
				Path:     c.path,
				Array:    c.array,
				Table:    table,
			}
		}
	}
	return Located{Kind: ShapeUnknown, Strategy: StrategyNone}
}

// =============================================================================
// RECOGNIZERS
// =============================================================================

// arrayProperty proposes v[key] when it is a non-empty array.
func arrayProperty(v any, key, path string) []candidate {
	obj, ok := asObject(v)
	if !ok {
		return nil
	}
	if arr, ok := asArray(obj.Value(key)); ok && len(arr) > 0 {
		return []candidate{{path: path, array: arr}}
	}
	return nil
}

// sheetsData proposes v.sheets[0].data.
func sheetsData(v any, path string) []candidate {
	obj, ok := asObject(v)
	if !ok {
		return nil
	}
	sheets, ok := asArray(obj.Value("sheets"))
	if !ok || len(sheets) == 0 {
		return nil
	}
	return arrayProperty(sheets[0], "data", path)
}

// dataOrSheets proposes v.data, then v.sheets[0].data.
func dataOrSheets(v any, prefix string) []candidate {
	out := arrayProperty(v, "data", prefix+".data")
	return append(out, sheetsData(v, prefix+".sheets[0].data")...)
}

func findContent(raw any) []candidate {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}
	content, ok := obj.Get("content")
	if !ok {
		return nil
	}
	if s, isString := content.(string); isString {
		parsed, err := rawjson.Decode([]byte(s))
		if err != nil {
			return nil
		}
		content = parsed
	}
	return dataOrSheets(content, "content")
}

func findExcelData(raw any) []candidate {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}
	v := obj.Value("excelData")
	if arr, ok := asArray(v); ok {
		if len(arr) == 0 {
			return nil
		}
		return []candidate{{path: "excelData", array: arr}}
	}
	return dataOrSheets(v, "excelData")
}

// findFallback proposes every non-empty array among raw's own properties,
// in key order, followed by those one level down in nested objects.
func findFallback(raw any) []candidate {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	var direct, nested []candidate
	for _, key := range obj.Keys() {
		v := obj.Value(key)
		if arr, ok := asArray(v); ok {
			if len(arr) > 0 {
				direct = append(direct, candidate{path: key, array: arr})
			}
			continue
		}
		child, ok := asObject(v)
		if !ok {
			continue
		}
		for _, childKey := range child.Keys() {
			if arr, ok := asArray(child.Value(childKey)); ok && len(arr) > 0 {
				nested = append(nested, candidate{path: key + "." + childKey, array: arr})
			}
		}
	}
	return append(direct, nested...)
}

// =============================================================================
// VALUE ACCESS
// =============================================================================

// asObject views v as an ordered object. Plain maps become new objects with
// sorted keys; the input is left untouched.
func asObject(v any) (*types.Object, bool) {
	switch o := v.(type) {
	case *types.Object:
		return o, o != nil
	case map[string]any:
		return types.ObjectFromMap(o), true
	case map[string]string:
		m := make(map[string]any, len(o))
		for k, s := range o {
			m[k] = s
		}
		return types.ObjectFromMap(m), true
	default:
		return nil, false
	}
}

// asArray views v as a generic array. Typed slices are copied into []any.
func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []*types.Object:
		return convert(a), true
	case []map[string]any:
		return convert(a), true
	case [][]any:
		return convert(a), true
	case [][]string:
		return convert(a), true
	case []string:
		return convert(a), true
	case []float64:
		return convert(a), true
	default:
		return nil, false
	}
}

func convert[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
