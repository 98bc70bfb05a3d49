// =============================================================================
// Excel Analytics - Column Type Analyzer
// =============================================================================
//
// This module classifies the values of a column as numeric, date, or string.
//
// CLASSIFICATION ORDER:
//   1. No non-blank samples               -> unknown
//   2. Every sample is a date             -> date
//   3. Every sample is a number           -> numeric
//   4. Anything else                      -> string
//
// The date check runs before the numeric check. Values that read as plain
// numbers ("2020", 42) never count as dates, so a column of years is numeric.
//
// STABILITY:
//   Axis filtering, validation and payload construction must agree on the
//   type of a column. Call sites share an Analyzer bound to one table, which
//   memoizes each column's type.
//
// =============================================================================

package coltype

import (
	"github.com/ginjaninja78/excel-analytics/internal/cell"
	"github.com/ginjaninja78/excel-analytics/internal/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSampleSize is the number of non-blank values inspected per column.
const DefaultSampleSize = 10

// DefaultCacheSize bounds the number of memoized column types per table.
const DefaultCacheSize = 256

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify returns the type of column in rows.
//
// PARAMETERS:
//   - column: The column name to classify.
//   - rows: The normalized rows.
//   - sampleSize: The maximum number of non-blank values to inspect.
//                 Values <= 0 use DefaultSampleSize.
//
// RETURNS:
//   - The inferred ColumnType.
func Classify(column string, rows []*types.Object, sampleSize int) types.ColumnType {
	return ClassifyValues(Sample(column, rows, sampleSize))
}

// Sample collects up to sampleSize non-blank values of column, in row order.
func Sample(column string, rows []*types.Object, sampleSize int) []any {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	samples := make([]any, 0, sampleSize)
	for _, row := range rows {
		if len(samples) >= sampleSize {
			break
		}
		v := row.Value(column)
		if cell.IsBlank(v) {
			continue
		}
		samples = append(samples, v)
	}
	return samples
}

// ClassifyValues classifies an already-collected sample.
func ClassifyValues(samples []any) types.ColumnType {
	if len(samples) == 0 {
		return types.ColumnUnknown
	}
	if all(samples, cell.IsDate) {
		return types.ColumnDate
	}
	if all(samples, cell.IsNumber) {
		return types.ColumnNumeric
	}
	return types.ColumnString
}

func all(values []any, pred func(any) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

// =============================================================================
// ANALYZER
// =============================================================================

// TypeResolver resolves the type of a column of one table snapshot.
// Validators and payload builders take this interface so they resolve
// identical types.
type TypeResolver interface {
	Type(column string) types.ColumnType
}

// Analyzer memoizes column types for a single table.
// It is safe for concurrent use.
type Analyzer struct {
	table      *types.Table
	sampleSize int
	cache      *lru.Cache[string, types.ColumnType]
}

// NewAnalyzer binds an analyzer to table.
//
// PARAMETERS:
//   - table: The normalized table. It must not change while the analyzer is in use.
//   - sampleSize: Samples per column (<= 0 uses DefaultSampleSize).
//   - cacheSize: Number of memoized columns (<= 0 uses DefaultCacheSize).
func NewAnalyzer(table *types.Table, sampleSize, cacheSize int) (*Analyzer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	cache, err := lru.New[string, types.ColumnType](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		table:      table,
		sampleSize: sampleSize,
		cache:      cache,
	}, nil
}

// Type returns the memoized type of column.
func (a *Analyzer) Type(column string) types.ColumnType {
	if t, ok := a.cache.Get(column); ok {
		return t
	}
	var rows []*types.Object
	if a.table != nil {
		rows = a.table.Rows
	}
	t := Classify(column, rows, a.sampleSize)
	a.cache.Add(column, t)
	return t
}

// ColumnsOfType returns the table columns that resolve to want, in header order.
// The chart UI uses this to offer only numeric columns for Y and Z axes.
func (a *Analyzer) ColumnsOfType(want types.ColumnType) []string {
	if a.table == nil {
		return nil
	}
	var out []string
	for _, c := range a.table.Columns {
		if a.Type(c) == want {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// PROFILES
// =============================================================================

// ColumnProfile summarizes one column for inspection output.
type ColumnProfile struct {
	Name     string           `json:"name"`
	Type     types.ColumnType `json:"type"`
	NonBlank int              `json:"nonBlank"`
	Samples  []any            `json:"samples"`
}

// Profile describes every column of the analyzer's table.
func (a *Analyzer) Profile() []ColumnProfile {
	if a.table == nil {
		return nil
	}

	profiles := make([]ColumnProfile, 0, len(a.table.Columns))
	for _, c := range a.table.Columns {
		nonBlank := 0
		for _, row := range a.table.Rows {
			if !cell.IsBlank(row.Value(c)) {
				nonBlank++
			}
		}
		profiles = append(profiles, ColumnProfile{
			Name:     c,
			Type:     a.Type(c),
			NonBlank: nonBlank,
			Samples:  Sample(c, a.table.Rows, a.sampleSize),
		})
	}
	return profiles
}
