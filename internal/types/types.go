// =============================================================================
// Excel Analytics - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - normalizer
//   - coltype
//   - validation
//   - chartpayload
//   - converter
//
// =============================================================================

package types

import (
	"bytes"
	"encoding/json"
	"sort"
)

// =============================================================================
// ORDERED OBJECT
// =============================================================================

// Object is a JSON object that remembers the order its keys were inserted in.
//
// Key order is significant for uploaded spreadsheets: the keys of the first
// row object define the column order of the table, and rows are echoed back
// to the persistence layer in the order they were received.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty Object with room for n keys.
func NewObject(n int) *Object {
	return &Object{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// ObjectFromMap builds an Object from a plain map.
// Plain maps carry no order, so keys are sorted to keep the result stable.
func ObjectFromMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := NewObject(len(keys))
	for _, k := range keys {
		obj.Set(k, m[k])
	}
	return obj
}

// Set stores a value. New keys are appended; existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key and whether the key exists.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil when the key is absent.
func (o *Object) Value(key string) any {
	v, _ := o.Get(key)
	return v
}

// Has reports whether key exists on the object.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON writes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// =============================================================================
// NORMALIZED TABLE
// =============================================================================

// Table is the canonical tabular form every uploaded payload is reduced to.
//
// Columns are unique and ordered as in the source header. Rows keep the
// source row order exactly; a column that a row does not carry reads as nil.
// A Table is read-only once produced: consumers must not modify rows.
type Table struct {
	// Columns holds the column names in header order.
	Columns []string

	// Rows holds one object per data row.
	Rows []*Object
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns every value of the named column, in row order.
func (t *Table) Column(name string) []any {
	if t == nil {
		return nil
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row.Value(name)
	}
	return values
}

// =============================================================================
// COLUMN TYPES
// =============================================================================

// ColumnType is the inferred data type of a column.
type ColumnType string

const (
	ColumnNumeric ColumnType = "numeric"
	ColumnDate    ColumnType = "date"
	ColumnString  ColumnType = "string"
	ColumnUnknown ColumnType = "unknown"
)

// =============================================================================
// AXIS SELECTION
// =============================================================================

// ChartDimension selects between flat and three-dimensional charts.
type ChartDimension string

const (
	Dimension2D ChartDimension = "2d"
	Dimension3D ChartDimension = "3d"
)

// AxisSelection is the user's mapping of table columns to chart axes.
type AxisSelection struct {
	// X is the column used for labels.
	X string `json:"x" yaml:"x"`

	// Y lists the columns plotted as series. Must not be empty.
	Y []string `json:"y" yaml:"y"`

	// Z is the depth column. Empty means no Z axis.
	Z string `json:"z,omitempty" yaml:"z,omitempty"`
}

// HasZ reports whether a Z column was selected.
func (s AxisSelection) HasZ() bool {
	return s.Z != ""
}

// IsScatter3D reports whether chartType/dimension describe a 3D scatter plot,
// the one chart kind that cannot be drawn without a numeric Z axis.
func IsScatter3D(chartType string, dimension ChartDimension) bool {
	return dimension == Dimension3D && chartType == "scatter"
}
