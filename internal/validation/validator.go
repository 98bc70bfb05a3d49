// =============================================================================
// Excel Analytics - Chart Data Validator
// =============================================================================
//
// This module checks that an axis selection can be drawn from a normalized
// table before a chart payload is built.
//
// VALIDATION STRATEGY:
//   Validation runs in two gates:
//   1. Axis emptiness: the table has rows, X is set, Y is non-empty and has
//      no empty entries, and a 3D scatter chart has a Z axis.
//   2. Column presence: X, every Y and Z must be keys of the first row.
//      A 3D scatter Z axis must also be numeric.
//   Gate 1 issues are all collected; if there are any, gate 2 is skipped.
//
// ERROR HANDLING:
//   - Issues are collected, not returned one by one
//   - Each issue has a stable code so callers can tell reasons apart
//   - Warnings (a Y column that is not numeric) do not fail validation
//   - Result.Err() converts a failed result to an InvalidAxisSelectionError
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/coltype"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// =============================================================================
// ISSUES
// =============================================================================

// Code identifies the constraint an issue violates.
type Code string

const (
	CodeNoRows               Code = "no_rows"
	CodeMissingXAxis         Code = "missing_x_axis"
	CodeMissingYAxis         Code = "missing_y_axis"
	CodeEmptyColumnSelection Code = "empty_column_selection"
	CodeMissingZAxis         Code = "missing_z_axis"
	CodeMissingColumns       Code = "missing_columns"
	CodeNonNumericZAxis      Code = "non_numeric_z_axis"
	CodeNonNumericSeries     Code = "non_numeric_series"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a single violated constraint.
type Issue struct {
	// Severity is "error" (selection cannot be drawn) or "warning".
	Severity string `json:"severity"`

	// Code is the machine-readable reason.
	Code Code `json:"code"`

	// Axis is "x", "y" or "z"; empty for table-level issues.
	Axis string `json:"axis,omitempty"`

	// Columns lists the columns the issue is about.
	Columns []string `json:"columns,omitempty"`

	// Message is a human-readable explanation.
	Message string `json:"message"`
}

func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(i.Severity), i.Code, i.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of validation.
type Result struct {
	// Valid is true if there are no error-level issues.
	Valid bool

	// Issues contains all issues, warnings included, in check order.
	Issues []*Issue

	// MissingColumns lists selected columns absent from the first row.
	MissingColumns []string

	// ErrorCount is the number of error-level issues.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int
}

// Has reports whether an issue with the given code was recorded.
func (r *Result) Has(code Code) bool {
	for _, i := range r.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityWarning {
		r.WarningCount++
		return
	}
	r.ErrorCount++
	r.Valid = false
}

// Errors returns only the error-level issues.
func (r *Result) Errors() []*Issue {
	var out []*Issue
	for _, i := range r.Issues {
		if i.Severity != SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// Err returns nil for a valid result and an *InvalidAxisSelectionError
// listing every error-level issue otherwise.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return &InvalidAxisSelectionError{Issues: r.Errors()}
}

// InvalidAxisSelectionError reports an axis selection that cannot be drawn.
type InvalidAxisSelectionError struct {
	Issues []*Issue
}

func (e *InvalidAxisSelectionError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return "invalid axis selection: " + strings.Join(msgs, "; ")
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options contains options for validation.
type Options struct {
	// ChartType is the chart kind, e.g. "bar" or "scatter".
	ChartType string

	// Dimension is "2d" or "3d".
	Dimension types.ChartDimension

	// Resolver supplies column types. When nil, types are classified
	// directly from the table.
	Resolver coltype.TypeResolver

	// SampleSize is used when Resolver is nil. Default: 10.
	SampleSize int
}

// Validate checks sel against table.
//
// PARAMETERS:
//   - sel: The axis selection to check.
//   - table: The normalized table.
//   - opts: Chart kind and the shared type resolver.
//
// RETURNS:
//   - A Result; never nil.
func Validate(sel types.AxisSelection, table *types.Table, opts Options) *Result {
	result := &Result{Valid: true}
	scatter3D := types.IsScatter3D(opts.ChartType, opts.Dimension)

	// Gate 1: axis emptiness.
	if table == nil || len(table.Rows) == 0 {
		result.add(errorIssue(CodeNoRows, "", nil, "the data has no rows"))
	}
	if strings.TrimSpace(sel.X) == "" {
		result.add(errorIssue(CodeMissingXAxis, "x", nil, "select a column for the X axis"))
	}
	if len(sel.Y) == 0 {
		result.add(errorIssue(CodeMissingYAxis, "y", nil, "select at least one column for the Y axis"))
	}
	for i, y := range sel.Y {
		if strings.TrimSpace(y) == "" {
			result.add(errorIssue(CodeEmptyColumnSelection, "y", nil,
				fmt.Sprintf("empty column selection at Y axis position %d", i+1)))
		}
	}
	if scatter3D && !sel.HasZ() {
		result.add(errorIssue(CodeMissingZAxis, "z", nil, "3D scatter charts require a Z axis column"))
	}
	if !result.Valid {
		return result
	}

	// Gate 2: column presence on the first row.
	first := table.Rows[0]
	var missing []string
	check := func(column string) {
		if !first.Has(column) && !contains(missing, column) {
			missing = append(missing, column)
		}
	}
	check(sel.X)
	for _, y := range sel.Y {
		check(y)
	}
	if sel.HasZ() {
		check(sel.Z)
	}
	if len(missing) > 0 {
		result.MissingColumns = missing
		result.add(errorIssue(CodeMissingColumns, "", missing,
			"selected columns not found in data: "+strings.Join(missing, ", ")))
		return result
	}

	resolve := resolver(table, opts)
	if scatter3D {
		if t := resolve.Type(sel.Z); t != types.ColumnNumeric {
			result.add(errorIssue(CodeNonNumericZAxis, "z", []string{sel.Z},
				fmt.Sprintf("Z axis column %q must be numeric, found %s", sel.Z, t)))
		}
	}

	// Series that are not numeric still render, as zeros.
	for _, y := range sel.Y {
		if t := resolve.Type(y); t != types.ColumnNumeric {
			result.add(&Issue{
				Severity: SeverityWarning,
				Code:     CodeNonNumericSeries,
				Axis:     "y",
				Columns:  []string{y},
				Message:  fmt.Sprintf("Y axis column %q is %s; non-numeric cells plot as 0", y, t),
			})
		}
	}

	return result
}

func errorIssue(code Code, axis string, columns []string, msg string) *Issue {
	return &Issue{
		Severity: SeverityError,
		Code:     code,
		Axis:     axis,
		Columns:  columns,
		Message:  msg,
	}
}

type classifier struct {
	rows       []*types.Object
	sampleSize int
}

func (c classifier) Type(column string) types.ColumnType {
	return coltype.Classify(column, c.rows, c.sampleSize)
}

func resolver(table *types.Table, opts Options) coltype.TypeResolver {
	if opts.Resolver != nil {
		return opts.Resolver
	}
	return classifier{rows: table.Rows, sampleSize: opts.SampleSize}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatIssues formats issues for display.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No validation issues."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(issues)))

	for i, issue := range issues {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue.Error()))
	}

	return builder.String()
}
