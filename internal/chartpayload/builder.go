// =============================================================================
// Excel Analytics - Chart Payload Builder
// =============================================================================
//
// Turns a normalized table and an axis selection into the chart-creation
// payload.
//
// BUILD RULES:
//   - Labels come from the X column through the formatter's display form
//   - Each Y column becomes one dataset of numbers; a bad cell plots as 0
//   - Every dataset has exactly one value per label
//
// =============================================================================

package chartpayload

import (
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/coltype"
	"github.com/ginjaninja78/excel-analytics/internal/format"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// DefaultSourceCap is the number of rows echoed back in data.source.
const DefaultSourceCap = 100

// DefaultPalette is the fixed series palette, assigned by series index.
var DefaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildArgs are the inputs of a single payload build.
type BuildArgs struct {
	Title          string
	Description    string
	FileID         string
	SourceFile     string
	ChartType      string
	ChartDimension types.ChartDimension
	Selection      *types.AxisSelection
	Table          *types.Table
	SheetName      string

	// Resolver supplies column types. When nil, an analyzer is built
	// over Table for this call.
	Resolver coltype.TypeResolver
}

// MissingRequiredFieldError lists the required inputs a build was called without.
type MissingRequiredFieldError struct {
	Fields []string
}

func (e *MissingRequiredFieldError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

// Builder produces chart payloads.
type Builder struct {
	formatter *format.Formatter
	palette   []string
	sourceCap int
}

// Option configures a Builder.
type Option func(*Builder)

// WithFormatter sets the value formatter.
func WithFormatter(f *format.Formatter) Option {
	return func(b *Builder) {
		if f != nil {
			b.formatter = f
		}
	}
}

// WithPalette replaces the series palette.
func WithPalette(colors []string) Option {
	return func(b *Builder) {
		if len(colors) > 0 {
			b.palette = colors
		}
	}
}

// WithSourceCap sets how many rows are echoed in data.source.
func WithSourceCap(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.sourceCap = n
		}
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		formatter: format.New(),
		palette:   DefaultPalette,
		sourceCap: DefaultSourceCap,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build builds a payload with a default Builder.
func Build(args BuildArgs) (*ChartPayload, error) {
	return New().Build(args)
}

// Build produces the payload for args.
//
// PARAMETERS:
//   - args: Title, FileID, ChartType, Selection and Table are required.
//
// RETURNS:
//   - The payload.
//   - A *MissingRequiredFieldError naming every missing input.
func (b *Builder) Build(args BuildArgs) (*ChartPayload, error) {
	if err := checkRequired(args); err != nil {
		return nil, err
	}

	resolver := args.Resolver
	if resolver == nil {
		analyzer, err := coltype.NewAnalyzer(args.Table, 0, 0)
		if err != nil {
			return nil, err
		}
		resolver = analyzer
	}

	sel := *args.Selection
	rows := args.Table.Rows

	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = b.formatter.ToDisplay(row.Value(sel.X))
	}

	datasets := make([]Dataset, len(sel.Y))
	yAxes := make([]Axis, len(sel.Y))
	colors := make([]string, len(sel.Y))
	for i, column := range sel.Y {
		values := b.series(rows, column)
		colors[i] = b.palette[i%len(b.palette)]
		datasets[i] = Dataset{
			Label:           column,
			Data:            values,
			BackgroundColor: colors[i],
			BorderColor:     colors[i],
		}
		yAxes[i] = Axis{
			Field: column,
			Label: column,
			Type:  resolver.Type(column),
			Data:  values,
		}
	}

	var zAxis *Axis
	if sel.HasZ() {
		zAxis = &Axis{
			Field: sel.Z,
			Label: sel.Z,
			Type:  resolver.Type(sel.Z),
			Data:  b.series(rows, sel.Z),
		}
	}

	chartType := args.ChartType
	dimension := args.ChartDimension
	if dimension == "" {
		dimension = types.Dimension2D
	}
	payloadType := chartType
	if dimension == types.Dimension3D {
		payloadType = "3d-" + chartType
	}

	config := ChartConfig{
		ChartType:  chartType,
		Dimension:  string(dimension),
		XAxis:      sel.X,
		YAxis:      append([]string(nil), sel.Y...),
		ZAxis:      sel.Z,
		Colors:     colors,
		ShowLegend: len(sel.Y) > 1 || chartType == "pie" || chartType == "doughnut",
		ShowGrid:   chartType != "pie" && chartType != "doughnut",
	}

	n := len(rows)
	if n > b.sourceCap {
		n = b.sourceCap
	}
	source := make([]*types.Object, n)
	copy(source, rows[:n])

	return &ChartPayload{
		Title:       args.Title,
		Description: args.Description,
		Type:        payloadType,
		SourceFile:  args.SourceFile,
		ExcelFileID: args.FileID,
		SheetName:   args.SheetName,
		Data: ChartData{
			Labels:          labels,
			Datasets:        datasets,
			Source:          source,
			SelectedColumns: sel,
		},
		Config:        config,
		Configuration: config,
		XAxis: Axis{
			Field: sel.X,
			Label: sel.X,
			Type:  resolver.Type(sel.X),
			Data:  labels,
		},
		YAxis:   yAxes,
		ZAxis:   zAxis,
		Columns: append([]string(nil), args.Table.Columns...),
	}, nil
}

func (b *Builder) series(rows []*types.Object, column string) []float64 {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = b.formatter.ToNumber(row.Value(column))
	}
	return values
}

func checkRequired(args BuildArgs) error {
	var missing []string
	if strings.TrimSpace(args.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(args.FileID) == "" {
		missing = append(missing, "fileId")
	}
	if strings.TrimSpace(args.ChartType) == "" {
		missing = append(missing, "chartType")
	}
	if args.Selection == nil {
		missing = append(missing, "selection")
	}
	if args.Table == nil {
		missing = append(missing, "table")
	}
	if len(missing) > 0 {
		return &MissingRequiredFieldError{Fields: missing}
	}
	return nil
}
