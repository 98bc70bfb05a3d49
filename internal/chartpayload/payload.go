// =============================================================================
// Excel Analytics - Chart Payload Document
// =============================================================================
//
// The JSON document handed to the chart service, plus the label mapping and
// alignment checks run on it before it is written.
//
// =============================================================================

package chartpayload

import (
	"fmt"

	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// =============================================================================
// PAYLOAD TYPES
// =============================================================================
// Field names match the chart persistence schema exactly, including the
// duplicated config / configuration keys.
// =============================================================================

// ChartPayload is the chart-creation document.
type ChartPayload struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Type          string      `json:"type"`
	SourceFile    string      `json:"sourceFile"`
	ExcelFileID   string      `json:"excelFileId"`
	SheetName     string      `json:"sheetName"`
	Data          ChartData   `json:"data"`
	Config        ChartConfig `json:"config"`
	Configuration ChartConfig `json:"configuration"`
	XAxis         Axis        `json:"xAxis"`
	YAxis         []Axis      `json:"yAxis"`
	ZAxis         *Axis       `json:"zAxis"`
	Columns       []string    `json:"columns"`
}

// ChartData holds the series handed to the renderer.
type ChartData struct {
	Labels          []string            `json:"labels"`
	Datasets        []Dataset           `json:"datasets"`
	Source          []*types.Object     `json:"source"`
	SelectedColumns types.AxisSelection `json:"selectedColumns"`
}

// Dataset is one Y series.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
}

// ChartConfig describes how the chart is drawn.
type ChartConfig struct {
	ChartType  string   `json:"chartType"`
	Dimension  string   `json:"dimension"`
	XAxis      string   `json:"xAxis"`
	YAxis      []string `json:"yAxis"`
	ZAxis      string   `json:"zAxis,omitempty"`
	Colors     []string `json:"colors"`
	ShowLegend bool     `json:"showLegend"`
	ShowGrid   bool     `json:"showGrid"`
}

// Axis describes one chart axis. Data holds []string labels for the X axis
// and []float64 values for Y and Z axes.
type Axis struct {
	Field string           `json:"field"`
	Label string           `json:"label"`
	Type  types.ColumnType `json:"type"`
	Data  any              `json:"data"`
}

// =============================================================================
// PAYLOAD OPERATIONS
// =============================================================================

// MapLabels rewrites every X label with fn. The payload labels and the
// X axis data stay identical.
func (p *ChartPayload) MapLabels(fn func(string) string) {
	labels := make([]string, len(p.Data.Labels))
	for i, l := range p.Data.Labels {
		labels[i] = fn(l)
	}
	p.Data.Labels = labels
	p.XAxis.Data = labels
}

// CheckAlignment verifies that every series has one value per label.
func (p *ChartPayload) CheckAlignment() error {
	n := len(p.Data.Labels)
	for _, ds := range p.Data.Datasets {
		if len(ds.Data) != n {
			return fmt.Errorf("dataset %q has %d values for %d labels", ds.Label, len(ds.Data), n)
		}
	}
	if labels, ok := p.XAxis.Data.([]string); ok && len(labels) != n {
		return fmt.Errorf("x axis has %d values for %d labels", len(labels), n)
	}
	return nil
}

// RowCount returns the number of plotted rows.
func (p *ChartPayload) RowCount() int {
	return len(p.Data.Labels)
}
