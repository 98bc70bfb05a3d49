// =============================================================================
// Excel Analytics - Value Formatter
// =============================================================================
//
// This module converts single cell values into the two forms a chart needs:
//   - ToNumber:  a finite float64 for series data
//   - ToDisplay: a string for axis labels
//
// COERCION FALLBACK:
//   Both conversions are total. A cell that cannot be converted becomes 0
//   (numbers) or "" (labels) instead of an error, because chart renderers
//   break on NaN and undefined values. Every fallback is counted and logged
//   at debug level so callers can report data quality without stopping.
//
// =============================================================================

package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ginjaninja78/excel-analytics/internal/cell"
	"github.com/ginjaninja78/excel-analytics/internal/logging"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// DefaultDateLayout renders dates as a US short date (1/15/2024).
const DefaultDateLayout = "1/2/2006"

// =============================================================================
// FORMATTER
// =============================================================================

// Formatter converts cell values and counts coercion fallbacks.
// It is safe for concurrent use.
type Formatter struct {
	dateLayout string
	logger     logging.Logger

	blank      atomic.Int64
	unparsable atomic.Int64
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithDateLayout sets the layout used for date labels.
func WithDateLayout(layout string) Option {
	return func(f *Formatter) {
		if layout != "" {
			f.dateLayout = layout
		}
	}
}

// WithLogger sets the logger that receives fallback notices.
func WithLogger(l logging.Logger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		dateLayout: DefaultDateLayout,
		logger:     logging.Nop,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FallbackStats counts cells that were coerced to 0.
type FallbackStats struct {
	// Blank counts nil and empty cells.
	Blank int64

	// Unparsable counts non-empty cells that are not numbers.
	Unparsable int64
}

// Total returns the number of coerced cells.
func (s FallbackStats) Total() int64 {
	return s.Blank + s.Unparsable
}

// Fallbacks returns the fallback counters accumulated so far.
func (f *Formatter) Fallbacks() FallbackStats {
	return FallbackStats{
		Blank:      f.blank.Load(),
		Unparsable: f.unparsable.Load(),
	}
}

// ToNumber converts raw to a finite number. It never returns NaN.
//
// CONVERSION RULES:
//   - numbers and numeric strings  -> their value
//   - true / false                 -> 1 / 0
//   - nil, "", anything else       -> 0 (counted as a fallback)
func (f *Formatter) ToNumber(raw any) float64 {
	if n, ok := cell.ParseNumber(raw); ok {
		return n
	}
	if b, ok := raw.(bool); ok {
		if b {
			return 1
		}
		return 0
	}

	if cell.IsBlank(raw) {
		f.blank.Add(1)
		return 0
	}
	f.unparsable.Add(1)
	f.logger.Debug("coercion fallback: %v (%T) -> 0", raw, raw)
	return 0
}

// ToDisplay converts raw to a label.
//
// CONVERSION RULES:
//   - nil                         -> ""
//   - time values, date strings   -> date in the configured layout
//   - everything else             -> Text(raw)
func (f *Formatter) ToDisplay(raw any) string {
	if raw == nil {
		return ""
	}
	if t, ok := cell.ParseDate(raw); ok {
		return t.Format(f.dateLayout)
	}
	return Text(raw)
}

// Text renders raw without any date handling. Header cells go through
// Text so a column named "2024-01-15" keeps its name.
//
//   - nil                  -> ""
//   - numbers              -> shortest decimal form
//   - objects and arrays   -> compact JSON
//   - everything else      -> fmt.Sprint
func Text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	case *types.Object, []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat renders v the way a browser's String(v) does: plain decimals
// between 1e-6 and 1e21, exponent form ("1.5e-7", "1e+21") outside that
// range, and "0" for negative zero.
func formatFloat(v float64) string {
	abs := math.Abs(v)
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return ""
	case v == 0:
		return "0"
	case abs >= 1e21 || abs < 1e-6:
		return exponentForm(v)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// exponentForm drops the zero padding Go puts on exponents ("e-07" -> "e-7").
func exponentForm(v float64) string {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}
