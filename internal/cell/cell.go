// =============================================================================
// Excel Analytics - Cell Classification
// =============================================================================
//
// Answers the three questions every consumer of spreadsheet data asks about
// a single cell: is it blank, is it a number, is it a date.
//
// Both the column type analyzer and the value formatter go through this
// package, so a value that classifies as numeric is always one the formatter
// can convert.
//
// =============================================================================

package cell

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IsBlank reports whether v is nil or the empty string.
// Whitespace-only strings are not blank.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}

// currencyPrefixes are stripped before a lenient numeric parse.
var currencyPrefixes = []string{"$", "€", "£", "¥"}

// thousandsGrouped matches digits grouped in threes by commas. Any other
// comma ("12,5", "1,2,3") makes the value unparsable.
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber converts v to a finite float64.
//
// Native numeric types convert directly. Strings are trimmed and parsed; a
// second, lenient attempt drops thousands separators and a leading currency
// symbol ("$1,234.50"). NaN and infinities are rejected.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		return parseNumericString(string(n))
	case string:
		return parseNumericString(n)
	default:
		return 0, false
	}
	return f, isFinite(f)
}

// IsNumber reports whether v is a native number or a numeric string.
func IsNumber(v any) bool {
	_, ok := ParseNumber(v)
	return ok
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, isFinite(f)
	}

	// Lenient pass: "-$1,234.50", "€ 12", "1,000".
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
			break
		}
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// dateLayouts are the textual date forms recognized in uploaded sheets.
// Pure digit layouts ("2006", "20060102") are intentionally absent: a value
// that reads as a plain number is never treated as a date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01-02-2006",
	"01-02-06",
	"1-2-06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Jan-2006",
	"January 2006",
	"Jan 2006",
}

// ParseDate converts v to a time.Time.
// time.Time values pass through; strings must match one of the known layouts
// and must not also read as a plain number.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, !d.IsZero()
	case string:
		return parseDateString(d)
	default:
		return time.Time{}, false
	}
}

// IsDate reports whether v is a time value or a date string.
func IsDate(v any) bool {
	_, ok := ParseDate(v)
	return ok
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, numeric := parseNumericString(s); numeric {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
