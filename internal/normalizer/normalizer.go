// =============================================================================
// Excel Analytics - Structural Normalizer
// =============================================================================
//
// This module reduces an uploaded spreadsheet payload of unknown shape to a
// NormalizedTable (ordered columns plus one row object per data row).
//
// PROCESS:
//   1. Classify the payload by running the recognizers in order
//   2. Hand the array each recognizer finds to the shared row-shaping step
//   3. The first array that yields at least one column wins
//
// RECOGNIZERS (in order):
//   1. sheets[0].data
//   2. data
//   3. sheet.data
//   4. content (JSON string or object) -> .data or .sheets[0].data
//   5. the payload itself is an array
//   6. excelData -> itself, .data or .sheets[0].data
//   7. fallback: first non-empty array property, then one level deeper
//
// The payload is never modified. Plain Go maps are accepted anywhere an
// object is expected and are read in sorted key order.
//
// =============================================================================

package normalizer

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/excel-analytics/internal/rawjson"
	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoTabularData is matched by errors.Is for every payload in which no
// recognizer found a usable table.
var ErrNoTabularData = errors.New("no tabular data found")

// ErrorKind categorizes normalization failures.
type ErrorKind string

const (
	// NoTabularDataFound means every recognizer was exhausted.
	NoTabularDataFound ErrorKind = "NoTabularDataFound"

	// InvalidPayload means the payload bytes could not be decoded.
	InvalidPayload ErrorKind = "InvalidPayload"
)

// NormalizationError is returned when a payload cannot be normalized.
// It is an expected outcome for malformed uploads.
type NormalizationError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap returns ErrNoTabularData for NoTabularDataFound and the
// underlying decode error otherwise.
func (e *NormalizationError) Unwrap() error {
	if e.Kind == NoTabularDataFound {
		return ErrNoTabularData
	}
	return e.Err
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize converts raw into a table.
//
// PARAMETERS:
//   - raw: The uploaded payload. Any JSON-compatible value; *types.Object,
//          map[string]any and the common slice forms are all accepted.
//
// RETURNS:
//   - The normalized table (at least one column, zero or more rows).
//   - A *NormalizationError with Kind NoTabularDataFound if nothing tabular
//     was found.
func Normalize(raw any) (*types.Table, error) {
	loc, err := Locate(raw)
	if err != nil {
		return nil, err
	}
	return loc.Table, nil
}

// Locate is Normalize that also reports where the table was found.
func Locate(raw any) (Located, error) {
	loc := Classify(raw)
	if !loc.Found() {
		return loc, &NormalizationError{
			Kind:   NoTabularDataFound,
			Reason: describe(raw),
		}
	}
	return loc, nil
}

// NormalizeJSON decodes a JSON document, keeping object key order, and
// normalizes it.
func NormalizeJSON(data []byte) (*types.Table, error) {
	raw, err := rawjson.Decode(data)
	if err != nil {
		return nil, &NormalizationError{
			Kind:   InvalidPayload,
			Reason: err.Error(),
			Err:    err,
		}
	}
	return Normalize(raw)
}

// describe gives a short, user-facing summary of why a payload failed.
func describe(raw any) string {
	if raw == nil {
		return "payload is empty"
	}
	if obj, ok := asObject(raw); ok {
		if obj.Len() == 0 {
			return "payload is an empty object"
		}
		return fmt.Sprintf("no array with a header or object rows among properties %v", obj.Keys())
	}
	if arr, ok := asArray(raw); ok {
		if len(arr) == 0 {
			return "payload is an empty array"
		}
		return "array rows are neither arrays nor objects with keys"
	}
	return fmt.Sprintf("unsupported payload type %T", raw)
}
