// =============================================================================
// Excel Analytics - Ordered JSON Decoding
// =============================================================================
//
// Decodes JSON documents into generic values while keeping the key order of
// every object.
//
// DECODED TYPES:
//   - objects                 -> *types.Object
//   - arrays                  -> []any
//   - numbers                 -> float64
//   - strings, booleans, null -> string, bool, nil
//
// Nesting deeper than MaxDepth is rejected with ErrTooDeep.
//
// =============================================================================

package rawjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/excel-analytics/internal/types"
)

// MaxDepth is the deepest array/object nesting Decode accepts.
const MaxDepth = 10000

var (
	// ErrTrailingData is returned when a document holds more than one value.
	ErrTrailingData = errors.New("unexpected data after top-level JSON value")

	// ErrTooDeep is returned when arrays and objects nest past MaxDepth.
	ErrTooDeep = fmt.Errorf("JSON nested deeper than %d levels", MaxDepth)
)

// Decode parses data into a generic, order-preserving value.
func Decode(data []byte) (any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader parses a single JSON value from r.
func DecodeReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON: %w", err)
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

// decodeValue reads one value whose containers sit depth levels deep.
func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("failed to read JSON: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return nil, ErrTooDeep
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return f, nil
	default:
		// string, bool, nil
		return t, nil
	}
}

func decodeObject(dec *json.Decoder, depth int) (*types.Object, error) {
	obj := types.NewObject(0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", tok)
		}

		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of object: %w", err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder, depth int) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}

	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of array: %w", err)
	}
	return arr, nil
}
