// =============================================================================
// Excel Analytics - Payload Writer Module
// =============================================================================
//
// This module serializes chart payloads to JSON documents and writes them
// to disk.
//
// GUARANTEES:
//   - A payload whose datasets are not aligned with its labels is never written
//   - Files are written to a temporary name and renamed into place, so a
//     reader never sees a half-written payload
//   - HTML characters in labels are written as-is, not escaped
//
// =============================================================================

package payloadwriter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/excel-analytics/internal/chartpayload"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for JSON generation.
type GenerateOptions struct {
	// Pretty indents the output.
	// Default: false
	Pretty bool

	// Indent is the string used for indentation when Pretty is set.
	// Default: "  " (two spaces)
	Indent string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Pretty: false,
		Indent: "  ",
	}
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// GenerateWithOptions serializes a payload.
//
// PARAMETERS:
//   - payload: The chart payload.
//   - options: Formatting options.
//
// RETURNS:
//   - The JSON document, terminated by a newline.
//   - An error if the payload is misaligned or cannot be encoded.
func GenerateWithOptions(payload *chartpayload.ChartPayload, options GenerateOptions) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	if err := payload.CheckAlignment(); err != nil {
		return nil, fmt.Errorf("refusing to write payload: %w", err)
	}

	var buffer bytes.Buffer
	enc := json.NewEncoder(&buffer)
	enc.SetEscapeHTML(false)
	if options.Pretty {
		indent := options.Indent
		if indent == "" {
			indent = "  "
		}
		enc.SetIndent("", indent)
	}

	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return buffer.Bytes(), nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteFile writes data to path atomically, creating the directory if needed.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close payload file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set payload permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move payload into place: %w", err)
	}
	return nil
}
