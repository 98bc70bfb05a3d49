// =============================================================================
// Excel Analytics - CSV Parser Module
// =============================================================================
//
// Reads CSV uploads into the array-of-arrays payload shape (a header row
// followed by data rows) that the normalizer understands.
//
// SUPPORTED LAYOUTS:
//   - Comma, pipe, tab or semicolon separated values (or any single rune)
//   - Headers spread over several rows
//   - Preamble rows between the header and the first data row
//   - Comment lines
//
// Cells stay strings. Numbers and dates are recognized later by the
// column type analyzer.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/config"
)

// ErrEmptyFile is returned when the CSV content has no records at all.
var ErrEmptyFile = errors.New("CSV file is empty")

// delimiterAliases maps the names accepted in csv_settings.delimiter.
var delimiterAliases = map[string]rune{
	"\\t":       '\t',
	"\t":        '\t',
	"tab":       '\t',
	"|":         '|',
	"pipe":      '|',
	";":         ';',
	"semicolon": ';',
	",":         ',',
	"comma":     ',',
}

// =============================================================================
// PARSED DATA
// =============================================================================

// CSVData holds one parsed upload.
type CSVData struct {
	// Headers are the merged header cells, one per column. Empty cells stay
	// empty so the normalizer can name them by position.
	Headers []string

	// Rows are the trimmed data records, blank records removed.
	Rows [][]string

	SourceFile  string
	RowCount    int
	ColumnCount int
}

// Payload returns the header row followed by every data row as []any rows.
func (d *CSVData) Payload() []any {
	payload := make([]any, 0, len(d.Rows)+1)
	payload = append(payload, anyRow(d.Headers))
	for _, row := range d.Rows {
		payload = append(payload, anyRow(row))
	}
	return payload
}

func anyRow(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// =============================================================================
// PARSING
// =============================================================================

// Parse opens filePath and parses it with the job's CSV settings.
//
// PARAMETERS:
//   - filePath: Upload location.
//   - settings: csv_settings from the job configuration.
//
// RETURNS:
//   - The parsed data with SourceFile set.
//   - An error if the file is unreadable, empty, or shorter than its header.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := ParseReader(bufio.NewReader(f), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	records, err := newReader(r, settings).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers, err := mergeHeaderRows(records, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}
	rows := dataRows(records, settings)

	return &CSVData{
		Headers:     headers,
		Rows:        rows,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}, nil
}

// newReader builds an encoding/csv reader for the settings. Records may
// have differing lengths; the normalizer widens the header to the longest.
func newReader(r io.Reader, settings config.CSVSettings) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delimiterRune(settings.Delimiter)
	if settings.Comment != "" {
		cr.Comment = []rune(settings.Comment)[0]
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = settings.TrimLeadingSpace
	return cr
}

func delimiterRune(name string) rune {
	if r, ok := delimiterAliases[strings.ToLower(name)]; ok {
		return r
	}
	if name == "" {
		return ','
	}
	return []rune(name)[0]
}

// mergeHeaderRows folds the first n records into a single header. The
// non-empty cells of each column are joined with a space:
//
//   "Sales", "",   "Cost", ""
//   "Q1",    "Q2", "Q1",   "Q2"
//   => "Sales Q1", "Q2", "Cost Q1", "Q2"
//
// A UTF-8 byte order mark before the first header is dropped.
func mergeHeaderRows(records [][]string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(records) < n {
		return nil, fmt.Errorf("file has %d rows, fewer rows than header_rows (%d)", len(records), n)
	}

	width := 0
	for _, rec := range records[:n] {
		width = max(width, len(rec))
	}

	headers := make([]string, width)
	for col := range headers {
		var parts []string
		for _, rec := range records[:n] {
			if col >= len(rec) {
				continue
			}
			cell := rec[col]
			if col == 0 {
				cell = strings.TrimPrefix(cell, "\ufeff")
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				parts = append(parts, cell)
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return headers, nil
}

// dataRows returns the records from settings.DataStartRow (1-based, never
// inside the header) onward, trimmed, without blank records.
func dataRows(records [][]string, settings config.CSVSettings) [][]string {
	start := max(settings.DataStartRow-1, settings.HeaderRows)
	if start >= len(records) {
		return [][]string{}
	}

	rows := make([][]string, 0, len(records)-start)
	for _, rec := range records[start:] {
		trimmed := make([]string, len(rec))
		blank := true
		for i, v := range rec {
			trimmed[i] = strings.TrimSpace(v)
			if trimmed[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, trimmed)
		}
	}
	return rows
}
