// =============================================================================
// Excel Analytics - XLSX Workbook Parser
// =============================================================================
//
// This module reads uploaded .xlsx workbooks into the sheets wrapper payload
// shape:
//
//   {"sheets": [{"name": "Sheet1", "data": [["Region", "Sales"], ["East", "100"], ...]}]}
//
// SHEET SELECTION:
//   - With a sheet name, only that sheet is returned
//   - Otherwise every visible sheet is returned in workbook order
//   - Sheets whose name starts with "_" are treated as helper sheets and skipped
//
// Cell values are the formatted strings Excel would display. Empty rows
// are dropped.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/types"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when Options.SheetName names no sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// =============================================================================
// WORKBOOK STRUCTURE
// =============================================================================

// Workbook is the parsed content of an .xlsx file.
type Workbook struct {
	// SourceFile is the path of the workbook.
	SourceFile string

	// Sheets holds the selected sheets in workbook order.
	Sheets []Sheet
}

// Sheet is one worksheet.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Index is the zero-based position in the workbook.
	Index int

	// Rows holds the non-empty rows. The first row is the header.
	Rows [][]string
}

// Options controls which sheets are read.
type Options struct {
	// SheetName selects a single sheet. Empty reads all visible sheets.
	SheetName string

	// IncludeHidden also reads hidden and "_"-prefixed sheets.
	IncludeHidden bool
}

// Payload returns the workbook as a sheets wrapper payload.
func (w *Workbook) Payload() *types.Object {
	sheets := make([]any, len(w.Sheets))
	for i, s := range w.Sheets {
		data := make([]any, len(s.Rows))
		for j, row := range s.Rows {
			cells := make([]any, len(row))
			for k, c := range row {
				cells[k] = c
			}
			data[j] = cells
		}

		sheet := types.NewObject(2)
		sheet.Set("name", s.Name)
		sheet.Set("data", data)
		sheets[i] = sheet
	}

	payload := types.NewObject(1)
	payload.Set("sheets", sheets)
	return payload
}

// SheetNames returns the names of the parsed sheets.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an .xlsx file.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - opts: Sheet selection options.
//
// RETURNS:
//   - The parsed workbook with at least one sheet.
//   - An error if the file cannot be opened or the sheet does not exist.
func Parse(path string, opts Options) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := readWorkbook(f, opts)
	if err != nil {
		return nil, err
	}
	wb.SourceFile = path
	return wb, nil
}

// ListSheets returns every sheet name in the workbook, hidden and helper
// sheets included.
func ListSheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

func readWorkbook(f *excelize.File, opts Options) (*Workbook, error) {
	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	wb := &Workbook{}
	for i, name := range names {
		if opts.SheetName != "" {
			if !strings.EqualFold(name, opts.SheetName) {
				continue
			}
		} else if !opts.IncludeHidden && skipSheet(f, name) {
			continue
		}

		rows, err := readRows(f, name)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Index: i, Rows: rows})
	}

	if len(wb.Sheets) == 0 {
		if opts.SheetName != "" {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.SheetName)
		}
		return nil, fmt.Errorf("workbook has no visible sheets")
	}
	return wb, nil
}

// skipSheet reports whether a sheet is hidden or a helper sheet.
func skipSheet(f *excelize.File, name string) bool {
	if strings.HasPrefix(name, "_") {
		return true
	}
	visible, err := f.GetSheetVisible(name)
	return err == nil && !visible
}

func readRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
