// =============================================================================
// WI Excise Shipper XML Form Generator - XLSX Workbook Reader
// =============================================================================
//
// This module reads shipment lists kept as Excel workbooks and writes the
// import template as a workbook. Reading yields the same sheet.Table the CSV
// parser produces, so the rest of the pipeline does not care where rows came
// from.
//
// WORKBOOK LAYOUT (expected):
//   | Ship To Company | Ship To Street | ... | Order Date | LB | TYPE |
//   |-----------------|----------------|-----|------------|----|------|
//   | John Doe        | 456 Oak Ave    | ... | 1/15/2024  | 25 | Wine |
//
//   - The first non-empty row of the sheet is the header row.
//   - Cells are read as displayed, so date cells arrive in their display
//     format ("01-15-24") and the date normalizer takes it from there.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/sheet"
)

// Options selects what to read.
type Options struct {
	// SheetName is the sheet to read. Empty means the first sheet.
	SheetName string
}

// Parse reads the shipment sheet of an XLSX workbook.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The parsed table (no headers if the sheet is blank).
//   - An error if the workbook cannot be opened or the sheet does not exist.
func Parse(filePath string, opts Options) (*sheet.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, filePath, opts)
}

// ParseReader reads a workbook from r.
func ParseReader(r io.Reader, source string, opts Options) (*sheet.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, source, opts)
}

func parseFile(f *excelize.File, source string, opts Options) (*sheet.Table, error) {
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet named %q", sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	table := &sheet.Table{Source: source}

	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start >= len(rows) || sheet.AllBlank(rows[start]) {
		return table, nil
	}

	table.Headers = sheet.CleanHeaders(rows[start])
	for i := start + 1; i < len(rows); i++ {
		if isRowEmpty(rows[i]) {
			continue
		}
		table.Rows = append(table.Rows, sheet.NewRow(i+1, table.Headers, rows[i]))
	}
	return table, nil
}

// isRowEmpty checks if a row is empty (all cells are blank).
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// TEMPLATE WORKBOOK
// =============================================================================

// WriteTemplate writes an import template workbook with a bold, frozen
// header row.
//
// PARAMETERS:
//   - w: Destination.
//   - sheetName: Name of the single sheet ("Shipments").
//   - headers: The header row.
//   - sample: An optional example row; nil writes headers only.
func WriteTemplate(w io.Writer, sheetName string, headers []string, sample []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if len(sample) > 0 {
		if err := f.SetSheetRow(sheetName, "A2", &sample); err != nil {
			return fmt.Errorf("failed to write sample row: %w", err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}
