// =============================================================================
// WI Excise Shipper XML Form Generator - CSV Parser Module
// =============================================================================
//
// This module reads shipment exports from order systems and spreadsheets.
// It handles the quirks those exports usually have:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - A UTF-8 byte-order mark written by spreadsheet tools
//   - Windows-1252 / Latin-1 encoded files
//   - Multi-row headers
//   - Ragged rows and loosely quoted fields
//
// The parser does not interpret headers. It returns a sheet.Table whose
// headers are cleaned but otherwise untouched; the column mapper decides
// what they mean.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/config"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/sheet"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the configuration.
//
// RETURNS:
//   - The parsed table. A file without any header row yields a table with
//     no headers; the mapper reports that as EmptyHeaderError.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*sheet.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings)
}

// ParseString parses CSV text supplied directly, such as rows pasted into a
// form.
func ParseString(text, source string, settings config.CSVSettings) (*sheet.Table, error) {
	return ParseReader(strings.NewReader(text), source, settings)
}

// ParseReader parses CSV from r.
//
// PARSING PROCESS:
//  1. Decode the input to UTF-8 per settings.Encoding
//  2. Configure the CSV reader with the delimiter
//  3. Skip leading blank rows, then merge the header rows
//  4. Convert each remaining non-empty row to a sheet.Row
func ParseReader(r io.Reader, source string, settings config.CSVSettings) (*sheet.Table, error) {
	dec, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bufio.NewReader(transform.NewReader(r, dec)))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", source, err)
	}

	// Leading blank rows are common in hand-edited sheets.
	start := 0
	for start < len(allRows) && isRowEmpty(allRows[start]) {
		start++
	}

	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	table := &sheet.Table{Source: source}
	if start >= len(allRows) {
		return table, nil
	}
	if start+headerRows > len(allRows) {
		headerRows = len(allRows) - start
	}

	raw := mergeHeaders(allRows[start : start+headerRows])
	if sheet.AllBlank(raw) {
		return table, nil
	}
	table.Headers = sheet.CleanHeaders(raw)

	for i := start + headerRows; i < len(allRows); i++ {
		if isRowEmpty(allRows[i]) {
			continue
		}
		table.Rows = append(table.Rows, sheet.NewRow(i+1, table.Headers, allRows[i]))
	}
	return table, nil
}

// decoderFor returns a decoder that yields UTF-8. A byte-order mark, when
// present, always wins over the configured encoding.
func decoderFor(name string) (transform.Transformer, error) {
	var fallback encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		fallback = unicode.UTF8
	case "windows-1252", "cp1252":
		fallback = charmap.Windows1252
	case "iso-8859-1", "latin1":
		fallback = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return unicode.BOMOverride(fallback.NewDecoder()), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports are often ragged and loosely quoted.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// mergeHeaders merges multi-row headers column by column, joining the
// non-empty parts with a space.
//
//	Row 1: "Ship To", ""       , "Order"
//	Row 2: "Company", "Street" , "Date"
//	Result: "Ship To Company", "Street", "Order Date"
func mergeHeaders(rows [][]string) []string {
	if len(rows) == 1 {
		return rows[0]
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if v := strings.TrimSpace(row[col]); v != "" {
					parts = append(parts, v)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return headers
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITING
// =============================================================================

// WriteTemplate writes a header-only CSV template.
func WriteTemplate(w io.Writer, headers []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
