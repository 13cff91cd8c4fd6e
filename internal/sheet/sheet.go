// =============================================================================
// WI Excise Shipper XML Form Generator - Shared Sheet Types
// =============================================================================
//
// This package contains the tabular types produced by the readers and
// consumed by the assembler. Keeping them here avoids import cycles between:
//   - csvparser
//   - xlsxparser
//   - assembler
//
// =============================================================================

package sheet

import (
	"strconv"
	"strings"
)

// Row is one data row keyed by header.
type Row struct {
	// Number is the 1-based row number in the source, header rows included.
	// It is zero for rows that were not read from a file.
	Number int

	// Values maps header -> trimmed cell value. Headers missing from a short
	// row map to "".
	Values map[string]string
}

// Get returns the value under header, or "".
func (r Row) Get(header string) string {
	return r.Values[header]
}

// IsEmpty reports whether every value in the row is blank.
func (r Row) IsEmpty() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Table is a parsed sheet: one header row plus data rows.
type Table struct {
	// Headers holds the cleaned header names in column order.
	Headers []string

	// Rows holds the non-empty data rows in source order.
	Rows []Row

	// Source names where the table came from (a path, or "manual entry").
	Source string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// FromRecords builds a table from a header record and data records, such as
// rows pasted into a form. Row numbers start at 2. An all-blank header
// record yields a table without headers or rows.
func FromRecords(source string, header []string, records [][]string) *Table {
	t := &Table{Source: source}
	if AllBlank(header) {
		return t
	}
	t.Headers = CleanHeaders(header)
	for i, rec := range records {
		row := NewRow(i+2, t.Headers, rec)
		if !row.IsEmpty() {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// NewRow pairs cells with headers.
func NewRow(number int, headers []string, cells []string) Row {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			values[h] = strings.TrimSpace(cells[i])
		} else {
			values[h] = ""
		}
	}
	return Row{Number: number, Values: values}
}

// CleanHeaders trims headers, strips a stray byte-order mark, names blank
// headers Column_N and suffixes repeated headers (_2, _3 ...) so every
// header is a unique map key.
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = "Column_" + strconv.Itoa(i+1)
		}
		seen[header]++
		if n := seen[header]; n > 1 {
			header = header + "_" + strconv.Itoa(n)
		}
		cleaned[i] = header
	}
	return cleaned
}

// AllBlank reports whether every header in the slice is blank.
func AllBlank(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) != "" {
			return false
		}
	}
	return true
}
