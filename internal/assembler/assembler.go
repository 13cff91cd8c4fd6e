// =============================================================================
// WI Excise Shipper XML Form Generator - Shipment Assembler
// =============================================================================
//
// The assembler turns a parsed sheet into typed shipments for one report type.
//
// PROCESSING FLOW (per row):
//
//	Row ──► mapped values ──► normalize ──► merge defaults ──► Shipment
//	             │                 │
//	             ▼                 ▼
//	      "no mapped values"   FieldError(s), row skipped
//
// A row with a field error is never partially imported. Every error is kept
// with its row number so the whole file can be fixed in one pass.
//
// =============================================================================

package assembler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/logging"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/mapper"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/normalize"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/sheet"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Skip records a row that produced no shipment.
type Skip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of assembling one table.
type Result struct {
	Shipments []report.Shipment
	Imported  int
	Skipped   int
	Skips     []Skip

	// Errors holds every field error of every skipped row, in row order.
	Errors []*normalize.FieldError

	// Warnings holds mapping warnings followed by per-row warnings.
	Warnings []string

	Mapping       *mapper.Mapping
	MappingReport *mapper.MappingReport
}

// RowError groups the field errors of one row. It unwraps to each of them,
// so errors.Is(err, normalize.ErrDateFormat) works.
type RowError struct {
	Row    int
	Errors []*normalize.FieldError
}

func (e *RowError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields lists the fields with errors, first occurrence order.
func (e *RowError) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fe := range e.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			out = append(out, fe.Field)
		}
	}
	return out
}

func (e *RowError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe
	}
	return out
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler builds shipments of one report type.
type Assembler struct {
	// Type selects the shipment variant.
	Type report.ReportType

	// Aliases overrides the built-in alias table of Type. Optional.
	Aliases *mapper.AliasTable

	// Default supplies the sender side of each shipment. It must match Type.
	Default report.DefaultParty

	// Logger receives per-row diagnostics. Optional.
	Logger *slog.Logger
}

// Assemble maps the table headers and converts each row.
//
// PARAMETERS:
//   - table: The parsed sheet.
//
// RETURNS:
//   - The import result. Row failures are reported in the result, not as an
//     error.
//   - *mapper.EmptyHeaderError if the table has no usable header, or an
//     error if the assembler is misconfigured.
func (a *Assembler) Assemble(table *sheet.Table) (*Result, error) {
	if table == nil {
		return nil, errors.New("table is nil")
	}
	if err := checkDefault(a.Type, a.Default); err != nil {
		return nil, err
	}
	logger := a.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	aliases := a.Aliases
	if aliases == nil {
		aliases = mapper.AliasesFor(a.Type)
	}

	m, err := mapper.Map(aliases, table.Headers)
	if err != nil {
		var empty *mapper.EmptyHeaderError
		if errors.As(err, &empty) {
			empty.Source = table.Source
		}
		return nil, err
	}

	res := &Result{Mapping: m, MappingReport: mapper.Report(m, a.Type)}
	res.Warnings = append(res.Warnings, res.MappingReport.Warnings...)

	fields := m.Fields()
	for _, row := range table.Rows {
		values := make(map[mapper.Field]string, len(fields))
		for _, f := range fields {
			for _, header := range m.Sources(f) {
				if v := strings.TrimSpace(row.Get(header)); v != "" {
					values[f] = v
					break
				}
			}
		}

		if len(values) == 0 {
			res.skip(row.Number, "no mapped values")
			logger.Debug("row skipped", "row", row.Number, "reason", "no mapped values")
			continue
		}

		b := &builder{row: row.Number, values: values}
		s := b.build(a.Default)
		for _, w := range b.warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: %s", row.Number, w))
		}
		if len(b.errs) > 0 {
			res.Errors = append(res.Errors, b.errs...)
			reason := "invalid " + strings.Join(b.failedFields(), ", ")
			res.skip(row.Number, reason)
			logger.Debug("row skipped", "row", row.Number, "reason", reason)
			continue
		}

		res.Shipments = append(res.Shipments, s)
		res.Imported++
	}

	logger.Info("table assembled",
		"source", table.Source,
		"report_type", a.Type.String(),
		"imported", res.Imported,
		"skipped", res.Skipped,
		"errors", len(res.Errors))
	return res, nil
}

// AssembleEntries converts shipments given as key/value records, such as a
// YAML or JSON shipments file. A key is either a field name
// ("consignee_name") or any header the alias table recognizes ("Ship To
// Company"). Records are numbered from 1 and that number stands in for the
// row number in skips, errors and warnings.
//
// PARAMETERS:
//   - source: Where the records came from, for the log.
//   - entries: One record per shipment.
func (a *Assembler) AssembleEntries(source string, entries []map[string]string) (*Result, error) {
	if err := checkDefault(a.Type, a.Default); err != nil {
		return nil, err
	}
	logger := a.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	aliases := a.Aliases
	if aliases == nil {
		aliases = mapper.AliasesFor(a.Type)
	}

	res := &Result{}
	for i, entry := range entries {
		n := i + 1
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := make(map[mapper.Field]string, len(entry))
		for _, k := range keys {
			f := mapper.Field(k)
			if !aliases.Has(f) {
				f = aliases.Lookup(k)
			}
			if f == mapper.Unmapped {
				res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: unknown field %q ignored", n, k))
				continue
			}
			if v := strings.TrimSpace(entry[k]); v != "" {
				if _, dup := values[f]; !dup {
					values[f] = v
				}
			}
		}
		if len(values) == 0 {
			res.skip(n, "no mapped values")
			continue
		}

		s, warnings, err := ManualEntry(a.Type, values, a.Default)
		for _, w := range warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: %s", n, w))
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			rowErr.Row = n
			for _, fe := range rowErr.Errors {
				fe.Row = n
			}
			res.Errors = append(res.Errors, rowErr.Errors...)
			reason := "invalid " + strings.Join(rowErr.Fields(), ", ")
			res.skip(n, reason)
			logger.Debug("entry skipped", "row", n, "reason", reason)
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Shipments = append(res.Shipments, s)
		res.Imported++
	}

	logger.Info("entries assembled",
		"source", source,
		"report_type", a.Type.String(),
		"imported", res.Imported,
		"skipped", res.Skipped,
		"errors", len(res.Errors))
	return res, nil
}

func (r *Result) skip(row int, reason string) {
	r.Skipped++
	r.Skips = append(r.Skips, Skip{Row: row, Reason: reason})
}

// ManualEntry builds a single shipment from form values through the same
// normalization as a file import.
//
// RETURNS:
//   - The shipment, with Row zero.
//   - Warnings such as an unrecognized beverage type.
//   - A *RowError listing every field that failed.
func ManualEntry(rt report.ReportType, values map[mapper.Field]string, defaults report.DefaultParty) (report.Shipment, []string, error) {
	if err := checkDefault(rt, defaults); err != nil {
		return nil, nil, err
	}
	trimmed := make(map[mapper.Field]string, len(values))
	for f, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed[f] = v
		}
	}

	b := &builder{values: trimmed}
	s := b.build(defaults)
	if len(b.errs) > 0 {
		return nil, b.warnings, &RowError{Errors: b.errs}
	}
	return s, b.warnings, nil
}

func checkDefault(rt report.ReportType, d report.DefaultParty) error {
	if !rt.Valid() {
		return fmt.Errorf("invalid report type %v", rt)
	}
	missing := d == nil
	switch d := d.(type) {
	case *report.Consignor:
		missing = d == nil
	case *report.Manufacturer:
		missing = d == nil
	}
	if missing {
		return fmt.Errorf("a default %s is required for %s reports", defaultName(rt), rt)
	}
	if d.ReportType() != rt {
		return fmt.Errorf("default party is for %s reports, not %s", d.ReportType(), rt)
	}
	return nil
}

func defaultName(rt report.ReportType) string {
	if rt == report.FulfillmentHouse {
		return "manufacturer"
	}
	return "consignor"
}
