// =============================================================================
// WI Excise Shipper XML Form Generator - Column Mapper
// =============================================================================
//
// The mapper matches the headers of an imported sheet against an AliasTable
// and reports which canonical field each header feeds.
//
// MATCHING ORDER:
//   1. Exact match of the normalized header ("ship to zip")
//   2. Exact match ignoring spaces ("ShipToZip")
//   3. Longest alias appearing as whole words in the header
//
// Headers that match nothing are kept and reported as Unmapped. They are
// never fatal; only a header row with no usable names is.
//
// =============================================================================

package mapper

import (
	"fmt"
	"strings"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// EmptyHeaderError is returned when a sheet has no usable header row.
type EmptyHeaderError struct {
	Source string
}

func (e *EmptyHeaderError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("EmptyHeaderError: %s has no usable header row", e.Source)
	}
	return "EmptyHeaderError: no usable header row"
}

// Column is one resolved header.
type Column struct {
	Header string
	Field  Field
	Kind   MatchKind
}

// Mapping is the result of mapping a header row.
type Mapping struct {
	// Columns holds every header in input order, mapped or not.
	Columns []Column

	// Unmapped lists the headers that matched no alias, in input order.
	Unmapped []string
}

// Map resolves headers against table.
//
// PARAMETERS:
//   - table: The alias table for the active report type.
//   - headers: The raw header row.
//
// RETURNS:
//   - The mapping, which may be partial.
//   - *EmptyHeaderError if no header is non-blank.
func Map(table *AliasTable, headers []string) (*Mapping, error) {
	usable := false
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			usable = true
			break
		}
	}
	if !usable {
		return nil, &EmptyHeaderError{}
	}

	m := &Mapping{Columns: make([]Column, 0, len(headers))}
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		f, kind := table.Match(h)
		m.Columns = append(m.Columns, Column{Header: h, Field: f, Kind: kind})
		if f == Unmapped {
			m.Unmapped = append(m.Unmapped, h)
		}
	}
	return m, nil
}

// FieldFor returns the field a header maps to, or Unmapped.
func (m *Mapping) FieldFor(header string) Field {
	for _, c := range m.Columns {
		if c.Header == header {
			return c.Field
		}
	}
	return Unmapped
}

// Sources returns the headers feeding f, best match first. Exact matches
// come before fragment matches; input order is kept otherwise.
func (m *Mapping) Sources(f Field) []string {
	var exact, partial []string
	for _, c := range m.Columns {
		if c.Field != f || f == Unmapped {
			continue
		}
		if c.Kind == ExactMatch {
			exact = append(exact, c.Header)
		} else {
			partial = append(partial, c.Header)
		}
	}
	return append(exact, partial...)
}

// Fields returns the distinct mapped fields in first-seen order.
func (m *Mapping) Fields() []Field {
	seen := make(map[Field]bool)
	var out []Field
	for _, c := range m.Columns {
		if c.Field == Unmapped || seen[c.Field] {
			continue
		}
		seen[c.Field] = true
		out = append(out, c.Field)
	}
	return out
}

// Has reports whether any header maps to f.
func (m *Mapping) Has(f Field) bool {
	return len(m.Sources(f)) > 0
}

// =============================================================================
// MAPPING REPORT
// =============================================================================

// MissingField is a recommended field with no source column.
type MissingField struct {
	Field Field  `json:"field"`
	Tip   string `json:"tip"`
}

// MappingReport summarizes a mapping for the user.
type MappingReport struct {
	ReportType         string            `json:"report_type"`
	Mapped             map[string]string `json:"mapped_columns"`
	Unmapped           []string          `json:"unmapped_columns"`
	MissingRecommended []MissingField    `json:"missing_recommended"`
	Warnings           []string          `json:"warnings"`
}

// RecommendedFields lists the fields an import should supply for rt.
func RecommendedFields(rt report.ReportType) []Field {
	base := []Field{ConsigneeName, ConsigneeAddressLine1, ConsigneeCity, ConsigneeState, ConsigneeZIP, ShipmentDate}
	switch rt {
	case report.CommonCarrier:
		return append(base, WeightOfBeverages)
	case report.FulfillmentHouse:
		return append(base, BottleCount, BottleSizeML)
	}
	return base
}

// Report builds the user-facing summary for m.
func Report(m *Mapping, rt report.ReportType) *MappingReport {
	r := &MappingReport{
		ReportType: rt.String(),
		Mapped:     make(map[string]string),
		Unmapped:   append([]string(nil), m.Unmapped...),
	}

	for _, c := range m.Columns {
		if c.Field != Unmapped {
			r.Mapped[c.Header] = string(c.Field)
		}
	}

	for _, f := range RecommendedFields(rt) {
		if m.Has(f) {
			continue
		}
		// A liters column replaces the bottle columns.
		if (f == BottleCount || f == BottleSizeML) && m.Has(QuantityOfWine) {
			continue
		}
		r.MissingRecommended = append(r.MissingRecommended, MissingField{Field: f, Tip: Tip(f)})
	}

	if n := len(r.Unmapped); n > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Found %d unmapped columns that will be ignored: %s", n, strings.Join(r.Unmapped, ", ")))
	}
	if n := len(r.MissingRecommended); n > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Missing %d recommended fields", n))
	}
	for _, f := range m.Fields() {
		if src := m.Sources(f); len(src) > 1 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("Columns %s all map to %s; the first non-empty value is used (%q preferred)", quoteAll(src), f, src[0]))
		}
	}
	return r
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}

// =============================================================================
// TEMPLATES
// =============================================================================

// TemplateHeaders returns the header row of the import template for rt.
func TemplateHeaders(rt report.ReportType) []string {
	headers := []string{"Ship To Company", "Ship To Street", "Ship To City", "Ship To State", "Ship To Zip", "Tracking Nos", "Order Date"}
	switch rt {
	case report.CommonCarrier:
		return append(headers, "LB", "TYPE")
	case report.FulfillmentHouse:
		return append(headers, "BOTTLE COUNT", "SIZE")
	}
	return headers
}
