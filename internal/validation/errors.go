package validation

import (
	"fmt"
	"strings"
)

// SchemaValidationError describes the first schema violation in a
// document. It is not fatal: the caller still holds the generated XML and
// can inspect or save it.
type SchemaValidationError struct {
	// Element is the local name of the offending element ("ZIP").
	Element string

	// Path locates the element: /CommonCarrier/Shipment[2]/ConsigneeAddress/ZIP.
	Path string

	// Section is the nearest enclosing report block (Filer,
	// ConsignorAddress, ManufacturerAddress, ConsigneeAddress,
	// DifferentConsignor or Shipment). Empty for report-level elements.
	Section string

	// Shipment is the 1-based shipment position, 0 outside shipments.
	Shipment int

	// Value is the offending literal, when the violation is about a value.
	Value string

	// Line is the document line of the element, 0 if unknown.
	Line int

	// Facet classifies the violation (FacetPattern, FacetMissing, ...).
	Facet string

	// Reason is the violation without the element prefix.
	Reason string

	// Suggestion is a corrective hint for the person filling in the data.
	Suggestion string

	// Raw is the message in libxml2 wording:
	// "Element 'ZIP': [facet 'pattern'] The value '5320' is not accepted ...".
	Raw string

	// Expected lists allowed values (enumeration) or allowed element names
	// (missing or unexpected elements).
	Expected []string

	limit int
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("SchemaValidationError: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	return b.String()
}

// Location describes where the violation is in report terms,
// e.g. "shipment 2, consignee address".
func (e *SchemaValidationError) Location() string {
	var parts []string
	if e.Shipment > 0 {
		parts = append(parts, fmt.Sprintf("shipment %d", e.Shipment))
	}
	if name, ok := sectionNames[e.Section]; ok {
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "report header"
	}
	return strings.Join(parts, ", ")
}

var sectionNames = map[string]string{
	"Filer":               "filer information",
	"ConsignorAddress":    "consignor address",
	"ManufacturerAddress": "manufacturer address",
	"ConsigneeAddress":    "consignee address",
	"DifferentConsignor":  "different consignor",
}

// Detail renders the error as a multi-line report for the error log.
func (e *SchemaValidationError) Detail() string {
	var b strings.Builder
	b.WriteString("VALIDATION FAILED\n")
	fmt.Fprintf(&b, "  Where:      %s", e.Location())
	if e.Element != "" {
		fmt.Fprintf(&b, " (%s)", e.Element)
	}
	b.WriteString("\n")
	if e.Line > 0 {
		fmt.Fprintf(&b, "  Line:       %d\n", e.Line)
	}
	if e.Value != "" || e.Facet == FacetPattern || e.Facet == FacetType {
		fmt.Fprintf(&b, "  Value:      %q\n", e.Value)
	}
	fmt.Fprintf(&b, "  Problem:    %s\n", e.Raw)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  How to fix: %s\n", e.Suggestion)
	}
	b.WriteString("  Only the first problem is reported. Fix it and validate again.\n")
	return b.String()
}
