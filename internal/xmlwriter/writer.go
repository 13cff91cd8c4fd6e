// =============================================================================
// WI Excise Shipper XML Form Generator - XML Writer Module
// =============================================================================
//
// This module serializes a report into the XML document the Department of
// Revenue accepts. Element names and their order are fixed by the AB136 and
// AB137 schemas; the writer emits them in schema order and performs no
// validation of its own.
//
// XML STRUCTURE (CommonCarrier shown, FulfillmentHouse has the same header):
//
//   <CommonCarrier>
//     <TaxPeriodBeginDate>2024-01-01</TaxPeriodBeginDate>
//     <TaxPeriodEndDate>2024-03-31</TaxPeriodEndDate>
//     <Filer>
//       <TIN><TypeTIN>FEIN</TypeTIN><TINTypeValue>...</TINTypeValue></TIN>
//       <StateEIN>...</StateEIN>            <!-- optional -->
//       <Name><BusinessNameLine1>...</BusinessNameLine1></Name>
//       <Address>...</Address>
//     </Filer>
//     <AckAddress>reports@example.com</AckAddress>
//     <AmendedReturnIndicator>X</AmendedReturnIndicator>  <!-- optional -->
//     <Shipment>...</Shipment>              <!-- one per shipment -->
//   </CommonCarrier>
//
// RULES:
//   - Optional elements with an empty value are omitted entirely.
//   - Required elements are always written, empty ones as <Tag/>, so the
//     validator can point at them.
//   - Quantities are written with exactly two decimal places.
//   - The same report always produces byte-identical output.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/normalize"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces). Empty writes one element per line
	// without indentation.
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate serializes the report with the default options.
//
// PARAMETERS:
//   - r: The report. All shipments must match r.Type.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if the report is not homogeneous.
func Generate(r *report.Report) ([]byte, error) {
	return GenerateWithOptions(r, DefaultGenerateOptions())
}

// GenerateWithOptions serializes the report with custom options.
func GenerateWithOptions(r *report.Report, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer
	if err := GenerateTo(&buffer, r, options); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// GenerateTo writes the serialized report to w.
func GenerateTo(w io.Writer, r *report.Report, options GenerateOptions) error {
	if r == nil {
		return errors.New("report is nil")
	}
	if err := r.Homogeneous(); err != nil {
		return err
	}

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		version, encoding := options.XMLVersion, options.Encoding
		if version == "" {
			version = "1.0"
		}
		if encoding == "" {
			encoding = "UTF-8"
		}
		fmt.Fprintf(&buffer, "<?xml version=\"%s\" encoding=\"%s\"?>\n", version, encoding)
	}

	writeElement(&buffer, buildDocument(r), options.Indent, 0)

	_, err := w.Write(buffer.Bytes())
	return err
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// element is a node of the document being written. A leaf carries a value,
// a group carries children.
type element struct {
	name     string
	value    string
	children []*element
}

func leaf(name, value string) *element {
	return &element{name: name, value: value}
}

// optional returns nil for an empty value, which group drops.
func optional(name, value string) *element {
	if value == "" {
		return nil
	}
	return leaf(name, value)
}

func group(name string, children ...*element) *element {
	e := &element{name: name}
	for _, c := range children {
		if c != nil {
			e.children = append(e.children, c)
		}
	}
	return e
}

// buildDocument constructs the element tree of the report.
func buildDocument(r *report.Report) *element {
	var amended *element
	if r.Period.Amended {
		amended = leaf("AmendedReturnIndicator", "X")
	}

	root := group(r.Type.String(),
		leaf("TaxPeriodBeginDate", r.Period.Begin),
		leaf("TaxPeriodEndDate", r.Period.End),
		filerElement(r.Filer),
		leaf("AckAddress", r.Period.AckEmail),
		amended,
	)

	for _, s := range r.Shipments {
		switch s := s.(type) {
		case *report.CommonCarrierShipment:
			root.children = append(root.children, commonCarrierShipment(s))
		case *report.FulfillmentShipment:
			root.children = append(root.children, fulfillmentShipment(s))
		}
	}
	return root
}

func filerElement(f report.FilerInfo) *element {
	return group("Filer",
		group("TIN",
			leaf("TypeTIN", f.TINType),
			leaf("TINTypeValue", f.TIN),
		),
		optional("StateEIN", f.StateEIN),
		group("Name",
			leaf("BusinessNameLine1", f.NameLine1),
			optional("BusinessNameLine2", f.NameLine2),
		),
		addressElement("Address", f.Address),
	)
}

func addressElement(name string, a report.Address) *element {
	return group(name,
		leaf("AddressLine1", a.Line1),
		optional("AddressLine2", a.Line2),
		leaf("City", a.City),
		leaf("State", a.State),
		leaf("ZIP", a.ZIP),
	)
}

// commonCarrierShipment builds an AB136 shipment.
//
// STRUCTURE:
//
//	<Shipment>
//	  <ConsignorName/> <ConsignorAddress/> <PermitNumber/>?
//	  <ConsigneeName/> <ConsigneeAddress/> <ShipmentDate/>
//	  <BeverageType/>? <WeightOfBeverages/> <TrackingNumber/>
//	  <BillOfLadingNumber/>?
//	</Shipment>
func commonCarrierShipment(s *report.CommonCarrierShipment) *element {
	return group("Shipment",
		leaf("ConsignorName", s.ConsignorName),
		addressElement("ConsignorAddress", s.ConsignorAddress),
		optional("PermitNumber", s.PermitNumber),
		leaf("ConsigneeName", s.ConsigneeName),
		addressElement("ConsigneeAddress", s.ConsigneeAddress),
		leaf("ShipmentDate", s.ShipmentDate),
		optional("BeverageType", string(s.BeverageType)),
		leaf("WeightOfBeverages", normalize.FormatDecimal(s.Weight)),
		leaf("TrackingNumber", s.TrackingNumber),
		optional("BillOfLadingNumber", s.BillOfLadingNumber),
	)
}

// fulfillmentShipment builds an AB137 shipment.
//
// STRUCTURE:
//
//	<Shipment>
//	  <ManufacturerAddress/> <WinePermitNumber/> <ManufacturerName/>
//	  <ConsigneeName/> <ConsigneeAddress/> <ShipmentDate/>
//	  <TrackingNumber/> <CommonCarrierPermitNumber/> <QuantityOfWine/>
//	  <DifferentConsignor/>?
//	</Shipment>
func fulfillmentShipment(s *report.FulfillmentShipment) *element {
	var consignor *element
	if s.DifferentConsignor != nil {
		consignor = group("DifferentConsignor",
			leaf("ConsignorName", s.DifferentConsignor.Name),
			addressElement("ConsignorAddress", s.DifferentConsignor.Address),
		)
	}

	return group("Shipment",
		addressElement("ManufacturerAddress", s.ManufacturerAddress),
		leaf("WinePermitNumber", s.WinePermitNumber),
		leaf("ManufacturerName", s.ManufacturerName),
		leaf("ConsigneeName", s.ConsigneeName),
		addressElement("ConsigneeAddress", s.ConsigneeAddress),
		leaf("ShipmentDate", s.ShipmentDate),
		leaf("TrackingNumber", s.TrackingNumber),
		leaf("CommonCarrierPermitNumber", s.CommonCarrierPermitNumber),
		leaf("QuantityOfWine", normalize.FormatDecimal(s.QuantityLiters)),
		consignor,
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeElement writes an element and its children, one element per line.
func writeElement(buffer *bytes.Buffer, e *element, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))
	buffer.WriteString("<")
	buffer.WriteString(e.name)

	if len(e.children) == 0 && e.value == "" {
		buffer.WriteString("/>\n")
		return
	}
	buffer.WriteString(">")

	if len(e.children) == 0 {
		buffer.WriteString(escapeXML(e.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range e.children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(e.name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
