// =============================================================================
// WI Excise Shipper XML Form Generator - Report Types
// =============================================================================
//
// This package contains the shared data model used across the pipeline:
//   - mapper / assembler (build shipments)
//   - xmlwriter          (serialize shipments)
//   - converter          (required-field checks)
//
// The two report variants are modeled as a closed sum type. A Shipment can
// only be one of CommonCarrierShipment or FulfillmentShipment, and a Report
// carries exactly one ReportType for all of its shipments.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT TYPE
// =============================================================================

// ReportType selects one of the two fixed report shapes.
type ReportType int

const (
	// CommonCarrier is the carrier report (schema AB136).
	CommonCarrier ReportType = iota + 1

	// FulfillmentHouse is the fulfillment house report (schema AB137).
	FulfillmentHouse
)

// AllReportTypes lists the supported variants in display order.
var AllReportTypes = []ReportType{CommonCarrier, FulfillmentHouse}

// String returns the root element name used for the report.
func (t ReportType) String() string {
	switch t {
	case CommonCarrier:
		return "CommonCarrier"
	case FulfillmentHouse:
		return "FulfillmentHouse"
	default:
		return fmt.Sprintf("ReportType(%d)", int(t))
	}
}

// SchemaCode returns the state form code for the report.
func (t ReportType) SchemaCode() string {
	switch t {
	case CommonCarrier:
		return "AB136"
	case FulfillmentHouse:
		return "AB137"
	default:
		return ""
	}
}

// SchemaName returns the schema file name for the report.
func (t ReportType) SchemaName() string {
	if code := t.SchemaCode(); code != "" {
		return code + ".xsd"
	}
	return ""
}

// Valid reports whether t is one of the known variants.
func (t ReportType) Valid() bool {
	return t == CommonCarrier || t == FulfillmentHouse
}

// ParseReportType accepts the canonical names, the schema codes and the short
// forms used on the command line ("cc", "fh"). Matching is case-insensitive.
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "commoncarrier", "common-carrier", "common_carrier", "ab136", "cc":
		return CommonCarrier, nil
	case "fulfillmenthouse", "fulfillment-house", "fulfillment_house", "ab137", "fh":
		return FulfillmentHouse, nil
	}
	return 0, fmt.Errorf("invalid report type %q: must be one of CommonCarrier (AB136) or FulfillmentHouse (AB137)", s)
}

// =============================================================================
// PARTIES
// =============================================================================

// Address is a postal address as it appears in every address block.
type Address struct {
	Line1 string `json:"address_line1" yaml:"address_line1" validate:"required"`
	Line2 string `json:"address_line2,omitempty" yaml:"address_line2,omitempty"`
	City  string `json:"city" yaml:"city" validate:"required"`
	State string `json:"state" yaml:"state" validate:"required"`
	ZIP   string `json:"zip" yaml:"zip" validate:"required"`
}

// TIN types accepted by the schema.
const (
	TINTypeFEIN = "FEIN"
	TINTypeSSN  = "SSN"
)

// FilerInfo identifies the business filing the report.
type FilerInfo struct {
	TINType   string  `json:"tin_type" validate:"required,oneof=FEIN SSN"`
	TIN       string  `json:"tin_value" validate:"required"`
	StateEIN  string  `json:"state_ein,omitempty"`
	NameLine1 string  `json:"business_name_line1" validate:"required"`
	NameLine2 string  `json:"business_name_line2,omitempty"`
	Address   Address `json:"address"`
}

// TaxPeriod is the reporting window plus submission metadata.
type TaxPeriod struct {
	Begin    string `json:"tax_period_begin" validate:"required"`
	End      string `json:"tax_period_end" validate:"required"`
	AckEmail string `json:"ack_email" validate:"required"`
	Amended  bool   `json:"amended"`
}

// =============================================================================
// DEFAULT PARTY (SUM TYPE)
// =============================================================================

// DefaultParty supplies the sender side of every shipment in a report.
// It is implemented by *Consignor and *Manufacturer only.
type DefaultParty interface {
	ReportType() ReportType
	isDefaultParty()
}

// Consignor is the sender of record for CommonCarrier shipments.
type Consignor struct {
	Name         string  `json:"consignor_name" validate:"required"`
	Address      Address `json:"consignor_address"`
	PermitNumber string  `json:"permit_number,omitempty"`
}

// ReportType implements DefaultParty.
func (*Consignor) ReportType() ReportType { return CommonCarrier }
func (*Consignor) isDefaultParty()        {}

// Manufacturer is the winery of record for FulfillmentHouse shipments.
type Manufacturer struct {
	Name                      string  `json:"manufacturer_name" validate:"required"`
	Address                   Address `json:"manufacturer_address"`
	WinePermitNumber          string  `json:"wine_permit_number" validate:"required"`
	CommonCarrierPermitNumber string  `json:"common_carrier_permit_number" validate:"required"`
}

// ReportType implements DefaultParty.
func (*Manufacturer) ReportType() ReportType { return FulfillmentHouse }
func (*Manufacturer) isDefaultParty()        {}

// =============================================================================
// SHIPMENTS (SUM TYPE)
// =============================================================================

// BeverageType is the beverage category declared on a carrier shipment.
type BeverageType string

const (
	Beer    BeverageType = "Beer"
	Wine    BeverageType = "Wine"
	Spirits BeverageType = "Spirits"
	Unknown BeverageType = "Unknown"
)

// BeverageTypes lists the enumerated values in schema order.
var BeverageTypes = []BeverageType{Beer, Wine, Spirits, Unknown}

// Shipment is one shipment line of a report.
// It is implemented by *CommonCarrierShipment and *FulfillmentShipment only.
type Shipment interface {
	ReportType() ReportType
	isShipment()
}

// CommonCarrierShipment is one AB136 shipment.
type CommonCarrierShipment struct {
	ConsignorName      string
	ConsignorAddress   Address
	PermitNumber       string
	ConsigneeName      string
	ConsigneeAddress   Address
	ShipmentDate       string
	BeverageType       BeverageType
	Weight             decimal.Decimal
	TrackingNumber     string
	BillOfLadingNumber string

	// Row is the source row number, zero for manual entries.
	Row int
}

// ReportType implements Shipment.
func (*CommonCarrierShipment) ReportType() ReportType { return CommonCarrier }
func (*CommonCarrierShipment) isShipment()            {}

// PartyRef is a name plus address, used for the optional different consignor.
type PartyRef struct {
	Name    string
	Address Address
}

// FulfillmentShipment is one AB137 shipment.
type FulfillmentShipment struct {
	ManufacturerName          string
	ManufacturerAddress       Address
	WinePermitNumber          string
	ConsigneeName             string
	ConsigneeAddress          Address
	ShipmentDate              string
	TrackingNumber            string
	CommonCarrierPermitNumber string
	QuantityLiters            decimal.Decimal

	// DifferentConsignor is set when the wine was shipped on behalf of a party
	// other than the manufacturer.
	DifferentConsignor *PartyRef

	Row int
}

// ReportType implements Shipment.
func (*FulfillmentShipment) ReportType() ReportType { return FulfillmentHouse }
func (*FulfillmentShipment) isShipment()            {}

// =============================================================================
// REPORT
// =============================================================================

// Report is the complete input to the XML generator.
type Report struct {
	Type      ReportType
	Filer     FilerInfo
	Period    TaxPeriod
	Shipments []Shipment
}

// Homogeneous returns an error naming the first shipment whose variant does
// not match the report type.
func (r *Report) Homogeneous() error {
	if !r.Type.Valid() {
		return fmt.Errorf("invalid report type %v", r.Type)
	}
	for i, s := range r.Shipments {
		if s == nil {
			return fmt.Errorf("shipment %d is nil", i+1)
		}
		if s.ReportType() != r.Type {
			return fmt.Errorf("shipment %d is a %s shipment in a %s report", i+1, s.ReportType(), r.Type)
		}
	}
	return nil
}
