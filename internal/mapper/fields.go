package mapper

// Field is a canonical shipment field that CSV columns are mapped onto.
type Field string

// Unmapped marks a header that matched no alias.
const Unmapped Field = ""

const (
	ConsigneeName         Field = "consignee_name"
	ConsigneeAddressLine1 Field = "consignee_address_line1"
	ConsigneeAddressLine2 Field = "consignee_address_line2"
	ConsigneeCity         Field = "consignee_city"
	ConsigneeState        Field = "consignee_state"
	ConsigneeZIP          Field = "consignee_zip"
	TrackingNumber        Field = "tracking_number"
	ShipmentDate          Field = "shipment_date"

	// CommonCarrier only.
	WeightOfBeverages  Field = "weight_of_beverages"
	BeverageType       Field = "beverage_type"
	BillOfLadingNumber Field = "bill_of_lading_number"
	PermitNumber       Field = "permit_number"

	// FulfillmentHouse only.
	BottleCount    Field = "bottle_count"
	BottleSizeML   Field = "bottle_size_ml"
	QuantityOfWine Field = "quantity_of_wine"

	// Sender columns. On a CommonCarrier row they replace the default
	// consignor; on a FulfillmentHouse row they become the different
	// consignor.
	ConsignorName         Field = "consignor_name"
	ConsignorAddressLine1 Field = "consignor_address_line1"
	ConsignorAddressLine2 Field = "consignor_address_line2"
	ConsignorCity         Field = "consignor_city"
	ConsignorState        Field = "consignor_state"
	ConsignorZIP          Field = "consignor_zip"
)

// String returns the field name, or "Unmapped".
func (f Field) String() string {
	if f == Unmapped {
		return "Unmapped"
	}
	return string(f)
}

// fieldTips tell the user which column to add when a field is missing.
var fieldTips = map[Field]string{
	ConsigneeName:         `Add "Name" or "Ship To Company" column`,
	ConsigneeAddressLine1: `Add "Address" or "Ship To Street" column`,
	ConsigneeCity:         `Add "City" or "Ship To City" column`,
	ConsigneeState:        `Add "State" or "Ship To State" column`,
	ConsigneeZIP:          `Add "ZIP" or "Ship To Zip" column`,
	ShipmentDate:          `Add "Date" or "Order Date" column`,
	TrackingNumber:        `Add "Tracking Number" or "Tracking Nos" column`,
	WeightOfBeverages:     `Add "LB" or "Weight" column`,
	BottleCount:           `Add "Bottle Count" or "Quantity" column`,
	BottleSizeML:          `Add "Size" or "SIZE" column (in milliliters)`,
}

// Tip returns the corrective hint for a missing field.
func Tip(f Field) string {
	if tip, ok := fieldTips[f]; ok {
		return tip
	}
	return "Add column for " + string(f)
}
