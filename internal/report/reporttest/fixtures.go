// Package reporttest builds complete, schema-valid reports for tests.
package reporttest

import (
	"github.com/shopspring/decimal"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// Filer returns a complete filer record.
func Filer() report.FilerInfo {
	return report.FilerInfo{
		TINType:   report.TINTypeFEIN,
		TIN:       "123456789",
		NameLine1: "Badger Freight LLC",
		Address: report.Address{
			Line1: "100 Industrial Dr",
			City:  "Madison",
			State: "WI",
			ZIP:   "53703",
		},
	}
}

// Period returns the first quarter of 2024.
func Period() report.TaxPeriod {
	return report.TaxPeriod{
		Begin:    "2024-01-01",
		End:      "2024-03-31",
		AckEmail: "reports@badgerfreight.com",
	}
}

// Consignor returns a complete default consignor.
func Consignor() *report.Consignor {
	return &report.Consignor{
		Name: "Northwoods Winery",
		Address: report.Address{
			Line1: "1 Vineyard Rd",
			City:  "Baraboo",
			State: "WI",
			ZIP:   "53913",
		},
		PermitNumber: "000000000123456",
	}
}

// Manufacturer returns a complete default manufacturer.
func Manufacturer() *report.Manufacturer {
	return &report.Manufacturer{
		Name: "Napa Cellars",
		Address: report.Address{
			Line1: "500 Winery Ln",
			City:  "Napa",
			State: "CA",
			ZIP:   "94558",
		},
		WinePermitNumber:          "000000000654321",
		CommonCarrierPermitNumber: "000000000111222",
	}
}

// CommonCarrierShipment returns one complete carrier shipment.
func CommonCarrierShipment() *report.CommonCarrierShipment {
	c := Consignor()
	return &report.CommonCarrierShipment{
		ConsignorName:    c.Name,
		ConsignorAddress: c.Address,
		PermitNumber:     c.PermitNumber,
		ConsigneeName:    "John Doe",
		ConsigneeAddress: report.Address{
			Line1: "456 Oak Ave",
			City:  "Milwaukee",
			State: "WI",
			ZIP:   "53202",
		},
		ShipmentDate:   "2024-01-15",
		BeverageType:   report.Wine,
		Weight:         decimal.RequireFromString("25"),
		TrackingNumber: "1Z999AA10123456784",
	}
}

// FulfillmentShipment returns one complete fulfillment house shipment.
func FulfillmentShipment() *report.FulfillmentShipment {
	m := Manufacturer()
	return &report.FulfillmentShipment{
		ManufacturerName:    m.Name,
		ManufacturerAddress: m.Address,
		WinePermitNumber:    m.WinePermitNumber,
		ConsigneeName:       "Jane Roe",
		ConsigneeAddress: report.Address{
			Line1: "789 Elm St",
			City:  "Green Bay",
			State: "WI",
			ZIP:   "54301",
		},
		ShipmentDate:              "2024-02-10",
		TrackingNumber:            "9400111899223197428490",
		CommonCarrierPermitNumber: m.CommonCarrierPermitNumber,
		QuantityLiters:            decimal.RequireFromString("9"),
	}
}

// CommonCarrier returns a valid carrier report with n shipments.
func CommonCarrier(n int) *report.Report {
	r := &report.Report{Type: report.CommonCarrier, Filer: Filer(), Period: Period()}
	for i := 0; i < n; i++ {
		r.Shipments = append(r.Shipments, CommonCarrierShipment())
	}
	return r
}

// FulfillmentHouse returns a valid fulfillment house report with n shipments.
func FulfillmentHouse(n int) *report.Report {
	r := &report.Report{Type: report.FulfillmentHouse, Filer: Filer(), Period: Period()}
	for i := 0; i < n; i++ {
		r.Shipments = append(r.Shipments, FulfillmentShipment())
	}
	return r
}
