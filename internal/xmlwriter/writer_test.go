package xmlwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report/reporttest"
)

// order returns the positions of the given tags in doc, failing if any is
// missing.
func order(t *testing.T, doc string, tags ...string) []int {
	t.Helper()
	pos := make([]int, len(tags))
	for i, tag := range tags {
		pos[i] = strings.Index(doc, "<"+tag+">")
		require.GreaterOrEqual(t, pos[i], 0, "missing <%s>", tag)
	}
	return pos
}

func assertIncreasing(t *testing.T, pos []int) {
	t.Helper()
	for i := 1; i < len(pos); i++ {
		assert.Less(t, pos[i-1], pos[i], "element %d is out of order", i)
	}
}

func TestGenerateCommonCarrier(t *testing.T) {
	doc, err := Generate(reporttest.CommonCarrier(2))
	require.NoError(t, err)
	s := string(doc)

	assert.True(t, strings.HasPrefix(s, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CommonCarrier>\n"))
	assert.Equal(t, 2, strings.Count(s, "<Shipment>"))
	assert.Contains(t, s, "  <TaxPeriodBeginDate>2024-01-01</TaxPeriodBeginDate>\n")
	assert.Contains(t, s, "<WeightOfBeverages>25.00</WeightOfBeverages>")
	assert.Contains(t, s, "<BeverageType>Wine</BeverageType>")
	assert.NotContains(t, s, "AmendedReturnIndicator")
	assert.NotContains(t, s, "StateEIN")
	assert.NotContains(t, s, "BillOfLadingNumber")
	assert.NotContains(t, s, "AddressLine2")

	assertIncreasing(t, order(t, s,
		"TaxPeriodBeginDate", "TaxPeriodEndDate", "Filer", "AckAddress", "Shipment"))
	assertIncreasing(t, order(t, s,
		"ConsignorName", "ConsignorAddress", "PermitNumber", "ConsigneeName",
		"ConsigneeAddress", "ShipmentDate", "BeverageType", "WeightOfBeverages", "TrackingNumber"))
	assertIncreasing(t, order(t, s, "TIN", "TypeTIN", "TINTypeValue", "Name", "BusinessNameLine1"))
}

func TestGenerateFulfillmentHouse(t *testing.T) {
	r := reporttest.FulfillmentHouse(1)
	fs := r.Shipments[0].(*report.FulfillmentShipment)
	fs.QuantityLiters = decimal.RequireFromString("4.5")
	fs.DifferentConsignor = &report.PartyRef{
		Name:    "Door County Wines",
		Address: report.Address{Line1: "9 Bay Rd", City: "Sturgeon Bay", State: "WI", ZIP: "54235"},
	}

	doc, err := Generate(r)
	require.NoError(t, err)
	s := string(doc)

	assert.Contains(t, s, "<FulfillmentHouse>")
	assert.Contains(t, s, "<QuantityOfWine>4.50</QuantityOfWine>")
	assertIncreasing(t, order(t, s,
		"ManufacturerAddress", "WinePermitNumber", "ManufacturerName", "ConsigneeName",
		"ConsigneeAddress", "ShipmentDate", "TrackingNumber", "CommonCarrierPermitNumber",
		"QuantityOfWine", "DifferentConsignor"))
	assert.Contains(t, s, "<DifferentConsignor>\n      <ConsignorName>Door County Wines</ConsignorName>\n")
}

func TestGenerateOptionalElements(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Period.Amended = true
	r.Filer.StateEIN = "036000000000000"
	r.Filer.NameLine2 = "Logistics Division"
	cc := r.Shipments[0].(*report.CommonCarrierShipment)
	cc.BillOfLadingNumber = "BOL-7"
	cc.PermitNumber = ""

	doc, err := Generate(r)
	require.NoError(t, err)
	s := string(doc)

	assert.Contains(t, s, "<AmendedReturnIndicator>X</AmendedReturnIndicator>")
	assert.Contains(t, s, "<StateEIN>036000000000000</StateEIN>")
	assert.Contains(t, s, "<BusinessNameLine2>Logistics Division</BusinessNameLine2>")
	assert.Contains(t, s, "<BillOfLadingNumber>BOL-7</BillOfLadingNumber>")
	assert.NotContains(t, s, "<PermitNumber>")
	assertIncreasing(t, order(t, s, "AckAddress", "AmendedReturnIndicator", "Shipment"))
}

func TestGenerateEmptyRequiredIsSelfClosing(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Filer.Address.ZIP = ""

	doc, err := Generate(r)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<ZIP/>\n")
}

func TestGenerateEscapes(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Filer.NameLine1 = "Smith & Sons <West>"

	doc, err := Generate(r)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<BusinessNameLine1>Smith &amp; Sons &lt;West&gt;</BusinessNameLine1>")
}

func TestGenerateIsDeterministic(t *testing.T) {
	r := reporttest.FulfillmentHouse(3)
	first, err := Generate(r)
	require.NoError(t, err)
	second, err := Generate(r)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateOptions(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.IncludeXMLDeclaration = false
	opts.Indent = "\t"

	var buf bytes.Buffer
	require.NoError(t, GenerateTo(&buf, reporttest.CommonCarrier(1), opts))
	assert.True(t, strings.HasPrefix(buf.String(), "<CommonCarrier>\n\t<TaxPeriodBeginDate>"))
}

func TestGenerateRejectsMixedShipments(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Shipments = append(r.Shipments, reporttest.FulfillmentShipment())

	_, err := Generate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shipment 2")

	_, err = Generate(nil)
	assert.Error(t, err)
}
