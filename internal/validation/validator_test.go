package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report/reporttest"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/xmlwriter"
)

func registry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Embedded()
	require.NoError(t, err)
	return reg
}

func generate(t *testing.T, r *report.Report) string {
	t.Helper()
	doc, err := xmlwriter.Generate(r)
	require.NoError(t, err)
	return string(doc)
}

func validate(t *testing.T, rt report.ReportType, doc string) *SchemaValidationError {
	t.Helper()
	verr, err := registry(t).Validate(rt, []byte(doc))
	require.NoError(t, err)
	return verr
}

func lineOf(doc, needle string) int {
	for i, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, needle) {
			return i + 1
		}
	}
	return 0
}

func TestValidDocuments(t *testing.T) {
	assert.Nil(t, validate(t, report.CommonCarrier, generate(t, reporttest.CommonCarrier(2))))
	assert.Nil(t, validate(t, report.FulfillmentHouse, generate(t, reporttest.FulfillmentHouse(3))))

	r := reporttest.FulfillmentHouse(1)
	r.Period.Amended = true
	r.Filer.StateEIN = "036000000000000"
	r.Filer.Address.ZIP = "537031234"
	r.Shipments[0].(*report.FulfillmentShipment).DifferentConsignor = &report.PartyRef{
		Name:    "O'Brien & Daughters (Door Co)",
		Address: report.Address{Line1: "9 Bay Rd", Line2: "Unit 2/B", City: "Sturgeon Bay", State: "WI", ZIP: "54235"},
	}
	assert.Nil(t, validate(t, report.FulfillmentHouse, generate(t, r)))
}

func TestZIPPatternViolation(t *testing.T) {
	r := reporttest.CommonCarrier(2)
	r.Shipments[1].(*report.CommonCarrierShipment).ConsigneeAddress.ZIP = "5320"
	doc := generate(t, r)

	verr := validate(t, report.CommonCarrier, doc)
	require.NotNil(t, verr)

	assert.Equal(t, "ZIP", verr.Element)
	assert.Equal(t, "/CommonCarrier/Shipment[2]/ConsigneeAddress/ZIP", verr.Path)
	assert.Equal(t, "ConsigneeAddress", verr.Section)
	assert.Equal(t, 2, verr.Shipment)
	assert.Equal(t, "5320", verr.Value)
	assert.Equal(t, FacetPattern, verr.Facet)
	assert.Equal(t, lineOf(doc, "<ZIP>5320</ZIP>"), verr.Line)
	assert.Equal(t,
		"Element 'ZIP': [facet 'pattern'] The value '5320' is not accepted by the pattern '[0-9]{5}([0-9]{4})?'.",
		verr.Raw)
	assert.Contains(t, verr.Suggestion, "too short")
	assert.Contains(t, verr.Suggestion, "shipment 2")
	assert.Equal(t, "shipment 2, consignee address", verr.Location())
	assert.Contains(t, verr.Error(), "SchemaValidationError")
	assert.Contains(t, verr.Detail(), "5320")
}

func TestFirstViolationWins(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Filer.Address.ZIP = "ABCDE"
	r.Shipments[0].(*report.CommonCarrierShipment).ConsigneeAddress.ZIP = "1"

	verr := validate(t, report.CommonCarrier, generate(t, r))
	require.NotNil(t, verr)
	assert.Equal(t, "/CommonCarrier/Filer/Address/ZIP", verr.Path)
	assert.Equal(t, "Filer", verr.Section)
	assert.Zero(t, verr.Shipment)
	assert.Contains(t, verr.Suggestion, "characters other than digits")
	assert.Contains(t, verr.Suggestion, "filer.zip")
}

func TestFieldSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *report.Report)
		element string
		facet   string
		hint    string
	}{
		{
			name:    "spelled out state",
			mutate:  func(r *report.Report) { r.Filer.Address.State = "Wisconsin" },
			element: "State",
			facet:   FacetPattern,
			hint:    `"Wisconsin" is spelled out; use WI.`,
		},
		{
			name: "street with period",
			mutate: func(r *report.Report) {
				r.Shipments[0].(*report.CommonCarrierShipment).ConsigneeAddress.Line1 = "456 Oak Ave."
			},
			element: "AddressLine1",
			facet:   FacetPattern,
			hint:    `change "456 Oak Ave." to "456 Oak Ave"`,
		},
		{
			name: "consignor street",
			mutate: func(r *report.Report) {
				r.Shipments[0].(*report.CommonCarrierShipment).ConsignorAddress.Line1 = ""
			},
			element: "AddressLine1",
			facet:   FacetPattern,
			hint:    "consignor.address_line1",
		},
		{
			name:    "short TIN",
			mutate:  func(r *report.Report) { r.Filer.TIN = "12345" },
			element: "TINTypeValue",
			facet:   FacetPattern,
			hint:    "exactly 9 digits",
		},
		{
			name: "short permit",
			mutate: func(r *report.Report) {
				r.Shipments[0].(*report.CommonCarrierShipment).PermitNumber = "123456"
			},
			element: "PermitNumber",
			facet:   FacetPattern,
			hint:    "Try 000000000123456.",
		},
		{
			name: "impossible date",
			mutate: func(r *report.Report) {
				r.Shipments[0].(*report.CommonCarrierShipment).ShipmentDate = "2024-13-45"
			},
			element: "ShipmentDate",
			facet:   FacetType,
			hint:    `"2024-13-45" is not a calendar date`,
		},
		{
			name:    "bad email",
			mutate:  func(r *report.Report) { r.Period.AckEmail = "reports" },
			element: "AckAddress",
			facet:   FacetPattern,
			hint:    "--ack-email",
		},
		{
			name:    "city with digits",
			mutate:  func(r *report.Report) { r.Filer.Address.City = "Madison 2." },
			element: "City",
			facet:   FacetPattern,
			hint:    `Change "Madison 2." to "Madison"`,
		},
		{
			name:    "business name punctuation",
			mutate:  func(r *report.Report) { r.Filer.NameLine1 = "Badger, Inc." },
			element: "BusinessNameLine1",
			facet:   FacetPattern,
			hint:    "filer.business_name_line1",
		},
		{
			name:    "TIN type",
			mutate:  func(r *report.Report) { r.Filer.TINType = "EIN" },
			element: "TypeTIN",
			facet:   FacetEnumeration,
			hint:    "FEIN or SSN",
		},
		{
			name:    "period begin",
			mutate:  func(r *report.Report) { r.Period.Begin = "01/01/2024" },
			element: "TaxPeriodBeginDate",
			facet:   FacetType,
			hint:    "--begin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reporttest.CommonCarrier(1)
			tt.mutate(r)

			verr := validate(t, report.CommonCarrier, generate(t, r))
			require.NotNil(t, verr)
			assert.Equal(t, tt.element, verr.Element)
			assert.Equal(t, tt.facet, verr.Facet)
			assert.Contains(t, verr.Suggestion, tt.hint)
		})
	}
}

func TestNumericFacets(t *testing.T) {
	valid := generate(t, reporttest.CommonCarrier(1))

	tests := []struct {
		weight string
		facet  string
	}{
		{"-1.00", FacetMinInclusive},
		{"25.123", FacetFractionDigits},
		{"1234567890123", FacetTotalDigits},
		{"heavy", FacetType},
	}
	for _, tt := range tests {
		t.Run(tt.weight, func(t *testing.T) {
			doc := strings.Replace(valid, "<WeightOfBeverages>25.00<", "<WeightOfBeverages>"+tt.weight+"<", 1)
			verr := validate(t, report.CommonCarrier, doc)
			require.NotNil(t, verr)
			assert.Equal(t, "WeightOfBeverages", verr.Element)
			assert.Equal(t, tt.facet, verr.Facet)
			assert.Contains(t, verr.Suggestion, "two decimal places")
		})
	}

	assert.Nil(t, validate(t, report.CommonCarrier,
		strings.Replace(valid, "<WeightOfBeverages>25.00<", "<WeightOfBeverages>25.10<", 1)),
		"trailing zeros do not count as fraction digits")
}

func TestEmptyRequiredElement(t *testing.T) {
	r := reporttest.CommonCarrier(1)
	r.Shipments[0].(*report.CommonCarrierShipment).TrackingNumber = ""

	verr := validate(t, report.CommonCarrier, generate(t, r))
	require.NotNil(t, verr)
	assert.Equal(t, "TrackingNumber", verr.Element)
	assert.Equal(t, FacetMinLength, verr.Facet)
	assert.Contains(t, verr.Raw, "this underruns the allowed minimum length of '1'")
}

func TestStructuralViolations(t *testing.T) {
	valid := generate(t, reporttest.CommonCarrier(1))

	t.Run("missing element before a sibling", func(t *testing.T) {
		doc := strings.Replace(valid, "  <AckAddress>reports@badgerfreight.com</AckAddress>\n", "", 1)
		verr := validate(t, report.CommonCarrier, doc)
		require.NotNil(t, verr)
		assert.Equal(t, "Shipment", verr.Element)
		assert.Equal(t, FacetUnexpected, verr.Facet)
		assert.Equal(t, "Element 'Shipment': This element is not expected. Expected is ( AckAddress ).", verr.Raw)
		assert.Contains(t, verr.Suggestion, "email")
	})

	t.Run("no shipments", func(t *testing.T) {
		doc := generate(t, reporttest.CommonCarrier(0))
		verr := validate(t, report.CommonCarrier, doc)
		require.NotNil(t, verr)
		assert.Equal(t, "CommonCarrier", verr.Element)
		assert.Equal(t, FacetMissing, verr.Facet)
		assert.Equal(t, "Element 'CommonCarrier': Missing child element(s). Expected is one of ( AmendedReturnIndicator, Shipment ).", verr.Raw)
	})

	t.Run("wrong report type", func(t *testing.T) {
		verr := validate(t, report.FulfillmentHouse, valid)
		require.NotNil(t, verr)
		assert.Equal(t, FacetRoot, verr.Facet)
		assert.Contains(t, verr.Suggestion, "--type")
	})

	t.Run("text in element-only content", func(t *testing.T) {
		doc := strings.Replace(valid, "<Filer>", "<Filer>oops", 1)
		verr := validate(t, report.CommonCarrier, doc)
		require.NotNil(t, verr)
		assert.Equal(t, FacetContent, verr.Facet)
	})

	t.Run("attribute", func(t *testing.T) {
		doc := strings.Replace(valid, "<Filer>", `<Filer id="1">`, 1)
		verr := validate(t, report.CommonCarrier, doc)
		require.NotNil(t, verr)
		assert.Equal(t, FacetAttribute, verr.Facet)
		assert.Equal(t, "Element 'Filer', attribute 'id': The attribute 'id' is not allowed.", verr.Raw)
	})

	t.Run("not well-formed", func(t *testing.T) {
		verr := validate(t, report.CommonCarrier, "<CommonCarrier><Filer></CommonCarrier>")
		require.NotNil(t, verr)
		assert.Equal(t, FacetSyntax, verr.Facet)
		assert.NotEmpty(t, verr.Suggestion)

		verr = validate(t, report.CommonCarrier, "")
		require.NotNil(t, verr)
		assert.Equal(t, FacetSyntax, verr.Facet)
	})
}

const tinySchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="R">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="A" type="Code"/>
        <xs:element name="B" type="xs:integer" minOccurs="0"/>
        <xs:element name="C" type="xs:token"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:simpleType name="BaseCode">
    <xs:restriction base="xs:string">
      <xs:maxLength value="3"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="Code">
    <xs:restriction base="BaseCode">
      <xs:pattern value="[a-z]+"/>
      <xs:pattern value="[0-9]+"/>
    </xs:restriction>
  </xs:simpleType>
</xs:schema>`

func TestLoadSchemaSubset(t *testing.T) {
	s, err := LoadSchema(strings.NewReader(tinySchema), "tiny.xsd")
	require.NoError(t, err)
	assert.Equal(t, []string{"R"}, s.Roots())

	tests := []struct {
		doc   string
		facet string
	}{
		{"<R><A>ab</A><C> x  y </C></R>", ""},
		{"<R><A>12</A><B>7</B><C>x</C></R>", ""},
		{"<R><A>abcd</A><C>x</C></R>", FacetMaxLength},
		{"<R><A>a1</A><C>x</C></R>", FacetPattern},
		{"<R><A>a</A><B>1.5</B><C>x</C></R>", FacetType},
		{"<R><A>a</A></R>", FacetMissing},
		{"<R><A>a</A><C>x</C><D/></R>", FacetUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			verr := s.Validate([]byte(tt.doc))
			if tt.facet == "" {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.facet, verr.Facet)
		})
	}

	verr := s.Validate([]byte("<R><A>a</A></R>"))
	require.NotNil(t, verr)
	assert.Equal(t, "Element 'R': Missing child element(s). Expected is one of ( B, C ).", verr.Raw)
	assert.Equal(t, []string{"B", "C"}, verr.Expected)
}

func TestLoadSchemaRejectsUnsupported(t *testing.T) {
	tests := map[string]string{
		"choice": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="R"><xs:complexType><xs:choice/></xs:complexType></xs:element></xs:schema>`,
		"unknown type": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="R" type="Missing"/></xs:schema>`,
		"import": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:import namespace="urn:x"/><xs:element name="R" type="xs:string"/></xs:schema>`,
		"bad occurs": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="R"><xs:complexType><xs:sequence>
			<xs:element name="A" type="xs:string" minOccurs="2" maxOccurs="1"/>
			</xs:sequence></xs:complexType></xs:element></xs:schema>`,
		"not a schema": `<schema/>`,
		"no elements":  `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSchema(strings.NewReader(src), name+".xsd")
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistryOverride(t *testing.T) {
	dir := t.TempDir()
	override := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
		<xs:element name="CommonCarrier" type="xs:string"/></xs:schema>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AB136.xsd"), []byte(override), 0o644))

	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	verr, err := reg.Validate(report.CommonCarrier, []byte("<CommonCarrier>anything</CommonCarrier>"))
	require.NoError(t, err)
	assert.Nil(t, verr)

	// AB137 is not in the directory, so the embedded copy is used.
	verr, err = reg.Validate(report.FulfillmentHouse, []byte(generate(t, reporttest.FulfillmentHouse(1))))
	require.NoError(t, err)
	assert.Nil(t, verr)

	_, err = reg.Schema(report.ReportType(9))
	assert.Error(t, err)
}

func TestLoadRegistryRejectsWrongRoot(t *testing.T) {
	dir := t.TempDir()
	override := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
		<xs:element name="Other" type="xs:string"/></xs:schema>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AB137.xsd"), []byte(override), 0o644))

	_, err := LoadRegistry(dir)
	assert.Error(t, err)
}

func TestDetectReportType(t *testing.T) {
	rt, err := DetectReportType([]byte(generate(t, reporttest.FulfillmentHouse(1))))
	require.NoError(t, err)
	assert.Equal(t, report.FulfillmentHouse, rt)

	rt, err = DetectReportType([]byte("<!-- q1 -->\n<CommonCarrier/>"))
	require.NoError(t, err)
	assert.Equal(t, report.CommonCarrier, rt)

	_, err = DetectReportType([]byte("<Invoice/>"))
	assert.Error(t, err)
	_, err = DetectReportType(nil)
	assert.Error(t, err)
}
