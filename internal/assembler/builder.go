package assembler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/mapper"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/normalize"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

type addressFields struct {
	line1, line2, city, state, zip mapper.Field
}

func (a addressFields) all() []mapper.Field {
	return []mapper.Field{a.line1, a.line2, a.city, a.state, a.zip}
}

var (
	consigneeFields = addressFields{
		line1: mapper.ConsigneeAddressLine1,
		line2: mapper.ConsigneeAddressLine2,
		city:  mapper.ConsigneeCity,
		state: mapper.ConsigneeState,
		zip:   mapper.ConsigneeZIP,
	}
	consignorFields = addressFields{
		line1: mapper.ConsignorAddressLine1,
		line2: mapper.ConsignorAddressLine2,
		city:  mapper.ConsignorCity,
		state: mapper.ConsignorState,
		zip:   mapper.ConsignorZIP,
	}
)

// builder converts the mapped values of one row. Errors and warnings
// accumulate; the shipment is discarded by the caller if any error was
// recorded.
type builder struct {
	row      int
	values   map[mapper.Field]string
	errs     []*normalize.FieldError
	warnings []string
}

func (b *builder) build(d report.DefaultParty) report.Shipment {
	switch d := d.(type) {
	case *report.Consignor:
		return b.commonCarrier(d)
	case *report.Manufacturer:
		return b.fulfillment(d)
	}
	return nil
}

func (b *builder) commonCarrier(d *report.Consignor) *report.CommonCarrierShipment {
	s := &report.CommonCarrierShipment{
		ConsignorName:    lenient(normalize.KindName, d.Name),
		ConsignorAddress: lenientAddress(d.Address),
		PermitNumber:     lenient(normalize.KindPermit, d.PermitNumber),
		Row:              b.row,
	}

	// Row-level sender columns replace the configured consignor field by field.
	if v := b.text(mapper.ConsignorName, normalize.KindName); v != "" {
		s.ConsignorName = v
	}
	b.overrideAddress(&s.ConsignorAddress, consignorFields)
	if v := b.text(mapper.PermitNumber, normalize.KindPermit); v != "" {
		s.PermitNumber = v
	}

	s.ConsigneeName = b.text(mapper.ConsigneeName, normalize.KindName)
	b.overrideAddress(&s.ConsigneeAddress, consigneeFields)
	s.ShipmentDate = b.text(mapper.ShipmentDate, normalize.KindDate)

	bt, warning := normalize.Beverage(b.values[mapper.BeverageType])
	s.BeverageType = bt
	if warning != "" {
		b.warnings = append(b.warnings, warning)
	}

	s.Weight, _ = b.requiredNumber(mapper.WeightOfBeverages, normalize.Decimal)
	s.TrackingNumber = b.text(mapper.TrackingNumber, normalize.KindTracking)
	s.BillOfLadingNumber = b.text(mapper.BillOfLadingNumber, normalize.KindTracking)
	return s
}

func (b *builder) fulfillment(d *report.Manufacturer) *report.FulfillmentShipment {
	s := &report.FulfillmentShipment{
		ManufacturerName:          lenient(normalize.KindName, d.Name),
		ManufacturerAddress:       lenientAddress(d.Address),
		WinePermitNumber:          lenient(normalize.KindPermit, d.WinePermitNumber),
		CommonCarrierPermitNumber: lenient(normalize.KindPermit, d.CommonCarrierPermitNumber),
		Row:                       b.row,
	}

	s.ConsigneeName = b.text(mapper.ConsigneeName, normalize.KindName)
	b.overrideAddress(&s.ConsigneeAddress, consigneeFields)
	s.ShipmentDate = b.text(mapper.ShipmentDate, normalize.KindDate)
	s.TrackingNumber = b.text(mapper.TrackingNumber, normalize.KindTracking)
	s.QuantityLiters = b.liters()

	if b.hasAny(append(consignorFields.all(), mapper.ConsignorName)...) {
		dc := &report.PartyRef{Name: b.text(mapper.ConsignorName, normalize.KindName)}
		b.overrideAddress(&dc.Address, consignorFields)
		s.DifferentConsignor = dc
	}
	return s
}

// liters prefers an explicit liters column over bottle count times size.
func (b *builder) liters() decimal.Decimal {
	if _, ok := b.values[mapper.QuantityOfWine]; ok {
		d, _ := b.requiredNumber(mapper.QuantityOfWine, normalize.Decimal)
		return d.Round(2)
	}
	count, okCount := b.requiredNumber(mapper.BottleCount, normalize.Count)
	size, okSize := b.requiredNumber(mapper.BottleSizeML, normalize.Decimal)
	if !okCount || !okSize {
		return decimal.Zero
	}
	return normalize.BottlesToLiters(count, size)
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

// text normalizes an optional string field. A missing value is "".
func (b *builder) text(f mapper.Field, kind normalize.Kind) string {
	v, ok := b.values[f]
	if !ok {
		return ""
	}
	out, err := normalize.Apply(kind, v)
	if err != nil {
		b.fail(f, v, err)
		return ""
	}
	if lost := normalize.Lossy(kind, v); lost != "" {
		b.warnings = append(b.warnings, fmt.Sprintf("%s: characters %q cannot be reported and were removed from %q", f, lost, v))
	}
	return out
}

func (b *builder) overrideAddress(a *report.Address, fields addressFields) {
	parts := []struct {
		field mapper.Field
		kind  normalize.Kind
		dst   *string
	}{
		{fields.line1, normalize.KindStreet, &a.Line1},
		{fields.line2, normalize.KindStreet, &a.Line2},
		{fields.city, normalize.KindCity, &a.City},
		{fields.state, normalize.KindState, &a.State},
		{fields.zip, normalize.KindZIP, &a.ZIP},
	}
	for _, p := range parts {
		if _, ok := b.values[p.field]; !ok {
			continue
		}
		if v := b.text(p.field, p.kind); v != "" {
			*p.dst = v
		}
	}
}

// requiredNumber parses a quantity that must be present.
func (b *builder) requiredNumber(f mapper.Field, parse func(string) (decimal.Decimal, error)) (decimal.Decimal, bool) {
	v, ok := b.values[f]
	if !ok {
		b.errs = append(b.errs, &normalize.FieldError{
			Kind:    normalize.ErrNumericFormat,
			Field:   string(f),
			Row:     b.row,
			Message: "a value is required",
		})
		return decimal.Zero, false
	}
	d, err := parse(v)
	if err != nil {
		b.fail(f, v, err)
		return decimal.Zero, false
	}
	return d, true
}

func (b *builder) hasAny(fields ...mapper.Field) bool {
	for _, f := range fields {
		if _, ok := b.values[f]; ok {
			return true
		}
	}
	return false
}

func (b *builder) fail(f mapper.Field, v string, err error) {
	var fe *normalize.FieldError
	if !errors.As(err, &fe) {
		fe = &normalize.FieldError{Kind: normalize.ErrNumericFormat, Value: v, Message: err.Error()}
	}
	b.errs = append(b.errs, fe.At(string(f), b.row))
}

// failedFields lists the fields with errors, first occurrence order.
func (b *builder) failedFields() []string {
	return (&RowError{Errors: b.errs}).Fields()
}

// lenient normalizes a configured default. Values that do not normalize are
// kept as written so schema validation can point at the configuration.
func lenient(kind normalize.Kind, v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	out, err := normalize.Apply(kind, v)
	if err != nil {
		return strings.TrimSpace(v)
	}
	return out
}

func lenientAddress(a report.Address) report.Address {
	return report.Address{
		Line1: lenient(normalize.KindStreet, a.Line1),
		Line2: lenient(normalize.KindStreet, a.Line2),
		City:  lenient(normalize.KindCity, a.City),
		State: lenient(normalize.KindState, a.State),
		ZIP:   lenient(normalize.KindZIP, a.ZIP),
	}
}
