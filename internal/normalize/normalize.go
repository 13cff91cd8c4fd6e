// =============================================================================
// WI Excise Shipper XML Form Generator - Field Normalizer
// =============================================================================
//
// This package turns raw strings read from CSV, XLSX or form entry into the
// canonical forms the report schemas accept:
//   - Dates           -> YYYY-MM-DD
//   - ZIP codes       -> 5 or 9 digits
//   - Street / city   -> schema character set, no periods
//   - Names           -> schema character set
//   - States          -> two-letter postal code
//   - Beverage types  -> Beer | Wine | Spirits | Unknown
//   - Quantities      -> decimal.Decimal, liters rounded half-up to 2 places
//   - TIN / permits   -> 9 / 15 digits
//
// Every failure is a *FieldError. Normalization never panics and never
// consults global mutable state.
//
// =============================================================================

package normalize

import (
	"fmt"
	"strings"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// Kind names the normalization applied to a string-valued field.
type Kind string

const (
	KindText     Kind = "text"
	KindName     Kind = "name"
	KindStreet   Kind = "street"
	KindCity     Kind = "city"
	KindState    Kind = "state"
	KindZIP      Kind = "zip"
	KindDate     Kind = "date"
	KindTracking Kind = "tracking"
	KindTIN      Kind = "tin"
	KindPermit   Kind = "permit"
)

// Apply normalizes value according to kind.
//
// PARAMETERS:
//   - kind: The normalization to apply.
//   - value: The raw value.
//
// RETURNS:
//   - The canonical value.
//   - A *FieldError if the value cannot be normalized.
func Apply(kind Kind, value string) (string, error) {
	switch kind {
	case KindText:
		return Whitespace(value), nil
	case KindName:
		return Name(value), nil
	case KindStreet:
		return Street(value), nil
	case KindCity:
		return City(value), nil
	case KindState:
		return State(value)
	case KindZIP:
		return ZIP(value)
	case KindDate:
		return Date(value)
	case KindTracking:
		return Tracking(value), nil
	case KindTIN:
		return TIN(value)
	case KindPermit:
		return PermitNumber(value)
	default:
		return "", fmt.Errorf("unknown normalization kind %q", kind)
	}
}

// Lossy reports the characters a text normalization would silently drop
// from value. It is empty for kinds that reject bad input with an error.
func Lossy(kind Kind, value string) string {
	switch kind {
	case KindName, KindStreet, KindCity:
		return Dropped(value)
	}
	return ""
}

// Beverage matches v case-insensitively against the beverage enum. Unmatched
// input becomes Unknown and a warning is returned; an empty value is Unknown
// without a warning.
func Beverage(v string) (report.BeverageType, string) {
	s := Whitespace(v)
	if s == "" {
		return report.Unknown, ""
	}
	for _, bt := range report.BeverageTypes {
		if strings.EqualFold(s, string(bt)) {
			return bt, ""
		}
	}
	return report.Unknown, fmt.Sprintf("beverage type %q is not one of Beer, Wine, Spirits or Unknown; using Unknown", v)
}

// Address normalizes every line of a. The first error is returned, attributed
// to the address part that failed.
func Address(a report.Address) (report.Address, error) {
	out := report.Address{
		Line1: Street(a.Line1),
		Line2: Street(a.Line2),
		City:  City(a.City),
	}
	var err error
	if strings.TrimSpace(a.State) != "" {
		if out.State, err = State(a.State); err != nil {
			return out, err.(*FieldError).At("state", 0)
		}
	}
	if strings.TrimSpace(a.ZIP) != "" {
		if out.ZIP, err = ZIP(a.ZIP); err != nil {
			return out, err.(*FieldError).At("zip", 0)
		}
	}
	return out, nil
}
