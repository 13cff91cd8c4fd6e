package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var unitSuffix = regexp.MustCompile(`(?i)\s*(lbs?|pounds?|ml|liters?|litres?|l)$`)

// thousandsGrouped matches a number whose commas all separate groups of
// three digits ("1,234" or "12,345.5").
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

var thousand = decimal.NewFromInt(1000)

// Decimal parses a non-negative decimal quantity. Thousands separators and a
// trailing unit ("12.5 lbs", "750ml") are tolerated. Any other comma, such as
// a decimal comma in "12,5", is rejected rather than guessed at.
func Decimal(v string) (decimal.Decimal, error) {
	s := strings.TrimSpace(v)
	s = strings.TrimSpace(unitSuffix.ReplaceAllString(s, ""))
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return decimal.Zero, newError(ErrNumericFormat, v, "commas may only separate thousands; use a period for decimals (12.5, not 12,5)")
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return decimal.Zero, newError(ErrNumericFormat, v, "a number is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, newError(ErrNumericFormat, v, "not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, newError(ErrNumericFormat, v, "must not be negative")
	}
	return d, nil
}

// Count parses a whole, non-negative number such as a bottle count.
func Count(v string) (decimal.Decimal, error) {
	d, err := Decimal(v)
	if err != nil {
		return d, err
	}
	if !d.IsInteger() {
		return decimal.Zero, newError(ErrNumericFormat, v, "must be a whole number")
	}
	return d, nil
}

// BottlesToLiters converts a bottle count and bottle size in milliliters to
// liters rounded half-up to two decimal places.
func BottlesToLiters(count, sizeML decimal.Decimal) decimal.Decimal {
	return count.Mul(sizeML).Div(thousand).Round(2)
}

// FormatDecimal renders d the way reports carry quantities: two decimals.
func FormatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// TIN returns a 9-digit taxpayer identification number. Dashes and spaces
// are ignored ("12-3456789"); anything else is rejected.
func TIN(v string) (string, error) {
	s := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(v))
	if len(s) != 9 || Digits(s) != s {
		return "", newError(ErrNumericFormat, v, "TIN must be exactly 9 digits")
	}
	return s, nil
}

// PermitNumber returns the digits of v left-padded with zeros to 15.
func PermitNumber(v string) (string, error) {
	d := Digits(v)
	switch {
	case d == "":
		return "", newError(ErrNumericFormat, v, "permit number must contain digits")
	case len(d) > 15:
		return "", newError(ErrNumericFormat, v, "permit number must be at most 15 digits (got %d)", len(d))
	}
	return PadLeft(d, 15, '0'), nil
}
