package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Facet names reported on SchemaValidationError.Facet. Structural problems
// use the Facet* names that are not XSD facets.
const (
	FacetPattern        = "pattern"
	FacetEnumeration    = "enumeration"
	FacetLength         = "length"
	FacetMinLength      = "minLength"
	FacetMaxLength      = "maxLength"
	FacetTotalDigits    = "totalDigits"
	FacetFractionDigits = "fractionDigits"
	FacetMinInclusive   = "minInclusive"
	FacetMaxInclusive   = "maxInclusive"
	FacetType           = "type"
	FacetMissing        = "missing"
	FacetUnexpected     = "unexpected"
	FacetContent        = "content"
	FacetAttribute      = "attribute"
	FacetRoot           = "root"
	FacetSyntax         = "syntax"
)

// violation is a failed value check before it is tied to an element.
type violation struct {
	facet  string
	reason string
	value  string
	limit  int
	allow  []string
}

var (
	dateLexical    = regexp.MustCompile(`^(-?[0-9]{4,})-([0-9]{2})-([0-9]{2})(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	decimalLexical = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
	integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// whitespace applies the XSD whiteSpace rule of the builtin base.
func whitespace(b builtin, v string) string {
	switch b {
	case builtinString:
		return v
	case builtinNormalizedString:
		return strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, v)
	default:
		return strings.Join(strings.Fields(v), " ")
	}
}

// check validates a text value against the type. The returned violation
// carries the libxml2 wording without the element prefix.
func (st *simpleType) check(raw string) *violation {
	v := whitespace(st.base, raw)

	var num decimal.Decimal
	switch st.base {
	case builtinDate:
		if !validDate(v) {
			return st.atomic(v)
		}
	case builtinDecimal:
		if !decimalLexical.MatchString(v) {
			return st.atomic(v)
		}
		var err error
		if num, err = decimal.NewFromString(v); err != nil {
			return st.atomic(v)
		}
	case builtinInteger:
		if !integerLexical.MatchString(v) {
			return st.atomic(v)
		}
		var err error
		if num, err = decimal.NewFromString(v); err != nil {
			return st.atomic(v)
		}
	}

	if !st.base.numeric() {
		n := utf8.RuneCountInString(v)
		if st.length >= 0 && n != st.length {
			return &violation{
				facet: FacetLength, value: v, limit: st.length,
				reason: fmt.Sprintf("[facet 'length'] The value '%s' has a length of '%d'; this differs from the allowed length of '%d'.", v, n, st.length),
			}
		}
		if st.minLength >= 0 && n < st.minLength {
			return &violation{
				facet: FacetMinLength, value: v, limit: st.minLength,
				reason: fmt.Sprintf("[facet 'minLength'] The value '%s' has a length of '%d'; this underruns the allowed minimum length of '%d'.", v, n, st.minLength),
			}
		}
		if st.maxLength >= 0 && n > st.maxLength {
			return &violation{
				facet: FacetMaxLength, value: v, limit: st.maxLength,
				reason: fmt.Sprintf("[facet 'maxLength'] The value '%s' has a length of '%d'; this exceeds the allowed maximum length of '%d'.", v, n, st.maxLength),
			}
		}
	}

	if len(st.enumeration) > 0 && !st.enumerated(v, num) {
		quoted := make([]string, len(st.enumeration))
		for i, e := range st.enumeration {
			quoted[i] = "'" + e + "'"
		}
		return &violation{
			facet: FacetEnumeration, value: v, allow: st.enumeration,
			reason: fmt.Sprintf("[facet 'enumeration'] The value '%s' is not an element of the set {%s}.", v, strings.Join(quoted, ", ")),
		}
	}

	for _, step := range st.patternSteps {
		if !matchesAny(step, v) {
			return &violation{
				facet: FacetPattern, value: v,
				reason: fmt.Sprintf("[facet 'pattern'] The value '%s' is not accepted by the pattern '%s'.", v, step[0].source),
			}
		}
	}

	if st.base.numeric() {
		total, frac := digitCounts(v)
		if st.totalDigits >= 0 && total > st.totalDigits {
			return &violation{
				facet: FacetTotalDigits, value: v, limit: st.totalDigits,
				reason: fmt.Sprintf("[facet 'totalDigits'] The value '%s' has more digits than are allowed ('%d').", v, st.totalDigits),
			}
		}
		if st.fractionDigits >= 0 && frac > st.fractionDigits {
			return &violation{
				facet: FacetFractionDigits, value: v, limit: st.fractionDigits,
				reason: fmt.Sprintf("[facet 'fractionDigits'] The value '%s' has more fractional digits than are allowed ('%d').", v, st.fractionDigits),
			}
		}
		if st.minInclusive != nil && num.LessThan(*st.minInclusive) {
			return &violation{
				facet: FacetMinInclusive, value: v,
				reason: fmt.Sprintf("[facet 'minInclusive'] The value '%s' is less than the minimum value allowed ('%s').", v, st.minInclusive.String()),
			}
		}
		if st.maxInclusive != nil && num.GreaterThan(*st.maxInclusive) {
			return &violation{
				facet: FacetMaxInclusive, value: v,
				reason: fmt.Sprintf("[facet 'maxInclusive'] The value '%s' is greater than the maximum value allowed ('%s').", v, st.maxInclusive.String()),
			}
		}
	}
	return nil
}

func (st *simpleType) atomic(v string) *violation {
	return &violation{
		facet:  FacetType,
		value:  v,
		reason: fmt.Sprintf("'%s' is not a valid value of the atomic type '%s'.", v, st.label()),
	}
}

// enumerated compares in the value space: "1.0" equals "1" for decimals.
func (st *simpleType) enumerated(v string, num decimal.Decimal) bool {
	for _, e := range st.enumeration {
		if st.base.numeric() {
			d, err := decimal.NewFromString(strings.TrimSpace(e))
			if err == nil && d.Equal(num) {
				return true
			}
			continue
		}
		if whitespace(st.base, e) == v {
			return true
		}
	}
	return false
}

func matchesAny(step []pattern, v string) bool {
	for _, p := range step {
		if p.re.MatchString(v) {
			return true
		}
	}
	return false
}

func validDate(v string) bool {
	m := dateLexical.FindStringSubmatch(v)
	if m == nil {
		return false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || year == 0 {
		return false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// time.Date normalizes overflow, so Feb 30 comes back as March.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == time.Month(month)
}

// digitCounts returns the significant total and fraction digit counts of a
// decimal literal.
func digitCounts(v string) (total, frac int) {
	v = strings.TrimLeft(v, "+-")
	intPart, fracPart, _ := strings.Cut(v, ".")
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	return len(intPart) + len(fracPart), len(fracPart)
}
