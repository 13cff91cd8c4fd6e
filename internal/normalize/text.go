package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks are the accents left over after NFD decomposition.
var combiningMarks = runes.In(unicode.Mn)

// ligatures covers letters that carry no combining mark to strip.
var ligatures = strings.NewReplacer(
	"ß", "ss", "Æ", "AE", "æ", "ae", "Œ", "OE", "œ", "oe",
	"Ø", "O", "ø", "o", "Ł", "L", "ł", "l", "Đ", "D", "đ", "d",
	"Þ", "Th", "þ", "th",
)

// Fold transliterates accented Latin letters to plain ASCII ("José" ->
// "Jose", "Straße" -> "Strasse"). Characters with no ASCII form (such as
// CJK) are left for the caller to drop.
func Fold(v string) string {
	// A chain carries state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(combiningMarks), norm.NFC)
	out, _, err := transform.String(stripMarks, v)
	if err != nil {
		out = v
	}
	return ligatures.Replace(out)
}

// Dropped returns the letters and digits of v that Street, City and Name
// cannot keep even after folding, in order of first appearance. Punctuation
// is not reported.
func Dropped(v string) string {
	var b strings.Builder
	seen := make(map[rune]bool)
	for _, r := range Fold(v) {
		if r <= unicode.MaxASCII || seen[r] {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			seen[r] = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Whitespace trims v and collapses every run of whitespace to one space.
func Whitespace(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// Street cleans a street line for the schema, which allows only letters,
// digits, dashes, slashes and single spaces. Periods after abbreviations
// ("N.", "St.") are removed outright; other punctuation is dropped.
func Street(v string) string {
	return keep(v, func(r rune) bool {
		return isASCIIAlnum(r) || r == '-' || r == '/'
	}, false)
}

// City removes periods ("St. Paul") and any character other than letters,
// dashes and apostrophes.
func City(v string) string {
	return keep(v, func(r rune) bool {
		return isASCIILetter(r) || r == '-' || r == '\''
	}, false)
}

// Name cleans a business or person name. Periods vanish ("Inc." -> "Inc");
// other punctuation outside the schema's set becomes a space ("Smith,Jones"
// -> "Smith Jones").
func Name(v string) string {
	return keep(v, func(r rune) bool {
		return isASCIIAlnum(r) || strings.ContainsRune("#-()&'", r)
	}, true)
}

// Tracking strips whitespace and anything that is not a letter, digit or
// dash from a carrier tracking number.
func Tracking(v string) string {
	var b strings.Builder
	for _, r := range v {
		if isASCIIAlnum(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keep folds accents, then filters v rune by rune. Periods are always
// dropped; other disallowed runes are dropped or, when spaceOut is set,
// replaced by a space. The result has collapsed whitespace.
func keep(v string, allowed func(rune) bool, spaceOut bool) string {
	var b strings.Builder
	for _, r := range Fold(v) {
		switch {
		case allowed(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '.':
		case spaceOut:
			b.WriteRune(' ')
		}
	}
	return Whitespace(b.String())
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}

// PadLeft pads s on the left with padChar until it is length runes long.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}

// Digits returns only the ASCII digits of v.
func Digits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
