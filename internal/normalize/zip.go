package normalize

import (
	"strings"
)

// ZIP cleans a ZIP or ZIP+4 code. Everything except digits and a dash is
// dropped, a four digit code gets its leading zero back, and ZIP+4 is
// returned as nine digits without the dash.
func ZIP(v string) (string, error) {
	var b strings.Builder
	for _, r := range v {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), "-")
	if cleaned == "" {
		return "", newError(ErrZipFormat, v, "ZIP code must be 5 or 9 digits (no digits found)")
	}

	parts := strings.Split(cleaned, "-")
	if len(parts) > 2 {
		return "", newError(ErrZipFormat, v, "ZIP code may contain at most one dash")
	}

	head := parts[0]
	if len(head) == 4 {
		head = "0" + head
	}

	if len(parts) == 2 {
		if len(head) != 5 || len(parts[1]) != 4 {
			return "", newError(ErrZipFormat, v, "ZIP+4 must be 5 digits, a dash, and 4 digits")
		}
		return head + parts[1], nil
	}

	switch len(head) {
	case 5, 9:
		return head, nil
	}
	return "", newError(ErrZipFormat, v, "ZIP code must be 5 or 9 digits (got %d digits)", len(head))
}
