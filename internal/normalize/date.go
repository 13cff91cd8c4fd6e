package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CanonicalDateLayout is the only date form written to reports.
const CanonicalDateLayout = "2006-01-02"

// dateLayouts is tried in order; the first layout that parses wins.
// Month-first forms come before day-first forms, so "03/04/2024" is March 4.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2-1-06",
	"2006/1/2",
	"2006.1.2",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
	"20060102",
	"01022006",
	"010206",
}

const (
	minYear = 1900
	maxYear = 2100

	// A bare five-digit number is read as a spreadsheet serial day only when
	// it lands in this window (36526 through 73050). Anything else, such as
	// "12024", is more likely a mistyped date than a 1932 shipment.
	serialMinYear = 2000
	serialMaxYear = 2099
)

var (
	timeSuffix  = regexp.MustCompile(`^(.+?)[ T]\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?\s*([AaPp][Mm])?(Z|[+-]\d{2}:?\d{2})?$`)
	excelSerial = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
)

// Date parses v against the known layouts and returns it as YYYY-MM-DD.
// Spreadsheet exports sometimes carry a time of day or a raw serial day
// number; both are accepted.
func Date(v string) (string, error) {
	s := strings.Join(strings.Fields(v), " ")
	if s == "" {
		return "", newError(ErrDateFormat, v, "date is empty")
	}
	if m := timeSuffix.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	if excelSerial.MatchString(s) {
		if t, ok := fromExcelSerial(s); ok {
			return t.Format(CanonicalDateLayout), nil
		}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < minYear || t.Year() > maxYear {
			continue
		}
		return t.Format(CanonicalDateLayout), nil
	}

	return "", newError(ErrDateFormat, v, "unrecognized date format, expected a date such as 2024-01-15, 1/15/2024 or Jan 15, 2024")
}

func fromExcelSerial(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < serialMinYear || t.Year() > serialMaxYear {
		return time.Time{}, false
	}
	return t, true
}
