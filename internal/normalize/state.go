package normalize

import "strings"

// stateCodes maps spelled-out state and territory names to postal codes.
var stateCodes = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"DISTRICT OF COLUMBIA": "DC", "FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI",
	"IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
	"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME",
	"MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN",
	"MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE",
	"NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM",
	"NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH",
	"OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI",
	"SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX",
	"UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA",
	"WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	"PUERTO RICO": "PR", "GUAM": "GU", "VIRGIN ISLANDS": "VI",
}

// StateCode looks up the postal code for a spelled-out state name.
func StateCode(name string) (string, bool) {
	code, ok := stateCodes[strings.ToUpper(Whitespace(name))]
	return code, ok
}

// State returns the two-letter upper-case code for v. Full state names are
// converted; periods and spaces in abbreviations ("W.I.") are ignored.
func State(v string) (string, error) {
	s := strings.ToUpper(Whitespace(v))
	if code, ok := stateCodes[s]; ok {
		return code, nil
	}
	compact := strings.NewReplacer(".", "", " ", "").Replace(s)
	if len(compact) == 2 && isASCIILetter(rune(compact[0])) && isASCIILetter(rune(compact[1])) {
		return compact, nil
	}
	return "", newError(ErrStateFormat, v, "state must be a 2-letter code such as WI")
}
