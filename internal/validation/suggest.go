package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/normalize"
)

// suggest picks a corrective hint for the violation. Field-specific advice
// wins over the generic facet advice; among fields the order is address
// lines, TIN, permit numbers, dates, acknowledgement email, state, city,
// business name, ZIP and quantities.
func suggest(e *SchemaValidationError) string {
	if e.Facet == FacetSyntax {
		return "The file is not well-formed XML. Regenerate it instead of editing it by hand."
	}

	subject := e.Element
	if (e.Facet == FacetMissing || e.Facet == FacetUnexpected) && len(e.Expected) > 0 {
		subject = e.Expected[len(e.Expected)-1]
	}

	switch {
	case strings.HasPrefix(subject, "AddressLine"):
		return addressLineHint(e, subject)
	case subject == "TIN" || subject == "TINTypeValue" || subject == "TypeTIN":
		if subject == "TypeTIN" {
			return "The TIN type must be FEIN or SSN. " + fixAt(e, "tin_type")
		}
		return "The TIN must be exactly 9 digits with no dashes or spaces, e.g. 123456789. " + fixAt(e, "tin_value")
	case strings.HasSuffix(subject, "PermitNumber"):
		return permitHint(e, subject)
	case strings.HasSuffix(subject, "Date"):
		return dateHint(e, subject)
	case subject == "AckAddress":
		return "Enter a valid email address such as reports@business.org with --ack-email or report.ack_email."
	case subject == "State":
		return stateHint(e)
	case subject == "City":
		return cityHint(e)
	case subject == "BusinessNameLine1" || subject == "BusinessNameLine2" || strings.HasSuffix(subject, "Name"):
		return nameHint(e, subject)
	case subject == "ZIP":
		return zipHint(e)
	case subject == "WeightOfBeverages" || subject == "QuantityOfWine":
		return quantityHint(e, subject)
	case subject == "StateEIN":
		return "The state EIN must be exactly 15 digits. " + fixAt(e, "state_ein")
	}
	return genericHint(e)
}

// configKeys maps the report sections kept in the configuration file to
// their key prefix.
var configKeys = map[string]string{
	"Filer":               "filer",
	"ManufacturerAddress": "manufacturer",
}

// fixAt says where the value of the violating element comes from.
func fixAt(e *SchemaValidationError, key string) string {
	inDifferentConsignor := strings.Contains(e.Path, "/DifferentConsignor/")
	switch {
	case configKeys[e.Section] != "":
		return fmt.Sprintf("Set it with: wiexcise config set %s.%s VALUE", configKeys[e.Section], key)
	case e.Section == "ConsignorAddress" && !inDifferentConsignor:
		return fmt.Sprintf("It comes from consignor.%s in the configuration or from the consignor columns of shipment %d.", key, e.Shipment)
	case e.Section == "ConsignorAddress" || e.Section == "DifferentConsignor":
		return fmt.Sprintf("It comes from the consignor columns of shipment %d in the input file.", e.Shipment)
	case e.Section == "ConsigneeAddress":
		return fmt.Sprintf("Fix the consignee columns of shipment %d in the input file and import again.", e.Shipment)
	case e.Shipment > 0:
		return fmt.Sprintf("Fix shipment %d in the input file and import again.", e.Shipment)
	}
	return ""
}

func addressLineHint(e *SchemaValidationError, subject string) string {
	key := "address_line1"
	if subject == "AddressLine2" {
		key = "address_line2"
	}
	where := fixAt(e, key)

	switch {
	case e.Facet == FacetMissing || e.Value == "":
		return "The street address is empty. " + where
	case strings.Contains(e.Value, "."):
		return fmt.Sprintf("Remove the periods: change %q to %q. %s", e.Value, strings.ReplaceAll(e.Value, ".", ""), where)
	case e.Facet == FacetMaxLength:
		return fmt.Sprintf("Street addresses are limited to %d characters; move the rest to address line 2. %s", e.limit, where)
	}
	return "Street addresses may only contain letters, digits, single spaces, - and /. " + where
}

func permitHint(e *SchemaValidationError, subject string) string {
	var key string
	switch subject {
	case "WinePermitNumber":
		key = "manufacturer.wine_permit_number"
	case "CommonCarrierPermitNumber":
		key = "manufacturer.common_carrier_permit_number"
	default:
		key = "consignor.permit_number"
	}
	msg := "Permit numbers must be exactly 15 digits; pad with leading zeros, e.g. 000000000123456."
	if d := normalize.Digits(e.Value); d != "" && len(d) < 15 {
		msg += fmt.Sprintf(" Try %s.", normalize.PadLeft(d, 15, '0'))
	}
	return msg + fmt.Sprintf(" Set it with: wiexcise config set %s VALUE", key)
}

func dateHint(e *SchemaValidationError, subject string) string {
	var where string
	switch subject {
	case "TaxPeriodBeginDate":
		where = "Pass the tax period start with --begin."
	case "TaxPeriodEndDate":
		where = "Pass the tax period end with --end."
	default:
		where = fixAt(e, "")
	}
	if e.Value == "" {
		return "The date is empty. " + where
	}
	return fmt.Sprintf("%q is not a calendar date. Dates must be YYYY-MM-DD, e.g. 2024-03-31; imports also accept 3/31/2024 and Mar 31 2024. %s", e.Value, where)
}

func stateHint(e *SchemaValidationError) string {
	msg := "State codes are two uppercase letters, e.g. WI."
	if len(e.Value) > 2 {
		if code, ok := normalize.StateCode(e.Value); ok {
			msg = fmt.Sprintf("%q is spelled out; use %s.", e.Value, code)
		}
	} else if up := strings.ToUpper(e.Value); up != e.Value && len(up) == 2 {
		msg = fmt.Sprintf("Use uppercase: %s.", up)
	}
	return msg + " " + fixAt(e, "state")
}

var cityJunk = regexp.MustCompile(`[0-9.,;:]`)

func cityHint(e *SchemaValidationError) string {
	msg := "City names may only contain letters, spaces, hyphens and apostrophes."
	if e.Value != "" {
		fixed := strings.Join(strings.Fields(cityJunk.ReplaceAllString(e.Value, "")), " ")
		if fixed != "" && fixed != e.Value {
			msg = fmt.Sprintf("Change %q to %q. %s", e.Value, fixed, msg)
		}
	}
	if e.Facet == FacetMaxLength {
		msg = fmt.Sprintf("City names are limited to %d characters; abbreviate.", e.limit)
	}
	return msg + " " + fixAt(e, "city")
}

func nameHint(e *SchemaValidationError, subject string) string {
	msg := "Names may contain letters, digits, single spaces and # - ( ) & ' only."
	if e.Value == "" || e.Facet == FacetMissing {
		msg = "The name is empty."
	} else if e.Facet == FacetMaxLength {
		msg = fmt.Sprintf("Names are limited to %d characters.", e.limit)
	}

	switch subject {
	case "BusinessNameLine1":
		return msg + " Set it with: wiexcise config set filer.business_name_line1 VALUE"
	case "BusinessNameLine2":
		return msg + " Set it with: wiexcise config set filer.business_name_line2 VALUE"
	case "ManufacturerName":
		return msg + " Set it with: wiexcise config set manufacturer.name VALUE"
	case "ConsignorName":
		if !strings.Contains(e.Path, "/DifferentConsignor/") {
			return msg + fmt.Sprintf(" It comes from consignor.name in the configuration or from the consignor column of shipment %d.", e.Shipment)
		}
	}
	if e.Shipment > 0 {
		return msg + fmt.Sprintf(" Fix shipment %d in the input file and import again.", e.Shipment)
	}
	return msg
}

func zipHint(e *SchemaValidationError) string {
	var issues []string
	v := e.Value
	switch n := len(v); {
	case e.Facet == FacetMissing || n == 0:
		issues = append(issues, "it is empty")
	case n < 5:
		issues = append(issues, fmt.Sprintf("it is too short (%d characters, need 5 or 9)", n))
	case n > 9:
		issues = append(issues, fmt.Sprintf("it is too long (%d characters, at most 9)", n))
	case n > 5 && n < 9:
		issues = append(issues, fmt.Sprintf("it has the wrong length (%d characters, must be 5 or 9)", n))
	}
	if normalize.Digits(v) != v {
		issues = append(issues, "it contains characters other than digits")
	}

	msg := "ZIP codes are 5 digits or 9 digits without a dash, e.g. 53703 or 537031234."
	if len(issues) > 0 {
		msg = fmt.Sprintf("The ZIP %q is invalid: %s. %s", v, strings.Join(issues, " and "), msg)
	}
	return msg + " " + fixAt(e, "zip")
}

func quantityHint(e *SchemaValidationError, subject string) string {
	what := "Weight"
	if subject == "QuantityOfWine" {
		what = "Quantity of wine (liters)"
	}
	msg := fmt.Sprintf("%s must be a non-negative number with at most two decimal places, e.g. 25.00.", what)
	return msg + " " + fixAt(e, "")
}

func genericHint(e *SchemaValidationError) string {
	switch e.Facet {
	case FacetEnumeration:
		return fmt.Sprintf("Use one of: %s.", strings.Join(e.Expected, ", "))
	case FacetMissing:
		return fmt.Sprintf("The report is missing %s. Fill in the matching field and generate again.", strings.Join(e.Expected, " or "))
	case FacetUnexpected:
		return "The element is out of order or not part of this report type. Check that the report type matches the file."
	case FacetRoot:
		return "The document is not this kind of report. Validate it with the other --type."
	case FacetMaxLength, FacetMinLength, FacetLength:
		return fmt.Sprintf("Adjust the length of %q to fit the limit of %d characters.", e.Value, e.limit)
	case FacetPattern:
		return "Remove special characters and leading or trailing spaces, and check that required fields are filled in."
	}
	return "Double-check the required fields: dates YYYY-MM-DD, permit numbers 15 digits, TIN 9 digits."
}
