package converter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// MissingRequiredFieldError lists everything that blocks generation. Unlike
// schema violations, all problems are collected in one pass.
type MissingRequiredFieldError struct {
	// Fields names every missing field, e.g. "filer.tin_value".
	Fields []string

	// Problems holds other blocking issues, such as a reversed tax period.
	Problems []string
}

func (e *MissingRequiredFieldError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Fields, ", "))
	}
	parts = append(parts, e.Problems...)
	return "MissingRequiredFieldError: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// CheckRequired verifies that generation can be attempted.
//
// PARAMETERS:
//   - filer: The filer record.
//   - period: The tax period and acknowledgement address.
//   - party: The default consignor or manufacturer.
//   - shipments: The shipments to report.
//
// RETURNS:
//   - nil if nothing is missing.
//   - A *MissingRequiredFieldError naming every missing field.
func CheckRequired(filer report.FilerInfo, period report.TaxPeriod, party report.DefaultParty, shipments []report.Shipment) *MissingRequiredFieldError {
	e := &MissingRequiredFieldError{}

	e.collect("filer.", validate.Struct(filer))
	e.collect("", validate.Struct(period))

	switch p := party.(type) {
	case *report.Consignor:
		if p != nil {
			e.collect("", validate.Struct(p))
		} else {
			e.Fields = append(e.Fields, "consignor")
		}
	case *report.Manufacturer:
		if p != nil {
			e.collect("", validate.Struct(p))
		} else {
			e.Fields = append(e.Fields, "manufacturer")
		}
	default:
		e.Fields = append(e.Fields, "default_party")
	}

	if period.Begin != "" && period.End != "" {
		if err := period.Validate(); err != nil {
			e.Problems = append(e.Problems, err.Error())
		}
	}
	if len(shipments) == 0 {
		e.Problems = append(e.Problems, "at least one shipment is required")
	}

	if len(e.Fields) == 0 && len(e.Problems) == 0 {
		return nil
	}
	return e
}

// collect sorts validator failures into missing fields and other problems.
func (e *MissingRequiredFieldError) collect(prefix string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.Problems = append(e.Problems, err.Error())
		return
	}
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		name = prefix + name

		switch fe.Tag() {
		case "required":
			e.Fields = append(e.Fields, name)
		case "oneof":
			e.Problems = append(e.Problems, fmt.Sprintf("%s must be one of %s (got %q)", name, fe.Param(), fe.Value()))
		default:
			e.Problems = append(e.Problems, fmt.Sprintf("%s failed %s validation", name, fe.Tag()))
		}
	}
}
