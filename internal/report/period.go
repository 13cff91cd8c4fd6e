package report

import (
	"fmt"
	"time"
)

// DateLayout is the canonical date form used in every report element.
const DateLayout = "2006-01-02"

// Validate checks that both dates are canonical and Begin is not after End.
func (p TaxPeriod) Validate() error {
	begin, err := time.Parse(DateLayout, p.Begin)
	if err != nil {
		return fmt.Errorf("tax_period_begin %q is not a YYYY-MM-DD date", p.Begin)
	}
	end, err := time.Parse(DateLayout, p.End)
	if err != nil {
		return fmt.Errorf("tax_period_end %q is not a YYYY-MM-DD date", p.End)
	}
	if begin.After(end) {
		return fmt.Errorf("tax period begins %s after it ends %s", p.Begin, p.End)
	}
	return nil
}
