package normalize

import (
	"errors"
	"fmt"
)

// Error kinds. Every *FieldError unwraps to exactly one of these, so callers
// can branch with errors.Is.
var (
	ErrDateFormat    = errors.New("DateFormatError")
	ErrZipFormat     = errors.New("ZipFormatError")
	ErrNumericFormat = errors.New("NumericFormatError")
	ErrStateFormat   = errors.New("StateFormatError")
)

// FieldError is a normalization failure scoped to one field of one row.
type FieldError struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Field is the canonical field name, filled in by the caller.
	Field string

	// Value is the offending literal exactly as it was read.
	Value string

	// Row is the 1-based source row number, zero when unknown.
	Row int

	// Message describes what was expected.
	Message string
}

func (e *FieldError) Error() string {
	field := e.Field
	if field == "" {
		field = "value"
	}
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d, field '%s': %s (value: '%s')", e.Kind, e.Row, field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: field '%s': %s (value: '%s')", e.Kind, field, e.Message, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// At returns a copy of e attributed to the given field and row.
func (e *FieldError) At(field string, row int) *FieldError {
	c := *e
	c.Field = field
	c.Row = row
	return &c
}

func newError(kind error, value, format string, args ...any) *FieldError {
	return &FieldError{
		Kind:    kind,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}
