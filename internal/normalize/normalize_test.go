package normalize

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-01-15", "2024-01-15"},
		{"2024-1-5", "2024-01-05"},
		{"1/15/2024", "2024-01-15"},
		{"01/15/2024", "2024-01-15"},
		{"1/15/24", "2024-01-15"},
		{"01-15-2024", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"January 15, 2024", "2024-01-15"},
		{"Jan 15 2024", "2024-01-15"},
		{"15 January 2024", "2024-01-15"},
		{"15 Jan 2024", "2024-01-15"},
		{"2024/01/15", "2024-01-15"},
		{"2024.01.15", "2024-01-15"},
		{"20240115", "2024-01-15"},
		{"01152024", "2024-01-15"},
		{"011524", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"2024-01-15 10:30:00", "2024-01-15"},
		{"2024-01-15T10:30:00Z", "2024-01-15"},
		{"1/15/2024 3:04 PM", "2024-01-15"},
		{"  jan   15, 2024 ", "2024-01-15"},
		{"45306", "2024-01-15"},
		{"45306.5", "2024-01-15"},
		{"36526", "2000-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Date(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRejects(t *testing.T) {
	for _, input := range []string{"13/45/2024", "2024-13-01", "not a date", "", "1/15/1850", "Smarch 3, 2024", "12024", "36525", "73051"} {
		t.Run(input, func(t *testing.T) {
			_, err := Date(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDateFormat))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, input, fe.Value)
		})
	}
}

func TestZIP(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"53703", "53703", false},
		{"5370", "05370", false},
		{"53703-1234", "537031234", false},
		{"537031234", "537031234", false},
		{"5370-1234", "053701234", false},
		{" WI 53703 ", "53703", false},
		{"537", "", true},
		{"537031", "", true},
		{"53703-12", "", true},
		{"5-37-03", "", true},
		{"", "", true},
		{"abcde", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ZIP(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrZipFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreet(t *testing.T) {
	tests := map[string]string{
		"123 N. Main St.":          "123 N Main St",
		"456  Oak   Ave":           "456 Oak Ave",
		"789 W. Elm St., Apt #4":   "789 W Elm St Apt 4",
		"12-B Lake Rd / Unit 3":    "12-B Lake Rd / Unit 3",
		"  P.O. Box 55 ":           "PO Box 55",
	}
	for input, want := range tests {
		assert.Equal(t, want, Street(input), input)
	}
}

func TestCityAndName(t *testing.T) {
	assert.Equal(t, "St Paul", City("St. Paul"))
	assert.Equal(t, "Winston-Salem", City(" Winston-Salem "))
	assert.Equal(t, "Coeur d'Alene", City("Coeur d'Alene"))

	assert.Equal(t, "Acme Wine Co", Name("Acme Wine Co."))
	assert.Equal(t, "Smith Jones LLC", Name("Smith,Jones, LLC"))
	assert.Equal(t, "O'Brien & Sons", Name("O'Brien  & Sons"))
}

func TestAccentsAreTransliterated(t *testing.T) {
	tests := []struct {
		kind  Kind
		input string
		want  string
	}{
		{KindName, "José Müller", "Jose Muller"},
		{KindName, "Straße Weinhaus", "Strasse Weinhaus"},
		{KindName, "Søren Ærø", "Soren AEro"},
		{KindStreet, "12 Café Rd.", "12 Cafe Rd"},
		{KindCity, "Saint-Étienne", "Saint-Etienne"},
		{KindCity, "Łódź", "Lodz"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Apply(tt.kind, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, Lossy(tt.kind, tt.input))
		})
	}
}

func TestLossyNamesDroppedCharacters(t *testing.T) {
	assert.Equal(t, "John Doe", Name("John 李 Doe"))
	assert.Equal(t, "李", Lossy(KindName, "John 李 Doe"))
	assert.Equal(t, "東京", Lossy(KindCity, "東京 東"))

	// Punctuation is expected to go and is not reported.
	assert.Empty(t, Lossy(KindName, "Smith,Jones, LLC."))
	// Kinds that reject bad input never report losses.
	assert.Empty(t, Lossy(KindZIP, "李"))
}

func TestState(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"WI", "WI", false},
		{"wi", "WI", false},
		{"Wisconsin", "WI", false},
		{"new york", "NY", false},
		{"W.I.", "WI", false},
		{"Wis", "", true},
		{"W1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := State(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrStateFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBeverage(t *testing.T) {
	bt, warn := Beverage("wine")
	assert.Equal(t, report.Wine, bt)
	assert.Empty(t, warn)

	bt, warn = Beverage("SPIRITS")
	assert.Equal(t, report.Spirits, bt)
	assert.Empty(t, warn)

	bt, warn = Beverage("Cider")
	assert.Equal(t, report.Unknown, bt)
	assert.Contains(t, warn, "Cider")

	bt, warn = Beverage("")
	assert.Equal(t, report.Unknown, bt)
	assert.Empty(t, warn)
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"25", "25.00", false},
		{"12.5", "12.50", false},
		{"1,234.5", "1234.50", false},
		{"12,345", "12345.00", false},
		{"12,5", "", true},
		{"1,23", "", true},
		{"1234,567", "", true},
		{"12,5 lbs", "", true},
		{"12.5 lbs", "12.50", false},
		{"750ml", "750.00", false},
		{"abc", "", true},
		{"-3", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Decimal(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNumericFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDecimal(got))
		})
	}
}

func TestDecimalCommaMessageNamesLiteral(t *testing.T) {
	_, err := Decimal("12,5")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "12,5", fe.Value)
	assert.Contains(t, fe.Message, "use a period for decimals")
}

func TestCount(t *testing.T) {
	d, err := Count("12")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(12)))

	_, err = Count("12.5")
	assert.True(t, errors.Is(err, ErrNumericFormat))
}

func TestBottlesToLiters(t *testing.T) {
	tests := []struct {
		count, size int64
		want        string
	}{
		{12, 750, "9.00"},
		{6, 750, "4.50"},
		{1, 375, "0.38"},
		{3, 187, "0.56"},
		{1, 1005, "1.01"},
		{0, 750, "0.00"},
	}
	for _, tt := range tests {
		got := BottlesToLiters(decimal.NewFromInt(tt.count), decimal.NewFromInt(tt.size))
		assert.Equal(t, tt.want, FormatDecimal(got), "%d x %d", tt.count, tt.size)
	}
}

func TestTIN(t *testing.T) {
	for _, valid := range []string{"123456789", "000000001", "987654321"} {
		got, err := TIN(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, got, "a valid TIN normalizes to itself")
	}

	got, err := TIN("12-3456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", got)

	for _, invalid := range []string{"12345678", "1234567890", "12345678A", ""} {
		_, err := TIN(invalid)
		require.Error(t, err, invalid)
		assert.True(t, errors.Is(err, ErrNumericFormat))
	}
}

func TestPermitNumber(t *testing.T) {
	got, err := PermitNumber("123456789012345")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345", got)

	got, err = PermitNumber("WI-12345")
	require.NoError(t, err)
	assert.Equal(t, "000000000012345", got)

	_, err = PermitNumber("1234567890123456")
	assert.True(t, errors.Is(err, ErrNumericFormat))

	_, err = PermitNumber("n/a")
	assert.True(t, errors.Is(err, ErrNumericFormat))
}

func TestApply(t *testing.T) {
	got, err := Apply(KindDate, "Jan 15, 2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", got)

	got, err = Apply(KindTracking, " 1Z 999 AA1 ")
	require.NoError(t, err)
	assert.Equal(t, "1Z999AA1", got)

	_, err = Apply(Kind("bogus"), "x")
	assert.Error(t, err)
}

func TestFieldErrorMessage(t *testing.T) {
	_, err := Date("13/45/2024")
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	located := fe.At("shipment_date", 3)

	assert.Equal(t, 3, located.Row)
	assert.Contains(t, located.Error(), "row 3")
	assert.Contains(t, located.Error(), "shipment_date")
	assert.Contains(t, located.Error(), "13/45/2024")
	assert.True(t, errors.Is(located, ErrDateFormat))
}

func TestAddress(t *testing.T) {
	a, err := Address(report.Address{Line1: "123 N. Main St.", City: "Madison", State: "wisconsin", ZIP: "5370"})
	require.NoError(t, err)
	assert.Equal(t, report.Address{Line1: "123 N Main St", City: "Madison", State: "WI", ZIP: "05370"}, a)

	_, err = Address(report.Address{Line1: "1 Main", City: "X", State: "WI", ZIP: "12"})
	require.Error(t, err)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "zip", fe.Field)
}
