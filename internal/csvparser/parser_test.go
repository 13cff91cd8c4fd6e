package csvparser

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/config"
)

var defaults = config.CSVSettings{Delimiter: ",", HeaderRows: 1, Encoding: "UTF-8"}

const commonCarrierCSV = `Ship To Company,Ship To Street,Ship To City,Ship To State,Ship To Zip,Tracking Nos,Order Date,LB,TYPE
John Doe,456 Oak Ave.,Milwaukee,WI,53202,1Z999AA10123456784,1/15/2024,25,Wine
Jane Roe,"12 N. Main St, Apt 3",Madison,WI,5370,1Z999AA10123456785,Jan 16 2024,12.5,Beer
`

func TestParseString(t *testing.T) {
	table, err := ParseString(commonCarrierCSV, "sample.csv", defaults)
	require.NoError(t, err)

	assert.Equal(t, "sample.csv", table.Source)
	assert.Len(t, table.Headers, 9)
	require.Equal(t, 2, table.Len())

	first := table.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, "John Doe", first.Get("Ship To Company"))
	assert.Equal(t, "Wine", first.Get("TYPE"))

	assert.Equal(t, "12 N. Main St, Apt 3", table.Rows[1].Get("Ship To Street"))
	assert.Equal(t, 3, table.Rows[1].Number)
}

func TestParseSkipsBlankRowsAndPadsShortRows(t *testing.T) {
	text := "\n,,\nName,City,Zip\nA,Madison\n,,\nB,Milwaukee,53202,extra\n"
	table, err := ParseString(text, "ragged.csv", defaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "City", "Zip"}, table.Headers)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "", table.Rows[0].Get("Zip"))
	assert.Equal(t, 3, table.Rows[0].Number, "row numbers count records, blank lines are not records")
	assert.Equal(t, "53202", table.Rows[1].Get("Zip"))
}

func TestParseCleansHeaders(t *testing.T) {
	text := "\ufeffName, ,Name\nA,B,C\n"
	table, err := ParseString(text, "bom.csv", defaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Column_2", "Name_2"}, table.Headers)
	assert.Equal(t, "C", table.Rows[0].Get("Name_2"))
}

func TestParseEmptyInput(t *testing.T) {
	for _, text := range []string{"", "\n\n", " , , \n"} {
		table, err := ParseString(text, "empty.csv", defaults)
		require.NoError(t, err)
		assert.Empty(t, table.Headers)
		assert.Zero(t, table.Len())
	}
}

func TestParseDelimiters(t *testing.T) {
	tests := []struct {
		delim string
		text  string
	}{
		{"tab", "Name\tCity\nA\tMadison\n"},
		{"pipe", "Name|City\nA|Madison\n"},
		{";", "Name;City\nA;Madison\n"},
	}
	for _, tt := range tests {
		t.Run(tt.delim, func(t *testing.T) {
			settings := defaults
			settings.Delimiter = tt.delim
			table, err := ParseString(tt.text, "d.csv", settings)
			require.NoError(t, err)
			assert.Equal(t, "Madison", table.Rows[0].Get("City"))
		})
	}
}

func TestParseMultiRowHeader(t *testing.T) {
	settings := defaults
	settings.HeaderRows = 2
	text := "Ship To,,Order\nCompany,Street,Date\nA,1 Main,1/15/2024\n"
	table, err := ParseString(text, "multi.csv", settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ship To Company", "Street", "Order Date"}, table.Headers)
	assert.Equal(t, "1/15/2024", table.Rows[0].Get("Order Date"))
}

func TestParseWindows1252(t *testing.T) {
	// "Café" with é encoded as 0xE9.
	raw := []byte("Name,City\nCaf\xe9 Wines,Madison\n")

	settings := defaults
	settings.Encoding = "Windows-1252"
	table, err := ParseReader(bytes.NewReader(raw), "cp1252.csv", settings)
	require.NoError(t, err)
	assert.Equal(t, "Café Wines", table.Rows[0].Get("Name"))

	settings.Encoding = "EBCDIC"
	_, err = ParseReader(bytes.NewReader(raw), "x.csv", settings)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipments.csv")
	require.NoError(t, os.WriteFile(path, []byte(commonCarrierCSV), 0o644))

	table, err := Parse(path, defaults)
	require.NoError(t, err)
	assert.Equal(t, path, table.Source)
	assert.Equal(t, 2, table.Len())

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), defaults)
	assert.Error(t, err)
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, []string{"Ship To Company", "Order Date"}))
	assert.Equal(t, "Ship To Company,Order Date\n", buf.String())
}
