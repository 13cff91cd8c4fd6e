package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

const sampleYAML = `
report:
  default_type: FulfillmentHouse
  ack_email: excise@example.com
filer:
  tin_value: "123456789"
  business_name_line1: Test Company
  address:
    address_line1: 123 Main St
    city: Madison
    zip: "53703"
manufacturer:
  name: Test Winery
  address:
    address_line1: 1 Vineyard Rd
    city: Sonoma
    state: CA
    zip: "95476"
  wine_permit_number: "123456789012345"
  common_carrier_permit_number: "987654321098765"
processing:
  workers: 2
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "FulfillmentHouse", cfg.Report.DefaultType)
	assert.Equal(t, 2, cfg.Processing.Workers)
	assert.Equal(t, "./output", cfg.Paths.OutputDir)
	assert.Equal(t, "{report}_{timestamp}.xml", cfg.Output.FileNameFormat)
	assert.Equal(t, "  ", cfg.IndentString())

	filer := cfg.ToFiler()
	assert.Equal(t, report.TINTypeFEIN, filer.TINType, "TIN type defaults to FEIN")
	assert.Equal(t, "WI", filer.Address.State, "filer state defaults to WI")
	assert.Equal(t, "123456789", filer.TIN)

	m := cfg.ToManufacturer()
	assert.Equal(t, "CA", m.Address.State)
	assert.Equal(t, "987654321098765", m.CommonCarrierPermitNumber)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WIEXCISE_OUTPUT_DIR", "/tmp/reports")
	t.Setenv("WIEXCISE_ACK_EMAIL", "override@example.com")
	t.Setenv("WIEXCISE_WORKERS", "8")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/reports", cfg.Paths.OutputDir)
	assert.Equal(t, "override@example.com", cfg.Report.AckEmail)
	assert.Equal(t, 8, cfg.Processing.Workers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad log level", "logging:\n  level: loud\n", "Logging.Level"},
		{"bad email", "report:\n  ack_email: nope\n", "Report.AckEmail"},
		{"bad tin type", "filer:\n  tin_type: ITIN\n", "Filer.TINType"},
		{"file output without path", "logging:\n  output: file\n", "Logging.FilePath"},
		{"malformed yaml", "report: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	require.NoError(t, cfg.Set("consignor.name", "Acme Distributing"))
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme Distributing", loaded.ToConsignor().Name)
	assert.Equal(t, cfg.ToFiler(), loaded.ToFiler())
}

func TestSetAndGet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("filer.tin_value", "123456789"))
	got, err := cfg.Get("filer.tin_value")
	require.NoError(t, err)
	assert.Equal(t, "123456789", got)

	err = cfg.Set("report.ack_email", "not-an-email")
	require.Error(t, err)
	assert.Empty(t, cfg.Report.AckEmail, "failed set restores the old value")

	assert.Error(t, cfg.Set("filer.favorite_color", "blue"))
	_, err = cfg.Get("nope")
	assert.Error(t, err)
	assert.Contains(t, cfg.Keys(), "manufacturer.wine_permit_number")
}

func TestDefaultParty(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	p, err := cfg.DefaultParty(report.FulfillmentHouse)
	require.NoError(t, err)
	assert.IsType(t, &report.Manufacturer{}, p)

	p, err = cfg.DefaultParty(report.CommonCarrier)
	require.NoError(t, err)
	assert.IsType(t, &report.Consignor{}, p)

	_, err = cfg.DefaultParty(report.ReportType(0))
	assert.Error(t, err)
}
