package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/config"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/logging"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report/reporttest"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/pkg/utils"
)

const carrierCSV = `Ship To Company,Ship To Street,Ship To City,Ship To State,Ship To Zip,Tracking Nos,Order Date,LB,TYPE
John Doe,456 Oak Ave.,Milwaukee,WI,53202,1Z999AA10123456784,1/15/2024,25,Wine
Jane Roe,12 N Main St,Madison,WI,53703,1Z999AA10123456785,13/45/2024,12.5,Beer
`

// testConfig returns a complete configuration rooted in a temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(root, "input")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.ArchiveDir = filepath.Join(root, "archive")
	cfg.Paths.LogDir = filepath.Join(root, "logs")

	filer := reporttest.Filer()
	cfg.Filer = config.FilerConfig{
		TINType:   filer.TINType,
		TIN:       filer.TIN,
		NameLine1: filer.NameLine1,
		Address: config.AddressConfig{
			Line1: filer.Address.Line1, City: filer.Address.City,
			State: filer.Address.State, ZIP: filer.Address.ZIP,
		},
	}
	c := reporttest.Consignor()
	cfg.Consignor = config.PartyConfig{
		Name: c.Name,
		Address: config.AddressConfig{
			Line1: c.Address.Line1, City: c.Address.City,
			State: c.Address.State, ZIP: c.Address.ZIP,
		},
		PermitNumber: c.PermitNumber,
	}
	cfg.Report.AckEmail = "reports@badgerfreight.com"
	return cfg
}

func newSession(t *testing.T, cfg *config.Config) *session {
	t.Helper()
	appConfig, logger = cfg, logging.Discard()

	conv, err := converter.New(cfg, logger)
	require.NoError(t, err)
	fm := utils.NewFileManager(cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir)
	require.NoError(t, fm.EnsureDirectories())

	return &session{
		conv:   conv,
		fm:     fm,
		rt:     report.CommonCarrier,
		period: reporttest.Period(),
		log:    logger,
	}
}

func writeInput(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestSessionWritesValidReport(t *testing.T) {
	cfg := testConfig(t)
	s := newSession(t, cfg)
	input := writeInput(t, cfg.Paths.InputDir, "q1.csv", carrierCSV)

	res := s.run(context.Background(), input)
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 1, res.Import.Imported)
	assert.Equal(t, 1, res.Import.Skipped)
	assert.False(t, strings.HasSuffix(res.OutputFile, ".invalid.xml"))

	data, err := os.ReadFile(res.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<CommonCarrier")

	// The skipped row still lands in the error log.
	require.NotEmpty(t, res.ErrorLog)
	logText, err := os.ReadFile(res.ErrorLog)
	require.NoError(t, err)
	assert.Contains(t, string(logText), "DateFormatError")
	assert.Contains(t, string(logText), "13/45/2024")
}

func TestSessionWritesInvalidReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Filer.Address.ZIP = "537"
	s := newSession(t, cfg)
	input := writeInput(t, cfg.Paths.InputDir, "q1.csv", carrierCSV)

	res := s.run(context.Background(), input)
	require.NoError(t, res.Err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, converter.Invalid, res.Outcome.State)
	assert.True(t, strings.HasSuffix(res.OutputFile, ".invalid.xml"))
	assert.FileExists(t, res.OutputFile)

	logText, err := os.ReadFile(res.ErrorLog)
	require.NoError(t, err)
	assert.Contains(t, string(logText), "SchemaValidationError")
	assert.Contains(t, string(logText), "filer.zip")
}

func TestSessionStopsOnMissingFields(t *testing.T) {
	cfg := testConfig(t)
	cfg.Filer.TIN = ""
	s := newSession(t, cfg)
	input := writeInput(t, cfg.Paths.InputDir, "q1.csv", carrierCSV)

	res := s.run(context.Background(), input)
	var missing *converter.MissingRequiredFieldError
	require.True(t, errors.As(res.Err, &missing))
	assert.Contains(t, missing.Fields, "filer.tin_value")
	assert.Empty(t, res.OutputFile)
	assert.Equal(t, "MissingRequiredFieldError", errorType(res.Err))
}

func TestSessionDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	s := newSession(t, cfg)
	s.dryRun = true
	input := writeInput(t, cfg.Paths.InputDir, "q1.csv", carrierCSV)

	res := s.run(context.Background(), input)
	require.NoError(t, res.Err)
	assert.NotEmpty(t, res.OutputFile)
	assert.NoFileExists(t, res.OutputFile)
	assert.Empty(t, res.ErrorLog)
}

func TestSessionFailsOnEmptyImport(t *testing.T) {
	cfg := testConfig(t)
	s := newSession(t, cfg)
	input := writeInput(t, cfg.Paths.InputDir, "empty.csv", "Ship To Company,Order Date\n")

	res := s.run(context.Background(), input)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no shipments imported")
}

func TestResolveType(t *testing.T) {
	appConfig = config.Default()

	_, err := resolveType("")
	assert.Error(t, err)

	rt, err := resolveType("fh")
	require.NoError(t, err)
	assert.Equal(t, report.FulfillmentHouse, rt)

	appConfig.Report.DefaultType = "CommonCarrier"
	rt, err = resolveType("")
	require.NoError(t, err)
	assert.Equal(t, report.CommonCarrier, rt)
}

func TestTaxPeriodFlags(t *testing.T) {
	appConfig = config.Default()
	appConfig.Report.AckEmail = "saved@example.com"

	p, err := periodFlags{begin: "01/01/2024", end: "2024-03-31"}.taxPeriod()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", p.Begin)
	assert.Equal(t, "2024-03-31", p.End)
	assert.Equal(t, "saved@example.com", p.AckEmail)

	_, err = periodFlags{begin: "13/45/2024"}.taxPeriod()
	assert.ErrorContains(t, err, "--begin")
}

func TestBatchCommand(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))
	require.NoError(t, os.MkdirAll(cfg.Paths.InputDir, 0o755))
	writeInput(t, cfg.Paths.InputDir, "a.csv", carrierCSV)
	writeInput(t, cfg.Paths.InputDir, "b.csv", "Notes\nnothing here\n")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"batch", "--config", cfgPath, "--type", "cc",
		"--begin", "2024-01-01", "--end", "2024-03-31", "--archive"})
	err := rootCmd.ExecuteContext(context.Background())

	// b.csv has no usable rows, so the run reports one failure.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out.String(), "✓ a.csv")
	assert.Contains(t, out.String(), "✗ b.csv")
	assert.FileExists(t, filepath.Join(cfg.Paths.ArchiveDir, "a.csv"))
	assert.FileExists(t, filepath.Join(cfg.Paths.InputDir, "b.csv"))

	summaries, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestBatchCommandKeepsEveryReport(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))
	require.NoError(t, os.MkdirAll(cfg.Paths.InputDir, 0o755))
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		writeInput(t, cfg.Paths.InputDir, name, carrierCSV)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"batch", "--config", cfgPath, "--type", "cc",
		"--begin", "2024-01-01", "--end", "2024-03-31", "--workers", "3", "--archive"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	reports, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "*.xml"))
	require.NoError(t, err)
	assert.Len(t, reports, 3, "one report per input even within the same second")

	archived, err := filepath.Glob(filepath.Join(cfg.Paths.ArchiveDir, "*.csv"))
	require.NoError(t, err)
	assert.Len(t, archived, 3)
}

func TestGenerateReadsStdin(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(carrierCSV))
	rootCmd.SetArgs([]string{"generate", "--config", cfgPath, "--type", "cc", "--input", "-",
		"--input-format", "csv", "--begin", "2024-01-01", "--end", "2024-03-31"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Imported 1 shipment(s), skipped 1 row(s)")

	reports, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "*.xml"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	data, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "<CommonCarrier")

	logs, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "*stdin*"))
	require.NoError(t, err)
	assert.NotEmpty(t, logs, "row errors are logged under the stdin name")
}

func TestGenerateReadsShipmentsFile(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))
	input := writeInput(t, t.TempDir(), "manual.yaml", `
- Ship To Company: John Doe
  consignee_address_line1: 456 Oak Ave.
  consignee_city: Milwaukee
  consignee_state: WI
  consignee_zip: "53202"
  tracking_number: 1Z999AA10123456784
  shipment_date: 1/15/2024
  weight_of_beverages: 25
  beverage_type: Wine
  gift_note: Happy birthday
`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "--config", cfgPath, "--type", "cc", "--input", input,
		"--input-format", "csv", "--begin", "2024-01-01", "--end", "2024-03-31"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Imported 1 shipment(s), skipped 0 row(s)")
	assert.Contains(t, out.String(), `row 1: unknown field "gift_note" ignored`)

	reports, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "*.xml"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestStdinName(t *testing.T) {
	name, err := stdinName(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, "stdin.xlsx", name)

	_, err = stdinName("ods")
	assert.ErrorContains(t, err, "--input-format")
}
