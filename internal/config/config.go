// =============================================================================
// WI Excise Shipper XML Form Generator - Configuration Module
// =============================================================================
//
// This module loads and saves the application configuration. One YAML file
// holds both the processing settings and the saved filer / sender records
// that are re-used across reports.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML file (config.yaml)
//   3. WIEXCISE_* environment variables (envconfig)
//
// The filer, consignor and manufacturer sections are plain data. They are
// converted to report types with ToFiler, ToConsignor and ToManufacturer;
// required-field checks happen at generation time, not at load time, so a
// half-filled config can still be loaded and edited.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "WIEXCISE"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole application configuration.
type Config struct {
	Paths        PathsConfig        `yaml:"paths"`
	Report       ReportConfig       `yaml:"report"`
	Filer        FilerConfig        `yaml:"filer"`
	Consignor    PartyConfig        `yaml:"consignor"`
	Manufacturer ManufacturerConfig `yaml:"manufacturer"`
	CSV          CSVSettings        `yaml:"csv"`
	Logging      LoggingConfig      `yaml:"logging"`
	Output       OutputConfig       `yaml:"output"`
	Processing   ProcessingConfig   `yaml:"processing"`
}

// PathsConfig holds the working directories.
type PathsConfig struct {
	// InputDir is scanned by the batch command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated XML files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives input files after a successful batch run.
	// Default: "./input_archive"
	ArchiveDir string `yaml:"archive_dir"`

	// LogDir receives error logs and batch summaries.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// SchemaDir optionally overrides the built-in AB136.xsd / AB137.xsd.
	// Default: "" (use the built-in schemas)
	SchemaDir string `yaml:"schema_dir"`
}

// ReportConfig holds per-report submission defaults.
type ReportConfig struct {
	// DefaultType is used when --type is not given.
	DefaultType string `yaml:"default_type" validate:"omitempty,oneof=CommonCarrier FulfillmentHouse"`

	// AckEmail receives the state's acknowledgement.
	AckEmail string `yaml:"ack_email" validate:"omitempty,email"`
}

// AddressConfig is an address block as stored in YAML.
type AddressConfig struct {
	Line1 string `yaml:"address_line1"`
	Line2 string `yaml:"address_line2,omitempty"`
	City  string `yaml:"city"`
	State string `yaml:"state"`
	ZIP   string `yaml:"zip"`
}

// FilerConfig is the saved filer record.
type FilerConfig struct {
	TINType   string        `yaml:"tin_type" validate:"omitempty,oneof=FEIN SSN"`
	TIN       string        `yaml:"tin_value"`
	StateEIN  string        `yaml:"state_ein,omitempty"`
	NameLine1 string        `yaml:"business_name_line1"`
	NameLine2 string        `yaml:"business_name_line2,omitempty"`
	Address   AddressConfig `yaml:"address"`
}

// PartyConfig is the saved default consignor.
type PartyConfig struct {
	Name         string        `yaml:"name"`
	Address      AddressConfig `yaml:"address"`
	PermitNumber string        `yaml:"permit_number,omitempty"`
}

// ManufacturerConfig is the saved default manufacturer.
type ManufacturerConfig struct {
	Name                      string        `yaml:"name"`
	Address                   AddressConfig `yaml:"address"`
	WinePermitNumber          string        `yaml:"wine_permit_number"`
	CommonCarrierPermitNumber string        `yaml:"common_carrier_permit_number"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields: ",", ";", "|", "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows; multi-row headers are merged.
	// Default: 1
	HeaderRows int `yaml:"header_rows" validate:"min=0,max=10"`

	// Encoding of the input file: UTF-8, Windows-1252 or ISO-8859-1.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" validate:"omitempty,oneof=UTF-8 utf-8 Windows-1252 windows-1252 cp1252 ISO-8859-1 iso-8859-1 latin1"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level: debug, info, warn, error. Default: "info"
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format: json or text. Default: "text"
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`

	// Output: stdout, stderr or file. Default: "stderr"
	Output string `yaml:"output" validate:"omitempty,oneof=stdout stderr file"`

	// FilePath is used when Output is "file".
	FilePath string `yaml:"file_path" validate:"required_if=Output file"`
}

// OutputConfig controls generated file names.
type OutputConfig struct {
	// FileNameFormat defines the output file name.
	// Placeholders:
	//   {report}    - CommonCarrier or FulfillmentHouse
	//   {code}      - AB136 or AB137
	//   {timestamp} - YYYYMMDD_HHMMSS
	//   {uuid}      - A random UUID
	//   {input}     - Input file name without extension
	// Default: "{report}_{timestamp}.xml"
	FileNameFormat string `yaml:"file_name_format"`

	// Indent is the XML indentation string. Default: two spaces.
	Indent *string `yaml:"indent,omitempty"`
}

// ProcessingConfig controls the batch command.
type ProcessingConfig struct {
	// Workers is the number of files processed concurrently. Default: 4
	Workers int `yaml:"workers" validate:"min=1,max=64"`

	// ArchiveInputs moves input files to ArchiveDir after a valid report.
	ArchiveInputs bool `yaml:"archive_inputs"`
}

// envOverrides lists the WIEXCISE_* variables.
type envOverrides struct {
	InputDir   string `envconfig:"INPUT_DIR"`
	OutputDir  string `envconfig:"OUTPUT_DIR"`
	LogDir     string `envconfig:"LOG_DIR"`
	SchemaDir  string `envconfig:"SCHEMA_DIR"`
	ReportType string `envconfig:"REPORT_TYPE"`
	AckEmail   string `envconfig:"ACK_EMAIL"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	LogFormat  string `envconfig:"LOG_FORMAT"`
	Workers    int    `envconfig:"WORKERS"`
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file and applies defaults and environment
// overrides. A missing file is not an error: the defaults are used, so the
// tool works before `config init` has been run.
//
// PARAMETERS:
//   - path: The path to the YAML configuration file.
//
// RETURNS:
//   - The loaded configuration.
//   - An error if the file cannot be parsed or the result is invalid.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read %s_* environment: %w", EnvPrefix, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Paths.InputDir, env.InputDir)
	set(&cfg.Paths.OutputDir, env.OutputDir)
	set(&cfg.Paths.LogDir, env.LogDir)
	set(&cfg.Paths.SchemaDir, env.SchemaDir)
	set(&cfg.Report.DefaultType, env.ReportType)
	set(&cfg.Report.AckEmail, env.AckEmail)
	set(&cfg.Logging.Level, env.LogLevel)
	set(&cfg.Logging.Format, env.LogFormat)
	if env.Workers > 0 {
		cfg.Processing.Workers = env.Workers
	}
	return nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.Paths.InputDir == "" {
		cfg.Paths.InputDir = "./input"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "./output"
	}
	if cfg.Paths.ArchiveDir == "" {
		cfg.Paths.ArchiveDir = "./input_archive"
	}
	if cfg.Paths.LogDir == "" {
		cfg.Paths.LogDir = "./logs"
	}

	if cfg.Filer.TINType == "" {
		cfg.Filer.TINType = report.TINTypeFEIN
	}
	if cfg.Filer.Address.State == "" {
		cfg.Filer.Address.State = "WI"
	}
	if cfg.Consignor.Address.State == "" {
		cfg.Consignor.Address.State = "WI"
	}
	if cfg.Manufacturer.Address.State == "" {
		cfg.Manufacturer.Address.State = "WI"
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.HeaderRows == 0 {
		cfg.CSV.HeaderRows = 1
	}
	if cfg.CSV.Encoding == "" {
		cfg.CSV.Encoding = "UTF-8"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Output.FileNameFormat == "" {
		cfg.Output.FileNameFormat = "{report}_{timestamp}.xml"
	}
	if cfg.Processing.Workers == 0 {
		cfg.Processing.Workers = 4
	}
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (a AddressConfig) toReport() report.Address {
	return report.Address{Line1: a.Line1, Line2: a.Line2, City: a.City, State: a.State, ZIP: a.ZIP}
}

// ToFiler returns the saved filer as a report.FilerInfo.
func (c *Config) ToFiler() report.FilerInfo {
	return report.FilerInfo{
		TINType:   c.Filer.TINType,
		TIN:       c.Filer.TIN,
		StateEIN:  c.Filer.StateEIN,
		NameLine1: c.Filer.NameLine1,
		NameLine2: c.Filer.NameLine2,
		Address:   c.Filer.Address.toReport(),
	}
}

// ToConsignor returns the saved default consignor.
func (c *Config) ToConsignor() *report.Consignor {
	return &report.Consignor{
		Name:         c.Consignor.Name,
		Address:      c.Consignor.Address.toReport(),
		PermitNumber: c.Consignor.PermitNumber,
	}
}

// ToManufacturer returns the saved default manufacturer.
func (c *Config) ToManufacturer() *report.Manufacturer {
	return &report.Manufacturer{
		Name:                      c.Manufacturer.Name,
		Address:                   c.Manufacturer.Address.toReport(),
		WinePermitNumber:          c.Manufacturer.WinePermitNumber,
		CommonCarrierPermitNumber: c.Manufacturer.CommonCarrierPermitNumber,
	}
}

// DefaultParty returns the saved sender for rt.
func (c *Config) DefaultParty(rt report.ReportType) (report.DefaultParty, error) {
	switch rt {
	case report.CommonCarrier:
		return c.ToConsignor(), nil
	case report.FulfillmentHouse:
		return c.ToManufacturer(), nil
	}
	return nil, fmt.Errorf("no default party for report type %v", rt)
}

// IndentString returns the configured XML indent.
func (c *Config) IndentString() string {
	if c.Output.Indent == nil {
		return "  "
	}
	return *c.Output.Indent
}
