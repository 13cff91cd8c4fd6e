// =============================================================================
// WI Excise Shipper XML Form Generator - Converter Module
// =============================================================================
//
// This module contains the generate-and-validate pipeline. It orchestrates
// one report from imported rows to a validated XML document.
//
// CONVERSION PIPELINE:
//   1. Import a CSV, XLSX or YAML/JSON shipments file (Import)
//   2. Check that every required filer, period and sender field is present
//   3. Generate the XML document
//   4. Validate the document against the schema of the report type
//
// OUTCOMES:
//   Run ends in exactly one of two states. Valid returns the document.
//   Invalid returns the document together with the first schema violation,
//   so the caller can still inspect and save the rejected output. Missing
//   required fields stop the pipeline before step 3.
//
// CONCURRENCY:
//   A Converter holds only immutable state (the schema registry and
//   options). Requests carry their own shipments, so one Converter can
//   serve many sessions concurrently.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/assembler"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/config"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/csvparser"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/logging"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/sheet"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/validation"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/xlsxparser"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/xmlwriter"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// State is the terminal state of a generate-and-validate run.
type State int

const (
	Valid State = iota
	Invalid
)

func (s State) String() string {
	if s == Valid {
		return "Valid"
	}
	return "Invalid"
}

// Outcome is the result of Run.
type Outcome struct {
	State State

	// XML is the generated document, returned in both states.
	XML []byte

	// Error is the first schema violation. It is nil when State is Valid.
	Error *validation.SchemaValidationError

	// Duration is the time taken by generation and validation.
	Duration time.Duration
}

// Request is everything needed to produce one report.
type Request struct {
	Type      report.ReportType
	Filer     report.FilerInfo
	Period    report.TaxPeriod
	Default   report.DefaultParty
	Shipments []report.Shipment
}

// Report returns the report described by the request.
func (r Request) Report() *report.Report {
	return &report.Report{Type: r.Type, Filer: r.Filer, Period: r.Period, Shipments: r.Shipments}
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline.
type Converter struct {
	// Registry holds the compiled schemas.
	Registry *validation.Registry

	// Options controls XML formatting.
	Options xmlwriter.GenerateOptions

	// CSV holds the reader settings for Import.
	CSV config.CSVSettings

	// Sheet names the worksheet read from XLSX imports. Empty reads the
	// first sheet.
	Sheet string

	// Logger is used for logging. Optional.
	Logger *slog.Logger
}

// New creates a Converter from the application configuration.
//
// PARAMETERS:
//   - cfg: The loaded configuration. Paths.SchemaDir selects replacement
//     schemas; empty uses the built-in ones.
//   - logger: The logger to use.
//
// RETURNS:
//   - A new Converter instance.
//   - An error if a schema cannot be compiled.
func New(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	var (
		reg *validation.Registry
		err error
	)
	if cfg.Paths.SchemaDir == "" {
		reg, err = validation.Embedded()
	} else {
		reg, err = validation.LoadRegistry(cfg.Paths.SchemaDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	opts := xmlwriter.DefaultGenerateOptions()
	opts.Indent = cfg.IndentString()

	return &Converter{
		Registry: reg,
		Options:  opts,
		CSV:      cfg.CSV,
		Logger:   logger,
	}, nil
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run generates and validates one report.
//
// RETURNS:
//   - The outcome, Valid or Invalid.
//   - A *MissingRequiredFieldError if generation cannot be attempted, or an
//     error if the request itself is malformed (mixed shipment variants).
func (c *Converter) Run(req Request) (*Outcome, error) {
	start := time.Now()
	log := c.logger().With("report_type", req.Type.String())

	// =========================================================================
	// STEP 1: REQUIRED FIELDS
	// =========================================================================

	if missing := CheckRequired(req.Filer, req.Period, req.Default, req.Shipments); missing != nil {
		log.Warn("required fields missing", "fields", missing.Fields, "problems", missing.Problems)
		return nil, missing
	}

	// =========================================================================
	// STEP 2: GENERATE
	// =========================================================================

	doc, err := xmlwriter.GenerateWithOptions(req.Report(), c.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to generate XML: %w", err)
	}
	log.Debug("generated XML document", "bytes", len(doc), "shipments", len(req.Shipments))

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	verr, err := c.Registry.Validate(req.Type, doc)
	if err != nil {
		return nil, err
	}

	out := &Outcome{State: Valid, XML: doc, Duration: time.Since(start)}
	if verr != nil {
		out.State = Invalid
		out.Error = verr
		log.Warn("schema validation failed",
			"element", verr.Element,
			"line", verr.Line,
			"value", verr.Value,
			"reason", verr.Reason)
		return out, nil
	}

	log.Info("report is valid", "shipments", len(req.Shipments), "duration", out.Duration)
	return out, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// Import reads a CSV or XLSX file, or a YAML/JSON list of shipment records,
// and assembles its shipments.
//
// PARAMETERS:
//   - path: The input file.
//   - rt: The report type to assemble.
//   - party: The default consignor or manufacturer.
func (c *Converter) Import(path string, rt report.ReportType, party report.DefaultParty) (*assembler.Result, error) {
	if IsEntryFile(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return c.importEntries(f, path, rt, party)
	}
	table, err := c.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return c.assemble(table, rt, party)
}

// ReadTable parses an input file without assembling it. The extension
// selects the reader: .xlsx and .xlsm are read as workbooks, anything else
// as CSV.
func (c *Converter) ReadTable(path string) (*sheet.Table, error) {
	if IsWorkbook(path) {
		return xlsxparser.Parse(path, xlsxparser.Options{SheetName: c.Sheet})
	}
	return csvparser.Parse(path, c.CSV)
}

// ImportReader is Import for piped or uploaded content. name supplies the
// extension and the source shown in messages.
func (c *Converter) ImportReader(r io.Reader, name string, rt report.ReportType, party report.DefaultParty) (*assembler.Result, error) {
	if IsEntryFile(name) {
		return c.importEntries(r, name, rt, party)
	}
	var (
		table *sheet.Table
		err   error
	)
	if IsWorkbook(name) {
		table, err = xlsxparser.ParseReader(r, name, xlsxparser.Options{SheetName: c.Sheet})
	} else {
		table, err = csvparser.ParseReader(r, name, c.CSV)
	}
	if err != nil {
		return nil, err
	}
	return c.assemble(table, rt, party)
}

// importEntries reads a YAML or JSON list of shipment records. JSON goes
// through the YAML decoder, which accepts it unchanged.
func (c *Converter) importEntries(r io.Reader, name string, rt report.ReportType, party report.DefaultParty) (*assembler.Result, error) {
	var entries []map[string]string
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse shipments in %s: expected a list of field: value records: %w", name, err)
	}
	a := &assembler.Assembler{Type: rt, Default: party, Logger: c.logger()}
	return a.AssembleEntries(name, entries)
}

func (c *Converter) assemble(table *sheet.Table, rt report.ReportType, party report.DefaultParty) (*assembler.Result, error) {
	a := &assembler.Assembler{Type: rt, Default: party, Logger: c.logger()}
	return a.Assemble(table)
}

// IsEntryFile reports whether path names a YAML or JSON shipments list.
func IsEntryFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// IsWorkbook reports whether path names an Excel workbook.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}
