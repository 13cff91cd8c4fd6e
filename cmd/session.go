package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/assembler"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/mapper"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/normalize"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/pkg/utils"
)

// periodFlags are the tax period options shared by generate and batch.
type periodFlags struct {
	begin    string
	end      string
	ackEmail string
	amended  bool
}

// resolveType parses the --type flag, falling back to the configured default.
func resolveType(flag string) (report.ReportType, error) {
	if flag == "" {
		flag = appConfig.Report.DefaultType
	}
	if flag == "" {
		return 0, errors.New("no report type: pass --type CommonCarrier|FulfillmentHouse or set report.default_type")
	}
	return report.ParseReportType(flag)
}

// taxPeriod normalizes the period flags. Dates may be given in any form the
// date normalizer accepts; empty values are left for the required-field check.
func (p periodFlags) taxPeriod() (report.TaxPeriod, error) {
	period := report.TaxPeriod{AckEmail: p.ackEmail, Amended: p.amended}
	if period.AckEmail == "" {
		period.AckEmail = appConfig.Report.AckEmail
	}

	var err error
	if p.begin != "" {
		if period.Begin, err = normalize.Date(p.begin); err != nil {
			return period, fmt.Errorf("--begin: %w", err)
		}
	}
	if p.end != "" {
		if period.End, err = normalize.Date(p.end); err != nil {
			return period, fmt.Errorf("--end: %w", err)
		}
	}
	return period, nil
}

// session is one input file on its way to a report. Sessions never share
// shipments, so batch runs them concurrently.
type session struct {
	conv   *converter.Converter
	fm     *utils.FileManager
	rt     report.ReportType
	period report.TaxPeriod
	dryRun bool
	log    *slog.Logger

	// stdin is read when the input is "-"; stdinName stands in for its
	// file name and selects the format by extension.
	stdin     io.Reader
	stdinName string
}

// stdinInput is the input path that reads standard input.
const stdinInput = "-"

// fileResult is the outcome of one session.
type fileResult struct {
	Input      string
	OutputFile string
	ErrorLog   string
	Import     *assembler.Result
	Outcome    *converter.Outcome
	Err        error
	Duration   time.Duration
}

// Succeeded reports whether a valid report was produced.
func (r *fileResult) Succeeded() bool {
	return r.Err == nil && r.Outcome != nil && r.Outcome.State == converter.Valid
}

// run imports, generates, validates and writes one report.
func (s *session) run(ctx context.Context, input string) *fileResult {
	start := time.Now()
	res := &fileResult{Input: input}
	if input == stdinInput {
		res.Input = s.stdinName
	}
	defer func() { res.Duration = time.Since(start) }()

	log := s.log.With("file", filepath.Base(res.Input))

	party, err := appConfig.DefaultParty(s.rt)
	if err != nil {
		res.Err = err
		return res
	}

	// =========================================================================
	// STEP 1: IMPORT
	// =========================================================================

	var imported *assembler.Result
	if input == stdinInput {
		imported, err = s.conv.ImportReader(s.stdin, s.stdinName, s.rt, party)
	} else {
		imported, err = s.conv.Import(input, s.rt, party)
	}
	if err != nil {
		res.Err = err
		s.writeErrorLog(res)
		return res
	}
	res.Import = imported
	log.InfoContext(ctx, "imported shipments",
		"imported", imported.Imported,
		"skipped", imported.Skipped,
		"warnings", len(imported.Warnings))

	if imported.Imported == 0 {
		res.Err = fmt.Errorf("no shipments imported from %s (%d rows skipped)", filepath.Base(res.Input), imported.Skipped)
		s.writeErrorLog(res)
		return res
	}

	// =========================================================================
	// STEP 2: GENERATE AND VALIDATE
	// =========================================================================

	outcome, err := s.conv.Run(converter.Request{
		Type:      s.rt,
		Filer:     appConfig.ToFiler(),
		Period:    s.period,
		Default:   party,
		Shipments: imported.Shipments,
	})
	if err != nil {
		res.Err = err
		s.writeErrorLog(res)
		return res
	}
	res.Outcome = outcome

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	name := utils.GenerateOutputFileName(appConfig.Output.FileNameFormat, map[string]string{
		"report": s.rt.String(),
		"code":   s.rt.SchemaCode(),
		"input":  utils.InputBaseName(res.Input),
	})
	if outcome.State == converter.Invalid {
		name = utils.InvalidFileName(name)
	}
	res.OutputFile = filepath.Join(s.fm.OutputDir, name)

	if s.dryRun {
		log.InfoContext(ctx, "dry run, nothing written", "state", outcome.State.String())
		return res
	}
	written, err := utils.WriteNewFileAtomic(res.OutputFile, outcome.XML)
	if err != nil {
		res.Err = err
		return res
	}
	res.OutputFile = written
	s.writeErrorLog(res)
	log.InfoContext(ctx, "wrote report", "output", res.OutputFile, "state", outcome.State.String())
	return res
}

// writeErrorLog records row errors, blocking errors and the schema violation.
func (s *session) writeErrorLog(res *fileResult) {
	if s.dryRun {
		return
	}
	now := time.Now()
	file := filepath.Base(res.Input)

	var entries []utils.ErrorLogEntry
	if res.Import != nil {
		for _, fe := range res.Import.Errors {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     file,
				ErrorType:    fe.Kind.Error(),
				ErrorMessage: fe.Message,
				RowNumber:    fe.Row,
				FieldName:    fe.Field,
				FieldValue:   fe.Value,
			})
		}
	}
	if res.Err != nil {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     file,
			ErrorType:    errorType(res.Err),
			ErrorMessage: res.Err.Error(),
		})
	}
	if res.Outcome != nil && res.Outcome.Error != nil {
		verr := res.Outcome.Error
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     file,
			ErrorType:    "SchemaValidationError",
			ErrorMessage: verr.Reason,
			FieldName:    verr.Path,
			FieldValue:   verr.Value,
			Detail:       verr.Detail(),
		})
	}

	path, err := utils.WriteErrorLog(entries, s.fm.LogDir, utils.InputBaseName(res.Input))
	if err != nil {
		s.log.Warn("failed to write error log", "error", err)
		return
	}
	res.ErrorLog = path
}

// errorType names the error category shown in logs and summaries.
func errorType(err error) string {
	var (
		missing *converter.MissingRequiredFieldError
		empty   *mapper.EmptyHeaderError
	)
	switch {
	case errors.As(err, &missing):
		return "MissingRequiredFieldError"
	case errors.As(err, &empty):
		return "EmptyHeaderError"
	}
	return "Error"
}

// printImport writes the import summary of an interactive run.
func printImport(w func(format string, args ...any), r *assembler.Result) {
	w("Imported %d shipment(s), skipped %d row(s)\n", r.Imported, r.Skipped)
	for _, skip := range r.Skips {
		w("  row %d skipped: %s\n", skip.Row, skip.Reason)
	}
	for _, fe := range r.Errors {
		w("  %s\n", fe.Error())
	}
	if len(r.Warnings) > 0 {
		w("Warnings:\n")
		for _, warning := range r.Warnings {
			w("  - %s\n", strings.TrimSpace(warning))
		}
	}
}
