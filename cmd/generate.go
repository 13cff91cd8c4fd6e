// =============================================================================
// WI Excise Shipper XML Form Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which turns one input file into
// one report.
//
// COMMAND USAGE:
//   wiexcise generate --input FILE [flags]
//   wiexcise generate --input - --input-format csv [flags] < FILE
//
// FLAGS:
//   --type       : CommonCarrier (cc, AB136) or FulfillmentHouse (fh, AB137)
//   --input      : CSV, XLSX or YAML/JSON shipments file; "-" reads stdin
//   --input-format : Format of stdin: csv, xlsx, yaml or json (default: csv)
//   --begin      : First day of the tax period
//   --end        : Last day of the tax period
//   --ack-email  : Acknowledgement address (default: report.ack_email)
//   --amended    : Mark the report as an amended return
//   --output     : Output directory (default: paths.output_dir)
//   --sheet      : Worksheet to read from an XLSX file
//   --dry-run    : Generate and validate without writing files
//
// PROCESSING PIPELINE:
//   1. Import the file into shipments
//   2. Check required filer, period and sender fields
//   3. Generate the XML
//   4. Validate it against the schema
//   5. Write the report (".invalid.xml" when validation fails)
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	genType   string
	genInput  string
	genOutput string
	genSheet  string
	genFormat string
	genDryRun bool
	genPeriod periodFlags
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and validate one report from a CSV, XLSX or shipments file",
	Long: `The generate command imports a shipment list, builds the AB136 or AB137
report and validates it against the built-in schema.

Besides CSV and XLSX exports, the input may be a YAML or JSON list of
shipments entered by hand, one "field: value" record per shipment. Keys are
field names (consignee_name) or column headers (Ship To Company). With
--input - the list is read from standard input.

Rows that cannot be normalized (bad dates, ZIP codes, weights) are skipped
and listed. The filer, default consignor and default manufacturer come from
the configuration file.

On a schema violation the report is still written, with an .invalid.xml
suffix, and the first problem is explained together with how to fix it.`,
	Example: `  wiexcise generate --type cc --input q1.csv --begin 2024-01-01 --end 2024-03-31
  wiexcise generate --type fh --input orders.xlsx --sheet Q1 --begin 01/01/2024 --end 03/31/2024 --dry-run
  wiexcise generate --type cc --input manual.yaml --begin 2024-01-01 --end 2024-03-31
  export-orders | wiexcise generate --type cc --input - --input-format csv --begin 2024-01-01 --end 2024-03-31`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVarP(&genType, "type", "t", "", "Report type: CommonCarrier|cc|AB136 or FulfillmentHouse|fh|AB137")
	f.StringVarP(&genInput, "input", "i", "", `CSV, XLSX or YAML/JSON shipments file to import ("-" reads stdin)`)
	f.StringVar(&genFormat, "input-format", "csv", "Format of stdin: csv, xlsx, yaml or json")
	f.StringVar(&genPeriod.begin, "begin", "", "First day of the tax period")
	f.StringVar(&genPeriod.end, "end", "", "Last day of the tax period")
	f.StringVar(&genPeriod.ackEmail, "ack-email", "", "Acknowledgement e-mail (default: report.ack_email)")
	f.BoolVar(&genPeriod.amended, "amended", false, "Mark the report as amended")
	f.StringVarP(&genOutput, "output", "o", "", "Output directory (default: paths.output_dir)")
	f.StringVar(&genSheet, "sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
	f.BoolVar(&genDryRun, "dry-run", false, "Generate and validate without writing files")

	generateCmd.MarkFlagRequired("input")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(ctx context.Context, cmd *cobra.Command) error {
	out := func(format string, args ...any) { fmt.Fprintf(cmd.OutOrStdout(), format, args...) }

	rt, err := resolveType(genType)
	if err != nil {
		return err
	}
	period, err := genPeriod.taxPeriod()
	if err != nil {
		return err
	}

	conv, err := converter.New(appConfig, logger)
	if err != nil {
		return err
	}
	conv.Sheet = genSheet

	outDir := appConfig.Paths.OutputDir
	if genOutput != "" {
		outDir = genOutput
	}
	fm := utils.NewFileManager("", outDir, "", appConfig.Paths.LogDir)
	if !genDryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	s := &session{conv: conv, fm: fm, rt: rt, period: period, dryRun: genDryRun, log: logger}
	if genInput == stdinInput {
		name, err := stdinName(genFormat)
		if err != nil {
			return err
		}
		s.stdin, s.stdinName = cmd.InOrStdin(), name
	}
	res := s.run(ctx, genInput)

	out("=== %s report (%s) ===\n", rt, rt.SchemaCode())
	if res.Import != nil {
		printImport(out, res.Import)
	}

	if res.Err != nil {
		var missing *converter.MissingRequiredFieldError
		if errors.As(res.Err, &missing) {
			out("\nThe report cannot be generated until these are filled in:\n")
			for _, f := range missing.Fields {
				out("  - %s\n", f)
			}
			for _, p := range missing.Problems {
				out("  - %s\n", p)
			}
			out("Use 'wiexcise config set KEY VALUE' for saved filer and sender details.\n")
		}
		if res.ErrorLog != "" {
			out("Error log: %s\n", res.ErrorLog)
		}
		return res.Err
	}

	out("\nState:    %s (%s)\n", res.Outcome.State, res.Duration.Round(time.Millisecond))
	if genDryRun {
		out("Output:   %s (dry run, not written)\n", res.OutputFile)
	} else {
		out("Output:   %s\n", res.OutputFile)
	}

	if res.Outcome.State == converter.Invalid {
		out("\n%s\n", res.Outcome.Error.Detail())
		if res.ErrorLog != "" {
			out("Error log: %s\n", res.ErrorLog)
		}
		return fmt.Errorf("report failed schema validation: %s", res.Outcome.Error.Location())
	}
	return nil
}

// stdinName gives standard input a file name whose extension selects the
// reader.
func stdinName(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "csv", "xlsx", "yaml", "yml", "json":
		return "stdin." + f, nil
	}
	return "", fmt.Errorf("unknown --input-format %q: use csv, xlsx, yaml or json", format)
}
