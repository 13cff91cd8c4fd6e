// =============================================================================
// WI Excise Shipper XML Form Generator - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   wiexcise validate FILE.xml [--type cc]
//
// Validates an existing report against the built-in (or configured) schema.
// Without --type the report type is taken from the root element.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/validation"
)

var validateType string

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate an AB136 or AB137 XML report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		var rt report.ReportType
		if validateType != "" {
			rt, err = report.ParseReportType(validateType)
		} else {
			rt, err = validation.DetectReportType(doc)
		}
		if err != nil {
			return err
		}

		conv, err := converter.New(appConfig, logger)
		if err != nil {
			return err
		}
		verr, err := conv.Registry.Validate(rt, doc)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if verr == nil {
			fmt.Fprintf(w, "%s is a valid %s report (%s)\n", args[0], rt, rt.SchemaName())
			return nil
		}
		fmt.Fprintf(w, "%s is not a valid %s report\n\n%s\n", args[0], rt, verr.Detail())
		return fmt.Errorf("schema validation failed: %s", verr.Location())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateType, "type", "t", "", "Report type (default: detected from the root element)")
}
