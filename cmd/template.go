// =============================================================================
// WI Excise Shipper XML Form Generator - Template Command
// =============================================================================
//
// COMMAND USAGE:
//   wiexcise template --type cc [--xlsx] [--out FILE]
//
// Writes an empty import template whose headers the column mapper
// recognizes. The XLSX variant carries one example row.
//
// =============================================================================

package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/csvparser"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/mapper"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/xlsxparser"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/pkg/utils"
)

var (
	tplType string
	tplXLSX bool
	tplOut  string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an empty CSV or XLSX import template",
	Example: `  wiexcise template --type cc > carrier.csv
  wiexcise template --type fh --xlsx --out fulfillment.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := resolveType(tplType)
		if err != nil {
			return err
		}
		headers := mapper.TemplateHeaders(rt)

		var buf bytes.Buffer
		if tplXLSX {
			err = xlsxparser.WriteTemplate(&buf, "Shipments", headers, sampleRow(rt))
		} else {
			err = csvparser.WriteTemplate(&buf, headers)
		}
		if err != nil {
			return fmt.Errorf("failed to build template: %w", err)
		}

		if tplOut == "" {
			if tplXLSX {
				return fmt.Errorf("--out is required with --xlsx")
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.WriteFileAtomic(tplOut, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s template to %s\n", rt, tplOut)
		return nil
	},
}

// sampleRow matches mapper.TemplateHeaders column for column.
func sampleRow(rt report.ReportType) []string {
	row := []string{"Jane Smith", "123 Main St", "Madison", "WI", "53703", "1Z999AA10123456784", "2024-01-15"}
	switch rt {
	case report.CommonCarrier:
		return append(row, "12.5", "Wine")
	case report.FulfillmentHouse:
		return append(row, "12", "750")
	}
	return row
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.Flags().StringVarP(&tplType, "type", "t", "", "Report type: CommonCarrier|cc|AB136 or FulfillmentHouse|fh|AB137")
	templateCmd.Flags().BoolVar(&tplXLSX, "xlsx", false, "Write an Excel workbook instead of CSV")
	templateCmd.Flags().StringVarP(&tplOut, "out", "o", "", "Output file (default: stdout, CSV only)")
}
