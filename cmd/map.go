// =============================================================================
// WI Excise Shipper XML Form Generator - Map Command
// =============================================================================
//
// COMMAND USAGE:
//   wiexcise map --type cc FILE [--json]
//
// Shows how the columns of an input file map to report fields, before any
// row is imported.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/mapper"
)

var (
	mapType  string
	mapSheet string
	mapJSON  bool
)

var mapCmd = &cobra.Command{
	Use:   "map FILE",
	Short: "Show how the columns of a CSV or XLSX file map to report fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := resolveType(mapType)
		if err != nil {
			return err
		}
		conv, err := converter.New(appConfig, logger)
		if err != nil {
			return err
		}
		conv.Sheet = mapSheet

		table, err := conv.ReadTable(args[0])
		if err != nil {
			return err
		}
		m, err := mapper.Map(mapper.AliasesFor(rt), table.Headers)
		if err != nil {
			return err
		}
		rep := mapper.Report(m, rt)

		w := cmd.OutOrStdout()
		if mapJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		fmt.Fprintf(w, "Column mapping for %s (%s), %d data row(s)\n\n", rt, args[0], table.Len())
		fmt.Fprintln(w, "Mapped columns:")
		for _, c := range m.Columns {
			if c.Field != mapper.Unmapped {
				fmt.Fprintf(w, "  %-30s -> %s\n", c.Header, c.Field)
			}
		}
		if len(rep.Unmapped) > 0 {
			fmt.Fprintln(w, "\nIgnored columns:")
			for _, h := range rep.Unmapped {
				fmt.Fprintf(w, "  %s\n", h)
			}
		}
		if len(rep.MissingRecommended) > 0 {
			fmt.Fprintln(w, "\nMissing recommended fields:")
			for _, mf := range rep.MissingRecommended {
				fmt.Fprintf(w, "  %-30s %s\n", mf.Field, mf.Tip)
			}
		}
		if len(rep.Warnings) > 0 {
			fmt.Fprintln(w, "\nWarnings:")
			for _, warning := range rep.Warnings {
				fmt.Fprintf(w, "  - %s\n", warning)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVarP(&mapType, "type", "t", "", "Report type: CommonCarrier|cc|AB136 or FulfillmentHouse|fh|AB137")
	mapCmd.Flags().StringVar(&mapSheet, "sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
	mapCmd.Flags().BoolVar(&mapJSON, "json", false, "Print the mapping report as JSON")
}
