// =============================================================================
// WI Excise Shipper XML Form Generator - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   wiexcise version
//
// OUTPUT:
//   WI Excise Shipper XML Form Generator
//   Version:    2.0.0
//   Build Date: 2024-01-01
//   Schemas:    AB136.xsd, AB137.xsd
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/schemas"
)

// Version is the application version.
// Set at build time using ldflags:
//
//	go build -ldflags "-X 'github.com/rbauergh/WIExciseShipperV2XMLFormGen/cmd.Version=2.0.1'"
var Version = "2.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, built-in schemas and Go runtime version.`,

	// The version is printed even without a readable configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "WI Excise Shipper XML Form Generator")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Schemas:    %s\n", strings.Join(schemas.Names(), ", "))
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
