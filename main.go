// =============================================================================
// WI Excise Shipper XML Form Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   wiexcise generate   - Build and validate one AB136/AB137 report
//   wiexcise batch      - Build a report for every file in a directory
//   wiexcise map        - Show how input columns map to report fields
//   wiexcise template   - Write an empty import template
//   wiexcise validate   - Validate an existing XML report
//   wiexcise config     - Show or edit saved filer and sender details
//   wiexcise version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Import, normalization, generation and validation
//   - pkg/utils/     : File management and run logs
//   - schemas/       : The built-in AB136.xsd and AB137.xsd
//
// =============================================================================

package main

import (
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/cmd"
)

func main() {
	cmd.Execute()
}
