// =============================================================================
// WI Excise Shipper XML Form Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (wiexcise)
//   ├── generateCmd (wiexcise generate)
//   ├── batchCmd    (wiexcise batch)
//   ├── mapCmd      (wiexcise map)
//   ├── templateCmd (wiexcise template)
//   ├── validateCmd (wiexcise validate)
//   ├── configCmd   (wiexcise config show|init|set|get|keys)
//   └── versionCmd  (wiexcise version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/config"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set by the persistent pre-run hook.
var (
	appConfig *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "wiexcise",
	Short: "WI Excise Shipper XML Form Generator - Build AB136/AB137 shipment reports",
	Long: `wiexcise turns shipment lists exported as CSV or Excel into the XML reports
Wisconsin requires from common carriers (AB136) and fulfillment houses (AB137).

Each report is imported, normalized, generated and validated against the
state schema. Invalid reports are still written, with an explanation of the
first problem and how to fix it.

Example Usage:
  wiexcise config init                               # Create config.yaml
  wiexcise config set filer.tin_value 123456789      # Save filer details
  wiexcise generate --type cc --input q1.csv --begin 2024-01-01 --end 2024-03-31
  wiexcise batch --type fh --dir ./input             # Process a directory
  wiexcise map --type cc q1.csv                      # Show the column mapping`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		l, closer, err := logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		appConfig, logger, logCloser = cfg, l, closer
		logger.Debug("configuration loaded", "path", cfgFile)
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main(). An interrupt
// cancels the command context so batch runs stop starting new files.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
