// =============================================================================
// WI Excise Shipper XML Form Generator - Batch Command
// =============================================================================
//
// This file defines the 'batch' command, which produces one report per input
// file found in a directory.
//
// COMMAND USAGE:
//   wiexcise batch [flags]
//
// FLAGS:
//   --type     : Report type for every file in the run
//   --dir      : Input directory (default: paths.input_dir)
//   --workers  : Files processed concurrently (default: processing.workers)
//   --archive  : Move inputs of valid reports to paths.archive_dir
//   --begin, --end, --ack-email, --amended : As for 'generate'
//   --dry-run  : Generate and validate without writing files
//
// PROCESSING PIPELINE:
//   1. Discover CSV/XLSX files in the input directory
//   2. For each file (concurrently, bounded by --workers):
//      import, check, generate, validate and write
//   3. Archive the inputs of valid reports
//   4. Write the processing summary
//
// A failure in one file never stops the others.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/converter"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/logging"
	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	batchType    string
	batchDir     string
	batchWorkers int
	batchArchive bool
	batchDryRun  bool
	batchPeriod  periodFlags
)

// =============================================================================
// BATCH COMMAND DEFINITION
// =============================================================================

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate a report for every CSV/XLSX file in a directory",
	Long: `The batch command scans the input directory and generates one report per
file, several files at a time.

On a valid report:
  - The XML is placed in the output directory
  - The input is moved to the archive directory (with --archive)

On an invalid report or a failed import:
  - An error log is written to the log directory
  - The input stays where it is
  - Processing continues for the other files

A summary of the whole run is written to the log directory.`,
	Example: `  wiexcise batch --type cc --begin 2024-01-01 --end 2024-03-31
  wiexcise batch --type fh --dir ./march --workers 8 --archive`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	f := batchCmd.Flags()
	f.StringVarP(&batchType, "type", "t", "", "Report type: CommonCarrier|cc|AB136 or FulfillmentHouse|fh|AB137")
	f.StringVarP(&batchDir, "dir", "d", "", "Input directory (default: paths.input_dir)")
	f.IntVarP(&batchWorkers, "workers", "w", 0, "Files processed concurrently (default: processing.workers)")
	f.BoolVar(&batchArchive, "archive", false, "Move inputs of valid reports to the archive directory")
	f.StringVar(&batchPeriod.begin, "begin", "", "First day of the tax period")
	f.StringVar(&batchPeriod.end, "end", "", "Last day of the tax period")
	f.StringVar(&batchPeriod.ackEmail, "ack-email", "", "Acknowledgement e-mail (default: report.ack_email)")
	f.BoolVar(&batchPeriod.amended, "amended", false, "Mark the reports as amended")
	f.BoolVar(&batchDryRun, "dry-run", false, "Generate and validate without writing files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runBatch(ctx context.Context, cmd *cobra.Command) error {
	start := time.Now()
	out := func(format string, args ...any) { fmt.Fprintf(cmd.OutOrStdout(), format, args...) }

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	// =========================================================================
	// STEP 1: SETUP
	// =========================================================================

	rt, err := resolveType(batchType)
	if err != nil {
		return err
	}
	period, err := batchPeriod.taxPeriod()
	if err != nil {
		return err
	}
	conv, err := converter.New(appConfig, logger)
	if err != nil {
		return err
	}

	inDir := appConfig.Paths.InputDir
	if batchDir != "" {
		inDir = batchDir
	}
	workers := appConfig.Processing.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	archive := batchArchive || appConfig.Processing.ArchiveInputs

	fm := utils.NewFileManager(inDir, appConfig.Paths.OutputDir, appConfig.Paths.ArchiveDir, appConfig.Paths.LogDir)
	if !batchDryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files, err := fm.DiscoverInputFiles()
	if err != nil {
		return err
	}
	out("=== %s batch (%s) ===\n", rt, rt.SchemaCode())
	if len(files) == 0 {
		out("No CSV or XLSX files found in %s\n", inDir)
		return nil
	}
	out("Found %d file(s), processing with %d worker(s)\n\n", len(files), workers)
	logger.InfoContext(ctx, "batch started", "files", len(files), "workers", workers, "dir", inDir)

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Every file gets its own session and result slot. Workers never return
	// an error, so one bad file cannot cancel the rest.

	results := make([]*fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = &fileResult{Input: file, Err: gctx.Err()}
				return nil
			}
			s := &session{conv: conv, fm: fm, rt: rt, period: period, dryRun: batchDryRun, log: logger}
			results[i] = s.run(gctx, file)
			return nil
		})
	}
	g.Wait()

	// =========================================================================
	// STEP 4: ARCHIVE AND SUMMARIZE
	// =========================================================================

	summary := utils.ProcessingSummary{
		RunID:      runID,
		StartTime:  start,
		TotalFiles: len(files),
	}

	for _, res := range results {
		name := filepath.Base(res.Input)
		if res.Import != nil {
			summary.TotalShipments += res.Import.Imported
			summary.SkippedRows += res.Import.Skipped
		}

		if res.Err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: res.Err.Error(),
				ErrorType:    errorType(res.Err),
			})
			out("  ✗ %s: %v\n", name, res.Err)
			continue
		}

		info := utils.ProcessedFileInfo{
			InputFile:   name,
			OutputFile:  res.OutputFile,
			State:       res.Outcome.State.String(),
			Imported:    res.Import.Imported,
			Skipped:     res.Import.Skipped,
			ProcessTime: res.Duration,
		}

		if res.Outcome.State == converter.Invalid {
			summary.InvalidFiles++
			out("  ✗ %s -> %s (%s)\n", name, filepath.Base(res.OutputFile), res.Outcome.Error.Location())
		} else {
			summary.ValidFiles++
			out("  ✓ %s -> %s (%d shipments)\n", name, filepath.Base(res.OutputFile), res.Import.Imported)
			if archive && !batchDryRun {
				archived, err := fm.ArchiveInputFile(res.Input)
				if err != nil {
					logger.WarnContext(ctx, "failed to archive input", "file", name, "error", err)
				} else {
					info.ArchivePath = archived
				}
			}
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, info)
	}
	summary.EndTime = time.Now()

	out("\n=== Processing Complete ===\n")
	out("Total files:     %d\n", summary.TotalFiles)
	out("Valid:           %d\n", summary.ValidFiles)
	out("Invalid:         %d\n", summary.InvalidFiles)
	out("Failed:          %d\n", summary.FailedFiles)
	out("Shipments:       %d (skipped rows: %d)\n", summary.TotalShipments, summary.SkippedRows)
	out("Time elapsed:    %s\n", summary.EndTime.Sub(start).Round(time.Millisecond))

	if !batchDryRun {
		path, err := utils.WriteSummaryLog(summary, fm.LogDir)
		if err != nil {
			logger.WarnContext(ctx, "failed to write summary", "error", err)
		} else {
			out("Summary:         %s\n", path)
		}
	}
	logger.InfoContext(ctx, "batch finished",
		"valid", summary.ValidFiles,
		"invalid", summary.InvalidFiles,
		"failed", summary.FailedFiles)

	if summary.InvalidFiles+summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) did not produce a valid report", summary.InvalidFiles+summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}
