// =============================================================================
// WI Excise Shipper XML Form Generator - File Manager Utility
// =============================================================================
//
// This module provides file system helpers for the CLI commands:
//   - Creating the working directories
//   - Discovering input files in a directory
//   - Archiving input files after a report was produced
//   - Naming output files
//   - Writing error logs and batch summaries
//
// DIRECTORY STRUCTURE:
//   ./input/           - CSV / XLSX shipment lists waiting to be processed
//   ./output/          - Generated XML reports (.xml and .invalid.xml)
//   ./input_archive/   - Processed input files
//   ./logs/            - Error logs and batch summaries
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputExtensions lists the file types the batch command picks up.
var InputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}

// =============================================================================
// FILE MANAGER STRUCTURE
// =============================================================================

// FileManager handles file operations for batch processing.
type FileManager struct {
	// InputDir is the directory containing input files.
	InputDir string

	// OutputDir is the directory for generated XML files.
	OutputDir string

	// ArchiveDir is the directory for processed input files.
	ArchiveDir string

	// LogDir is the directory for error logs and summaries.
	LogDir string

	// UseTimestampSubdirs creates YYYY/MM/DD subdirectories in the archive.
	// Default: false
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager instance.
func NewFileManager(inputDir, outputDir, archiveDir, logDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		LogDir:     logDir,
	}
}

// =============================================================================
// DIRECTORY OPERATIONS
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
// Empty entries are skipped.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.InputDir, fm.OutputDir, fm.ArchiveDir, fm.LogDir}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles returns the shipment lists in the input directory, sorted
// by name. Subdirectories and hidden files are ignored, as are the lock files
// spreadsheet programs leave next to open workbooks ("~$q1.xlsx").
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if hasInputExtension(name) {
			result = append(result, filepath.Join(fm.InputDir, name))
		}
	}

	sort.Strings(result)
	return result, nil
}

func hasInputExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVING
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if the file cannot be moved.
//
// ARCHIVE BEHAVIOR:
//   - The file is moved (not copied) from the input directory.
//   - If a file with the same name already exists in the archive, the
//     new file gets a timestamp suffix.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across file systems; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string) string {
	dir := fm.ArchiveDir
	now := time.Now()
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	path := filepath.Join(dir, filepath.Base(filePath))
	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(path)
		path = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(path, ext), now.Format("20060102_150405"), ext)
	}
	return path
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName builds an output file name from a format string.
//
// PARAMETERS:
//   - format: The format with placeholders, e.g. "{report}_{timestamp}.xml".
//   - params: Values for the other placeholders ({report}, {code}, {input}).
//
// BUILT-IN PLACEHOLDERS:
//   - {uuid}: A random UUID
//   - {timestamp}: Current timestamp (YYYYMMDD_HHMMSS)
//   - {date}: Current date (YYYYMMDD)
//   - {time}: Current time (HHMMSS)
//
// The result always ends in ".xml".
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}
	return result
}

// InvalidFileName returns the name a rejected report is saved under:
// "CommonCarrier_20240401.xml" becomes "CommonCarrier_20240401.invalid.xml".
func InvalidFileName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".invalid" + ext
}

// InputBaseName returns the file name of path without directory or extension.
func InputBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// ERROR LOGGING
// =============================================================================

// ErrorLogEntry represents a single error in the error log.
type ErrorLogEntry struct {
	// Timestamp is when the error occurred.
	Timestamp time.Time

	// FileName is the input file being processed.
	FileName string

	// ErrorType is the category, such as "DateFormatError" or
	// "SchemaValidationError".
	ErrorType string

	// ErrorMessage is the detailed error message.
	ErrorMessage string

	// RowNumber is the source row, zero if not applicable.
	RowNumber int

	// FieldName is the field or element that failed.
	FieldName string

	// FieldValue is the offending value.
	FieldValue string

	// Detail is an optional multi-line explanation, written indented.
	Detail string
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - logDir: The directory to write the log to.
//   - name: A prefix for the log file name, usually the input base name.
//
// RETURNS:
//   - The path to the log file, or "" if there was nothing to write.
//   - An error if the file cannot be written.
func WriteErrorLog(entries []ErrorLogEntry, logDir, name string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if name == "" {
		name = "wiexcise"
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%s_errors_%s.txt", name, time.Now().Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := writeErrorEntries(writer, entries); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

func writeErrorEntries(w io.Writer, entries []ErrorLogEntry) error {
	rule := strings.Repeat("=", 80)

	fmt.Fprintf(w, "WI Excise Shipper XML Form Generator - Error Log\nGenerated: %s\nTotal Errors: %d\n%s\n\n",
		time.Now().Format("2006-01-02 15:04:05"), len(entries), rule)

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n", i+1)
		fmt.Fprintf(w, "  Timestamp:      %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  File:           %s\n", entry.FileName)
		fmt.Fprintf(w, "  Error Type:     %s\n", entry.ErrorType)
		fmt.Fprintf(w, "  Message:        %s\n", entry.ErrorMessage)
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(w, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(w, "  Value:          %s\n", entry.FieldValue)
		}
		if entry.Detail != "" {
			fmt.Fprintln(w)
			for _, line := range strings.Split(strings.TrimRight(entry.Detail, "\n"), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)
	return err
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains the statistics of a batch run.
type ProcessingSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	TotalFiles   int
	ValidFiles   int
	InvalidFiles int
	FailedFiles  int

	TotalShipments int
	SkippedRows    int

	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo describes a file that produced a report.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	State       string
	Imported    int
	Skipped     int
	ProcessTime time.Duration
}

// FailedFileInfo describes a file that produced no report.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if the file cannot be written.
func WriteSummaryLog(summary ProcessingSummary, logDir string) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", summary.StartTime.Format("20060102_150405"))
	if summary.RunID != "" {
		name = fmt.Sprintf("processing_summary_%s_%.8s.txt", summary.StartTime.Format("20060102_150405"), summary.RunID)
	}
	summaryPath := filepath.Join(logDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writeSummary(writer, summary)
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func writeSummary(w io.Writer, s ProcessingSummary) {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Fprintf(w, "WI Excise Shipper XML Form Generator - Processing Summary\n%s\n\n", rule)
	fmt.Fprintf(w, "Run Information:\n")
	if s.RunID != "" {
		fmt.Fprintf(w, "  Run ID:         %s\n", s.RunID)
	}
	fmt.Fprintf(w, "  Start Time:     %s\n", s.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  End Time:       %s\n", s.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Duration:       %s\n\n", s.EndTime.Sub(s.StartTime))

	fmt.Fprintf(w, "Statistics:\n")
	fmt.Fprintf(w, "  Total Files:      %d\n", s.TotalFiles)
	fmt.Fprintf(w, "  Valid:            %d\n", s.ValidFiles)
	fmt.Fprintf(w, "  Invalid:          %d\n", s.InvalidFiles)
	fmt.Fprintf(w, "  Failed:           %d\n", s.FailedFiles)
	fmt.Fprintf(w, "  Total Shipments:  %d\n", s.TotalShipments)
	fmt.Fprintf(w, "  Skipped Rows:     %d\n\n", s.SkippedRows)

	if len(s.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Processed Files:\n%s\n", thin)
		for _, pf := range s.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(w, "  State:        %s\n", pf.State)
			fmt.Fprintf(w, "  Shipments:    %d (skipped rows: %d)\n", pf.Imported, pf.Skipped)
			if pf.ArchivePath != "" {
				fmt.Fprintf(w, "  Archived To:  %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime)
		}
	}

	if len(s.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", thin)
		for _, ff := range s.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			if ff.ErrorType != "" {
				fmt.Fprintf(w, "  Type:  %s\n", ff.ErrorType)
			}
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, so readers never see a half-written report.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteNewFileAtomic is WriteFileAtomic for a file that must not replace an
// existing one. When path is taken, "_2", "_3" ... is inserted before the
// extension (".invalid.xml" counts as one extension). The name is claimed
// with O_EXCL first, so concurrent writers never pick the same path.
//
// RETURNS:
//   - The path actually written.
func WriteNewFileAtomic(path string, data []byte) (string, error) {
	stem, ext := splitOutputExt(path)
	for n := 1; n <= 1000; n++ {
		candidate := path
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}
		f.Close()
		if err := WriteFileAtomic(candidate, data); err != nil {
			os.Remove(candidate)
			return "", err
		}
		return candidate, nil
	}
	return "", fmt.Errorf("failed to find a free file name for %s", path)
}

func splitOutputExt(path string) (string, string) {
	for _, ext := range []string{".invalid.xml", ".xml"} {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return path[:len(path)-len(ext)], path[len(path)-len(ext):]
		}
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}
