package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/parquet"
)

// ExecuteHistoryExport writes the recorded runs and their warnings to two Parquet files
// named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total warning records: %d\n", status.TableSizes[runWarningsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	warnings, err := store.GetAllRunWarnings()
	if err != nil {
		return fmt.Errorf("failed to retrieve run warnings: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	parquetRuns := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	warningsFile := outputFile + ".run_warnings.parquet"
	parquetWarnings := parquet.ConvertRunWarningRecords(warnings)
	if err := parquet.WriteRunWarningsParquet(parquetWarnings, warningsFile); err != nil {
		return fmt.Errorf("failed to write run warnings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d warning records to: %s\n", len(parquetWarnings), warningsFile)
	return nil
}
