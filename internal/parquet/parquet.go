// Package parquet provides data structures and functions for exporting warnbase
// run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"fortio.org/safecast"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single finalization recorded by the history store.
// This struct maps to the warnbase_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// InvocationID groups the runs of one build invocation
	InvocationID string `parquet:"invocation_id,snappy"`

	Project string `parquet:"project,snappy"`
	Variant string `parquet:"variant,snappy"`
	Target  string `parquet:"target,snappy"`

	// Mode is either write or check
	Mode string `parquet:"mode,snappy"`

	// Outcome is empty while the run never completed (nullable)
	Outcome *string `parquet:"outcome,optional,snappy"`

	// StartTime is when the project started collecting (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when finalization completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs *int32  `parquet:"run_duration_ms,optional,snappy"`
	TotalWarnings *int32  `parquet:"total_warnings,optional,snappy"`
	NewWarnings   *int32  `parquet:"new_warnings,optional,snappy"`
	FailedUnits   *string `parquet:"failed_units,optional,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RunWarning is one canonical warning seen by a run.
// This struct maps to the warnbase_run_warnings database table.
type RunWarning struct {
	RunID   int64  `parquet:"run_id,snappy"`
	Warning string `parquet:"warning,snappy"`

	// IsNew is set when the baseline did not cover the warning
	IsNew bool `parquet:"is_new,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunWarningsParquet writes a slice of RunWarning structs to a Parquet file.
func WriteRunWarningsParquet(data []RunWarning, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.HistoryRunRecord to Run for Parquet export.
// Counters that do not fit an int32 are dropped.
func ConvertRunRecords(records []schema.HistoryRunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			InvocationID:  record.InvocationID,
			Project:       record.Project,
			Variant:       record.Variant,
			Target:        record.Target,
			Mode:          string(record.Mode),
			Outcome:       record.Outcome,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: toInt32(record.RunDurationMs),
			TotalWarnings: toInt32(record.TotalWarnings),
			NewWarnings:   toInt32(record.NewWarnings),
			FailedUnits:   record.FailedUnits,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRunWarningRecords converts schema.HistoryWarningRecord to RunWarning for Parquet export.
func ConvertRunWarningRecords(records []schema.HistoryWarningRecord) []RunWarning {
	result := make([]RunWarning, len(records))
	for i, record := range records {
		result[i] = RunWarning{
			RunID:   record.RunID,
			Warning: record.Warning,
			IsNew:   record.IsNew,
		}
	}
	return result
}

func toInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n, err := safecast.Conv[int32](*v)
	if err != nil {
		return nil
	}
	return &n
}
