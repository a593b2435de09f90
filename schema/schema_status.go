package schema

import "time"

// CacheStatus represents the status of the unit cache store.
type CacheStatus struct {
	Backend         string    `json:"backend" yaml:"backend"`
	Connected       bool      `json:"connected" yaml:"connected"`
	TotalEntries    int       `json:"total_entries" yaml:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time" yaml:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time" yaml:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes" yaml:"table_size_bytes"`
}

// HistoryStatus represents the status of the history store.
type HistoryStatus struct {
	Backend       string           `json:"backend" yaml:"backend"`
	Connected     bool             `json:"connected" yaml:"connected"`
	TotalRuns     int              `json:"total_runs" yaml:"total_runs"`
	FailedRuns    int              `json:"failed_runs" yaml:"failed_runs"`
	LastRunID     int64            `json:"last_run_id" yaml:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time" yaml:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time" yaml:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes" yaml:"table_sizes"`
}

// HistoryRunSummary is recorded when a finalization completes.
type HistoryRunSummary struct {
	Outcome       Outcome
	TotalWarnings int
	NewWarnings   int
	FailedUnits   []string
}

// HistoryRunRecord represents a row from the warnbase_runs table.
type HistoryRunRecord struct {
	RunID         int64      `json:"run_id" yaml:"run_id"`
	InvocationID  string     `json:"invocation_id" yaml:"invocation_id"`
	Project       string     `json:"project" yaml:"project"`
	Variant       string     `json:"variant" yaml:"variant"`
	Target        string     `json:"target" yaml:"target"`
	Mode          BuildMode  `json:"mode" yaml:"mode"`
	Outcome       *string    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	StartTime     time.Time  `json:"start_time" yaml:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	RunDurationMs *int       `json:"run_duration_ms,omitempty" yaml:"run_duration_ms,omitempty"`
	TotalWarnings *int       `json:"total_warnings,omitempty" yaml:"total_warnings,omitempty"`
	NewWarnings   *int       `json:"new_warnings,omitempty" yaml:"new_warnings,omitempty"`
	FailedUnits   *string    `json:"failed_units,omitempty" yaml:"failed_units,omitempty"` // Pipe separated
	ConfigParams  *string    `json:"config_params,omitempty" yaml:"config_params,omitempty"`
}

// HistoryWarningRecord represents a row from the warnbase_run_warnings table.
type HistoryWarningRecord struct {
	RunID   int64  `json:"run_id" yaml:"run_id"`
	Warning string `json:"warning" yaml:"warning"`
	IsNew   bool   `json:"is_new" yaml:"is_new"`
}

// UnitSnapshot is the cached set of canonical warnings one unit produced.
type UnitSnapshot struct {
	Project  string   `msgpack:"project"`
	Unit     string   `msgpack:"unit"`
	Warnings []string `msgpack:"warnings"`
}
