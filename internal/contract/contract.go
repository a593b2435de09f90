// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// BaselineStore defines the operations on version-controlled baseline files
// and their scratch snapshots. All file I/O is synchronous.
type BaselineStore interface {
	// Load reads a baseline. A missing file yields an empty set with Existed=false.
	Load(path string) (schema.Baseline, error)

	// Save writes the set sorted, one warning per line. An empty set deletes the file.
	Save(path string, entries map[string]struct{}) (schema.SaveResult, error)

	// RemoveAll deletes every file in projectDir whose name starts with prefix,
	// then deletes buildDir recursively. Per-file failures are not fatal.
	RemoveAll(prefix, projectDir, buildDir string) ([]string, error)

	// List returns every baseline file in projectDir whose name starts with prefix.
	List(prefix, projectDir string) ([]schema.BaselineInfo, error)
}

// Finalizer runs the write-or-check step once all required units of a project finished.
type Finalizer interface {
	Finalize(ctx context.Context, req FinalizeRequest) (*schema.FinalizeOutcome, error)
}

// FinalizeRequest carries the aggregated state handed to a Finalizer.
type FinalizeRequest struct {
	Project      schema.ProjectSpec
	Mode         schema.BuildMode
	Warnings     map[string]struct{}
	FailedUnits  []string
	InvocationID string
	StartedAt    time.Time
}

// StoreManager defines the interface for managing database stores.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetUnitCache() UnitCache
	GetHistoryStore() HistoryStore
}

// UnitCache defines the interface for per-unit warning snapshot storage.
// This allows mocking the store for testing.
type UnitCache interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking finalization runs and their warnings.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, project schema.ProjectSpec, mode schema.BuildMode, invocationID string, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.HistoryRunSummary) error

	// RecordWarnings stores the warnings seen by a run, flagging those missing from the baseline
	RecordWarnings(runID int64, warnings []string, isNew map[string]struct{}) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves all recorded runs
	GetAllRuns() ([]schema.HistoryRunRecord, error)

	// GetAllRunWarnings retrieves all recorded run warnings
	GetAllRunWarnings() ([]schema.HistoryWarningRecord, error)

	// Close closes the underlying connection
	Close() error
}
