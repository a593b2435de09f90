package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistory(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl)
}

var historyProject = schema.ProjectSpec{Name: "app", Dir: "/repo/app", Variant: "debug"}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), historyProject, schema.CheckMode, "inv", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.RecordWarnings(runID, []string{"a.kt:1:1 x"}, nil))
	assert.NoError(t, store.EndRun(runID, time.Now(), schema.HistoryRunSummary{Outcome: schema.OutcomePass}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_RunLifecycle(t *testing.T) {
	store := newSQLiteHistory(t)

	start := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun(start, historyProject, schema.CheckMode, "inv-1", map[string]any{"baseline_path": "/repo/app/warning-baseline-debug.txt"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	warnings := []string{"src/A.kt:1:1 unused", "src/B.kt:2:3 deprecated"}
	isNew := map[string]struct{}{"src/B.kt:2:3 deprecated": {}}
	require.NoError(t, store.RecordWarnings(runID, warnings, isNew))

	summary := schema.HistoryRunSummary{
		Outcome:       schema.OutcomeFail,
		TotalWarnings: 2,
		NewWarnings:   1,
		FailedUnits:   []string{"compileDebugUnitTestKotlin", "kaptDebugKotlin"},
	}
	require.NoError(t, store.EndRun(runID, start.Add(2*time.Second), summary))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "inv-1", run.InvocationID)
	assert.Equal(t, "app", run.Project)
	assert.Equal(t, "debug", run.Variant)
	assert.Equal(t, schema.CheckMode, run.Mode)
	require.NotNil(t, run.Outcome)
	assert.Equal(t, "fail", *run.Outcome)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, 2000, *run.RunDurationMs)
	assert.Equal(t, 2, *run.TotalWarnings)
	assert.Equal(t, 1, *run.NewWarnings)
	require.NotNil(t, run.FailedUnits)
	assert.Equal(t, "compileDebugUnitTestKotlin|kaptDebugKotlin", *run.FailedUnits)
	require.NotNil(t, run.EndTime)
	assert.WithinDuration(t, start, run.StartTime, time.Microsecond)
	require.NotNil(t, run.ConfigParams)
	assert.Contains(t, *run.ConfigParams, "warning-baseline-debug.txt")

	recorded, err := store.GetAllRunWarnings()
	require.NoError(t, err)
	assert.Equal(t, []schema.HistoryWarningRecord{
		{RunID: runID, Warning: "src/A.kt:1:1 unused", IsNew: false},
		{RunID: runID, Warning: "src/B.kt:2:3 deprecated", IsNew: true},
	}, recorded)
}

func TestHistoryStore_UnfinishedRun(t *testing.T) {
	store := newSQLiteHistory(t)

	_, err := store.BeginRun(time.Now(), historyProject, schema.WriteMode, "inv-1", nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].Outcome)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)
	assert.Nil(t, runs[0].FailedUnits)
}

func TestHistoryStore_EndUnknownRun(t *testing.T) {
	store := newSQLiteHistory(t)
	err := store.EndRun(42, time.Now(), schema.HistoryRunSummary{Outcome: schema.OutcomePass})
	assert.Error(t, err)
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store := newSQLiteHistory(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[runsTable])

	base := time.Now().Add(-time.Hour)
	outcomes := []schema.Outcome{schema.OutcomePass, schema.OutcomeFail, schema.OutcomeFail}
	var lastID int64
	for i, outcome := range outcomes {
		start := base.Add(time.Duration(i) * time.Minute)
		lastID, err = store.BeginRun(start, historyProject, schema.CheckMode, "inv", nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordWarnings(lastID, []string{"src/A.kt:1:1 unused"}, nil))
		require.NoError(t, store.EndRun(lastID, start.Add(time.Second), schema.HistoryRunSummary{Outcome: outcome, TotalWarnings: 1}))
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, 2, status.FailedRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.WithinDuration(t, base, status.OldestRunTime, time.Microsecond)
	assert.WithinDuration(t, base.Add(2*time.Minute), status.LastRunTime, time.Microsecond)
	assert.Equal(t, int64(3), status.TableSizes[runsTable])
	assert.Equal(t, int64(3), status.TableSizes[runWarningsTable])
}

func TestExecuteHistoryExport(t *testing.T) {
	store := newSQLiteHistory(t)
	var buf bytes.Buffer

	out := filepath.Join(t.TempDir(), "history")
	err := ExecuteHistoryExport(&buf, store, out)
	require.Error(t, err, "empty history has nothing to export")

	runID, err := store.BeginRun(time.Now(), historyProject, schema.CheckMode, "inv", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordWarnings(runID, []string{"src/A.kt:1:1 unused"}, nil))
	require.NoError(t, store.EndRun(runID, time.Now(), schema.HistoryRunSummary{Outcome: schema.OutcomePass, TotalWarnings: 1}))

	require.NoError(t, ExecuteHistoryExport(&buf, store, out))
	assert.Contains(t, buf.String(), "Exported 1 runs")
	assert.Contains(t, buf.String(), "Exported 1 warning records")

	for _, suffix := range []string{".runs.parquet", ".run_warnings.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	assert.Error(t, ExecuteHistoryExport(&buf, store, ""))
}

func TestGetCreateRunsQuery(t *testing.T) {
	assert.Contains(t, getCreateRunsQuery(schema.SQLiteBackend), "INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, getCreateRunsQuery(schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateRunsQuery(schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateRunWarningsQuery(schema.MySQLBackend), "INDEX idx_run_warnings_run")
	assert.Contains(t, getCreateRunWarningsQuery(schema.PostgreSQLBackend), "PRIMARY KEY (run_id, warning)")
}
