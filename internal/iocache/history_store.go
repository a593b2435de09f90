package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Table names for run history.
const (
	runsTable        = "warnbase_runs"
	runWarningsTable = "warnbase_run_warnings"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the run tracking tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runWarningsTable, getCreateRunWarningsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for warnbase_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				invocation_id VARCHAR(64) NOT NULL,
				project VARCHAR(255) NOT NULL,
				variant VARCHAR(100) NOT NULL,
				target VARCHAR(100) NOT NULL,
				mode VARCHAR(16) NOT NULL,
				outcome VARCHAR(32),
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_warnings INT,
				new_warnings INT,
				failed_units TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				invocation_id TEXT NOT NULL,
				project TEXT NOT NULL,
				variant TEXT NOT NULL,
				target TEXT NOT NULL,
				mode TEXT NOT NULL,
				outcome TEXT,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_warnings INT,
				new_warnings INT,
				failed_units TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				invocation_id TEXT NOT NULL,
				project TEXT NOT NULL,
				variant TEXT NOT NULL,
				target TEXT NOT NULL,
				mode TEXT NOT NULL,
				outcome TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_warnings INTEGER,
				new_warnings INTEGER,
				failed_units TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunWarningsQuery returns the CREATE TABLE query for warnbase_run_warnings.
func getCreateRunWarningsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runWarningsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		// TEXT columns cannot be part of a MySQL primary key without a prefix length
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				warning_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id BIGINT NOT NULL,
				warning TEXT NOT NULL,
				is_new BOOLEAN NOT NULL,
				INDEX idx_run_warnings_run (run_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				warning TEXT NOT NULL,
				is_new BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, warning)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				warning TEXT NOT NULL,
				is_new INTEGER NOT NULL,
				PRIMARY KEY (run_id, warning)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, project schema.ProjectSpec, mode schema.BuildMode, invocationID string, configParams map[string]any) (int64, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	args := []any{invocationID, project.Name, project.Variant, project.Target, string(mode), formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (invocation_id, project, variant, target, mode, start_time, config_params)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (invocation_id, project, variant, target, mode, start_time, config_params)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.HistoryRunSummary) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(hs.backend, 1))
	startTime, err := hs.scanTime(hs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	var failedUnits any
	if len(summary.FailedUnits) > 0 {
		failedUnits = strings.Join(summary.FailedUnits, "|")
	}

	p := func(n int) string { return placeholder(hs.backend, n) }
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, outcome = %s, total_warnings = %s, new_warnings = %s, failed_units = %s WHERE run_id = %s`,
		quotedTableName, p(1), p(2), p(3), p(4), p(5), p(6), p(7))
	args := []any{
		formatTime(endTime, hs.backend),
		endTime.Sub(startTime).Milliseconds(),
		string(summary.Outcome),
		summary.TotalWarnings,
		summary.NewWarnings,
		failedUnits,
		runID,
	}

	if _, err := hs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordWarnings stores every warning seen by the run in one transaction.
func (hs *HistoryStoreImpl) RecordWarnings(runID int64, warnings []string, isNew map[string]struct{}) error {
	if hs.backend == schema.NoneBackend || hs.db == nil || len(warnings) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, warning, is_new) VALUES (%s, %s, %s)`,
		quoteTableName(runWarningsTable, hs.backend), placeholder(hs.backend, 1), placeholder(hs.backend, 2), placeholder(hs.backend, 3))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare warning insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, w := range warnings {
		_, flagged := isNew[w]
		if _, err := stmt.Exec(runID, w, flagged); err != nil {
			return fmt.Errorf("failed to insert warning for run %d: %w", runID, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		failedQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE outcome = %s", quotedRuns, placeholder(hs.backend, 1))
		if err := hs.db.QueryRow(failedQuery, string(schema.OutcomeFail)).Scan(&status.FailedRuns); err != nil {
			return status, fmt.Errorf("failed to get failed runs: %w", err)
		}

		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		var err error
		if hs.backend == schema.SQLiteBackend {
			var raw string
			if err = row.Scan(&status.LastRunID, &raw); err == nil {
				status.LastRunTime, err = parseStoredTime(raw)
			}
		} else {
			err = row.Scan(&status.LastRunID, &status.LastRunTime)
		}
		if err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		oldest := hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns))
		if status.OldestRunTime, err = hs.scanTime(oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
	}

	for _, table := range []string{runsTable, runWarningsTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.HistoryRunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, invocation_id, project, variant, target, mode, outcome, start_time, end_time,
		run_duration_ms, total_warnings, new_warnings, failed_units, config_params FROM %s ORDER BY run_id`,
		quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryRunRecord
	for rows.Next() {
		var record schema.HistoryRunRecord
		var mode string

		switch hs.backend {
		case schema.SQLiteBackend:
			var startRaw string
			var endRaw *string
			if err := rows.Scan(&record.RunID, &record.InvocationID, &record.Project, &record.Variant, &record.Target, &mode,
				&record.Outcome, &startRaw, &endRaw, &record.RunDurationMs, &record.TotalWarnings, &record.NewWarnings,
				&record.FailedUnits, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = parseStoredTime(startRaw); err != nil {
				return nil, err
			}
			if endRaw != nil {
				endTime, err := parseStoredTime(*endRaw)
				if err != nil {
					return nil, err
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.InvocationID, &record.Project, &record.Variant, &record.Target, &mode,
				&record.Outcome, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalWarnings, &record.NewWarnings,
				&record.FailedUnits, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		record.Mode = schema.BuildMode(mode)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRunWarnings retrieves every recorded warning ordered by run and text.
func (hs *HistoryStoreImpl) GetAllRunWarnings() ([]schema.HistoryWarningRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, warning, is_new FROM %s ORDER BY run_id, warning`, quoteTableName(runWarningsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run warnings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryWarningRecord
	for rows.Next() {
		var record schema.HistoryWarningRecord
		if err := rows.Scan(&record.RunID, &record.Warning, &record.IsNew); err != nil {
			return nil, fmt.Errorf("failed to scan run warning: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run warnings: %w", err)
	}
	return results, nil
}

// scanTime reads a single time column, parsing SQLite's TEXT representation.
func (hs *HistoryStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if hs.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var raw string
	if err := row.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return parseStoredTime(raw)
}
