package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/outwriter"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendConfig reads and validates the history backend settings.
func historyBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}

	// Get output-related config values (used by list and export)
	output := schema.OutputMode(strings.ToLower(viper.GetString("output")))
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, yaml, github", output)
	}
	colors, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}

	// Initialize stores with the loaded config (no unit cache for history commands)
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.Output = output
	cfg.OutputFile = viper.GetString("output-file")
	cfg.UseColors = colors

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyStore returns the initialized history store or exits when none is configured.
func historyStore(action string) contract.HistoryStore {
	store := iocache.Manager.GetHistoryStore()
	if store == nil {
		contract.LogFatal(action, fmt.Errorf("no history backend configured, set --history-backend"))
	}
	return store
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by baseline commands. This avoids project resolution
// and manifest loading for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of write and check runs",
	Long: `Manage the record of every finalized write and check.

When enabled, warnbase records every finalization, storing:
- Run metadata (project, variant, target, mode, duration, outcome)
- Every warning of the run and whether the baseline covered it

This enables tracking warning debt over time and exporting it for BI tools.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history tracking statistics
  list    - Show recorded runs, newest first
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  warnbase history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  warnbase history export --history-backend sqlite --output-file warnbase-history`,
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and warnings",
	Long: `Delete all stored runs and their warnings.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  warnbase history export --output-file backup
  warnbase history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history data", err)
		}
		fmt.Println("History data cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history tracking statistics and connection details",
	Long: `Show detailed information about run history tracking.

Displays:
- Backend type and connection status
- Total and failed runs stored
- Last and oldest run timestamps
- Database table sizes

Examples:
  warnbase history status`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := historyStore("Failed to get history status").GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyListCmd lists recorded runs.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recorded runs, newest first",
	Long: `List recorded write and check runs with their outcome and warning counts.

Examples:
  warnbase history list --limit 20
  warnbase history list --output csv --output-file runs.csv`,
	PreRunE: historySetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		runs, err := historyStore("Failed to list runs").GetAllRuns()
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		slices.Reverse(runs)
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(runs) > limit {
			runs = runs[:limit]
		}
		if err := outwriter.WriteHistoryRuns(runs, cfg); err != nil {
			contract.LogFatal("Failed to write runs", err)
		}
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and warnings to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <output-file>.runs.parquet         - metadata about each run
- <output-file>.run_warnings.parquet - every warning of every run

Requires: --output-file parameter

Examples:
  warnbase history export --output-file warnbase-history
  duckdb -c "SELECT project, count(*) FROM read_parquet('warnbase-history.runs.parquet') GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, historyStore("Failed to export history data"), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history data", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  warnbase history migrate --history-backend postgresql --history-db-connect "host=... dbname=..."

  # Rollback to initial state
  warnbase history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
