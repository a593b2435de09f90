// Package cmd defines the command-line interface for warnbase.
package cmd

import (
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("project", "", "Project name (defaults to the manifest name or the directory name)")
	rootCmd.PersistentFlags().String("variant", "", "Build variant selecting the baseline file, e.g. debug or release")
	rootCmd.PersistentFlags().String("target", "", "Multiplatform target selecting the baseline file, e.g. jvm or android")
	rootCmd.PersistentFlags().String("source-root", "", "Root that diagnostic paths are relativized against (defaults to the project directory)")
	rootCmd.PersistentFlags().String("scratch-dir", "", "Directory for live warning snapshots (defaults to build/kotlin-warning)")
	rootCmd.PersistentFlags().StringArray("unit", nil, "Compilation unit as name=path-to-log (repeatable, replaces manifest units)")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns whose warnings are ignored")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of unit logs streamed concurrently")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or yaml or github")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Diagnostic log level: trace or debug or info or warn or error")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Unit cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().Bool("replay-up-to-date", false, "Replay cached warnings for units the build reports as UP-TO-DATE")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of watchCmd to Viper
	watchCmd.Flags().String("debounce", contract.DefaultDebounce.String(), "Quiet period after a log change before re-running the check")
	if err := viper.BindPFlags(watchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding watch flags", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().String("events", "-", "NDJSON build event stream to consume (- for stdin)")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		contract.LogFatal("Error binding run flags", err)
	}

	historyListCmd.Flags().Int("limit", 0, "Maximum number of runs to show (0 = all)")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
