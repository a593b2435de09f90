package cmd

import (
	"fmt"
	"os"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by baseline commands. This avoids project resolution
// and manifest loading for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the unit warning cache (enables up-to-date replay)",
	Long: `Manage the cache of per-unit warning snapshots.

Every unit that compiles successfully stores the warnings it produced. With
--replay-up-to-date, units the build skips as UP-TO-DATE replay their cached
warnings so incremental builds still produce a complete baseline.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  warnbase cache status

  # Clear cache after a clean build
  warnbase cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached unit warning snapshots",
	Long: `Delete all cached unit warning snapshots from the configured backend.

Use this when:
- Compiler or Kotlin version changed the warnings it reports
- Cache may be stale or corrupted
- Testing replay behavior from scratch

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  warnbase cache clear

  # Clear MySQL cache (set connection string via env variable)
  WARNBASE_CACHE_BACKEND=mysql WARNBASE_CACHE_DB_CONNECT="..." warnbase cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the unit warning cache.

Displays:
- Backend type and connection status
- Total number of cached unit snapshots
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  warnbase cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetUnitCache()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("no cache backend configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
