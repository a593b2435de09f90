package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/manifest"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Default values for configuration.
const (
	DefaultDebounce = 500 * time.Millisecond
	MaxDebounce     = time.Minute
	DateTimeFormat  = "2006-01-02 15:04:05"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a warnbase invocation.
// This struct remains the "final, validated" config.
type Config struct {
	ProjectDir  string // Absolute project directory holding baseline files
	ProjectName string
	SourceRoot  string // Absolute root used to relativize diagnostic paths
	Variant     string
	Target      string
	ScratchDir  string // Absolute scratch directory; empty means <ProjectDir>/build/kotlin-warning
	Units       []schema.UnitSource
	Excludes    []string // Path patterns whose warnings are dropped at ingestion

	Workers    int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   string

	ReplayUpToDate bool          // Replay cached warnings for units reported UP-TO-DATE
	Debounce       time.Duration // Quiet period before watch re-runs a check
	EventsPath     string        // NDJSON event stream for the run command ("-" is stdin)

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	ProjectDirStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Project          string   `mapstructure:"project"`
	Variant          string   `mapstructure:"variant"`
	Target           string   `mapstructure:"target"`
	SourceRoot       string   `mapstructure:"source-root"`
	ScratchDir       string   `mapstructure:"scratch-dir"`
	Unit             []string `mapstructure:"unit"`
	Exclude          string   `mapstructure:"exclude"`
	Workers          int      `mapstructure:"workers"`
	Output           string   `mapstructure:"output"`
	OutputFile       string   `mapstructure:"output-file"`
	Width            int      `mapstructure:"width"`
	Color            string   `mapstructure:"color"`
	LogLevel         string   `mapstructure:"log-level"`
	CacheBackend     string   `mapstructure:"cache-backend"`
	CacheDBConnect   string   `mapstructure:"cache-db-connect"`
	HistoryBackend   string   `mapstructure:"history-backend"`
	HistoryDBConnect string   `mapstructure:"history-db-connect"`
	ReplayUpToDate   bool     `mapstructure:"replay-up-to-date"`

	// --- Fields from watchCmd.Flags() ---
	Debounce string `mapstructure:"debounce"`

	// --- Fields from runCmd.Flags() ---
	Events string `mapstructure:"events"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Units != nil {
		clone.Units = make([]schema.UnitSource, len(c.Units))
		copy(clone.Units, c.Units)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// ProjectSpec returns the project description the core operates on.
func (c *Config) ProjectSpec() schema.ProjectSpec {
	return schema.ProjectSpec{
		Name:       c.ProjectName,
		Dir:        c.ProjectDir,
		SourceRoot: c.SourceRoot,
		Variant:    c.Variant,
		Target:     c.Target,
		ScratchDir: c.ScratchDir,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDebounce(cfg, input); err != nil {
		return err
	}
	if err := resolveProject(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates unit cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Validate that cache and history use different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ReplayUpToDate = input.ReplayUpToDate
	cfg.EventsPath = input.Events

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, yaml, github", input.Output)
	}

	// --- 3. Width Validation ---
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	// --- 4. Log Level Validation ---
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, ok := ValidLogLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("invalid log level '%s'. must be trace, debug, info, warn, error", input.LogLevel)
	}

	// --- 5. Excludes Processing ---
	cfg.Excludes = nil
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	return nil
}

// processDebounce parses the watch debounce window.
func processDebounce(cfg *Config, input *ConfigRawInput) error {
	cfg.Debounce = DefaultDebounce
	if input.Debounce == "" {
		return nil
	}
	d, err := time.ParseDuration(input.Debounce)
	if err != nil {
		return fmt.Errorf("invalid --debounce value %q: %w", input.Debounce, err)
	}
	if d <= 0 || d > MaxDebounce {
		return fmt.Errorf("debounce must be greater than 0 and at most %s (received %s)", MaxDebounce, d)
	}
	cfg.Debounce = d
	return nil
}

// resolveProject resolves the project directory, merges the project manifest
// and resolves every path relative to the project directory.
func resolveProject(cfg *Config, input *ConfigRawInput) error {
	searchPath := input.ProjectDirStr
	if searchPath == "" {
		searchPath = "."
	}
	absProject, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absProject = filepath.Clean(absProject)

	info, err := os.Stat(absProject)
	if err != nil {
		return fmt.Errorf("project directory %q is not accessible: %w", searchPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %q is not a directory", searchPath)
	}
	cfg.ProjectDir = absProject

	m, err := manifest.Load(absProject)
	if err != nil {
		return err
	}

	// Flags take precedence over the manifest, which takes precedence over defaults.
	cfg.ProjectName = firstNonEmpty(input.Project, m.Project.Name, filepath.Base(absProject))
	cfg.Variant = firstNonEmpty(input.Variant, m.Project.Variant)
	cfg.Target = firstNonEmpty(input.Target, m.Project.Target)
	cfg.SourceRoot = resolveUnder(absProject, firstNonEmpty(input.SourceRoot, m.Project.SourceRoot, "."))
	if scratch := firstNonEmpty(input.ScratchDir, m.Project.ScratchDir); scratch != "" {
		cfg.ScratchDir = resolveUnder(absProject, scratch)
	} else {
		cfg.ScratchDir = ""
	}

	cfg.Units = nil
	if len(input.Unit) > 0 {
		seen := make(map[string]struct{}, len(input.Unit))
		for _, raw := range input.Unit {
			unit, err := ParseUnitFlag(raw)
			if err != nil {
				return err
			}
			if _, dup := seen[unit.Name]; dup {
				return fmt.Errorf("unit %q is declared more than once", unit.Name)
			}
			seen[unit.Name] = struct{}{}
			unit.LogPath = resolveUnder(absProject, unit.LogPath)
			cfg.Units = append(cfg.Units, unit)
		}
	} else {
		for _, unit := range m.Units {
			unit.LogPath = resolveUnder(absProject, unit.LogPath)
			cfg.Units = append(cfg.Units, unit)
		}
	}

	cfg.Excludes = append(cfg.Excludes, m.Project.Exclude...)
	return nil
}

// resolveUnder makes p absolute, treating relative paths as relative to base.
func resolveUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
