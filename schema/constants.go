package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// BuildMode represents whether a build invocation writes or checks a baseline.
	BuildMode string

	// UnitStatus represents the terminal state of a compilation unit.
	UnitStatus string

	// Outcome represents the result of finalizing a project.
	Outcome string

	// EventKind represents the type of a build event.
	EventKind string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All output modes supported.
const (
	TextOut   OutputMode = "text" // default
	JSONOut   OutputMode = "json"
	CSVOut    OutputMode = "csv"
	YAMLOut   OutputMode = "yaml"
	GitHubOut OutputMode = "github"
)

// All build modes supported.
const (
	WriteMode BuildMode = "write"
	CheckMode BuildMode = "check"
)

// All unit statuses reported by the build.
const (
	StatusSuccess  UnitStatus = "SUCCESS"
	StatusUpToDate UnitStatus = "UP-TO-DATE"
	StatusSkipped  UnitStatus = "SKIPPED"
	StatusFailed   UnitStatus = "FAILED"
)

// All finalization outcomes.
const (
	OutcomePass       Outcome = "pass"
	OutcomeFail       Outcome = "fail"
	OutcomeNoBaseline Outcome = "no-baseline"
	OutcomeWritten    Outcome = "written"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomePruned     Outcome = "pruned"
)

// All build event kinds.
const (
	EventRegister   EventKind = "register"
	EventDiagnostic EventKind = "diagnostic"
	EventFinished   EventKind = "finished"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// File naming used for baselines and scratch snapshots.
const (
	BaselineFilePrefix = "warning-baseline"
	BaselineFileExt    = ".txt"
	ScratchDirName     = "kotlin-warning"
	DefaultBuildDir    = "build"
	ManifestFileName   = "warnbase.toml"
)

// NoBaselineAdvisory is emitted when a check runs without a baseline file.
const NoBaselineAdvisory = "WARNING: No baseline file detected. Assuming no baseline."

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:   {},
	JSONOut:   {},
	CSVOut:    {},
	YAMLOut:   {},
	GitHubOut: {},
}

// ValidBuildModes lists all valid build modes.
var ValidBuildModes = map[BuildMode]struct{}{
	WriteMode: {},
	CheckMode: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
