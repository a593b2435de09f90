package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Outcome label constants.
const (
	PassValue     = "PASS"     // Check found nothing new
	FailValue     = "FAIL"     // Check found new warnings
	AdvisoryValue = "ADVISORY" // Check passed without a baseline on disk
	WrittenValue  = "WRITTEN"  // Baseline written or unchanged
	PrunedValue   = "PRUNED"   // Baseline deleted because no warnings remained
	UnknownValue  = "UNKNOWN"  // Anything else
)

// Color variables for console output.
var (
	FailColor     = color.New(color.FgRed, color.Bold)
	AdvisoryColor = color.New(color.FgYellow)
	PassColor     = color.New(color.FgGreen, color.Bold)
	InfoColor     = color.New(color.FgCyan)
)

// GetPlainLabel returns a plain text label for an outcome. This is the core logic used for
// CSV, JSON, and table printing.
func GetPlainLabel(outcome schema.Outcome) string {
	switch outcome {
	case schema.OutcomePass:
		return PassValue
	case schema.OutcomeFail:
		return FailValue
	case schema.OutcomeNoBaseline:
		return AdvisoryValue
	case schema.OutcomeWritten, schema.OutcomeUnchanged:
		return WrittenValue
	case schema.OutcomePruned:
		return PrunedValue
	default:
		return UnknownValue
	}
}

// GetColorLabel returns a colored text label for console output.
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(outcome schema.Outcome) string {
	text := GetPlainLabel(outcome)

	switch text {
	case FailValue:
		return FailColor.Sprint(text)
	case AdvisoryValue:
		return AdvisoryColor.Sprint(text)
	case PassValue:
		return PassColor.Sprint(text)
	default:
		return InfoColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "build/generated/", "*Test.kt", ".kts".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *Test.kt)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the unit cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".warnbase_cache.db"
	}
	return filepath.Join(homeDir, ".warnbase_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".warnbase_history.db"
	}
	return filepath.Join(homeDir, ".warnbase_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseUnitFlag parses a "name=path" unit binding.
func ParseUnitFlag(s string) (schema.UnitSource, error) {
	name, path, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return schema.UnitSource{}, fmt.Errorf("invalid unit %q (expected name=path)", s)
	}
	return schema.UnitSource{Name: name, LogPath: path}, nil
}
