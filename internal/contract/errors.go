package contract

import (
	"errors"
	"fmt"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Sentinel errors. Callers match them with errors.Is through any wrapping.
var (
	// ErrMalformedDiagnostic marks a diagnostic line that does not parse as a warning.
	// It never escapes the normalizer; such lines are skipped.
	ErrMalformedDiagnostic = errors.New("malformed diagnostic line")

	// ErrBaselineRead means an existing baseline could not be read. It aborts a check.
	ErrBaselineRead = errors.New("baseline read failed")

	// ErrBaselineWrite means a baseline or snapshot could not be persisted. It aborts a write.
	ErrBaselineWrite = errors.New("baseline write failed")

	// ErrMissingSubscription means a project reached finalization without a live subscription.
	// This is a programming error, never a user condition.
	ErrMissingSubscription = errors.New("missing subscription at finalization")

	// ErrAlreadyFinalized is returned when a finalized project is registered again.
	ErrAlreadyFinalized = errors.New("project already finalized")

	// ErrModeConflict is returned when one project is registered for both write and check.
	ErrModeConflict = errors.New("conflicting build modes for project")
)

// DiffFailure is the expected, user-facing failure of a check: warnings exist that
// the baseline does not cover. The error text is the full report.
type DiffFailure struct {
	Project schema.ProjectSpec
	Result  schema.DiffResult
	Report  string
}

func (e *DiffFailure) Error() string {
	return e.Report
}

// NewDiffFailure builds a DiffFailure for a failed outcome.
func NewDiffFailure(outcome *schema.FinalizeOutcome) *DiffFailure {
	df := &DiffFailure{Project: outcome.Project, Report: outcome.Report}
	if outcome.Diff != nil {
		df.Result = *outcome.Diff
	}
	return df
}

// IsUserVisible reports whether err belongs to the classes a user is expected to act on.
func IsUserVisible(err error) bool {
	var df *DiffFailure
	if errors.As(err, &df) {
		return true
	}
	return errors.Is(err, ErrBaselineRead) || errors.Is(err, ErrBaselineWrite)
}

// WrapBaselineRead attaches the read sentinel and path to an I/O error.
func WrapBaselineRead(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBaselineRead, path, err)
}

// WrapBaselineWrite attaches the write sentinel and path to an I/O error.
func WrapBaselineWrite(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBaselineWrite, path, err)
}
