package schema

import "time"

// DiffResult holds the outcome of comparing a live warning set with a baseline.
type DiffResult struct {
	NewWarnings   []string `json:"new_warnings" yaml:"new_warnings"` // current - baseline, sorted
	Passed        bool     `json:"passed" yaml:"passed"`
	BaselineFound bool     `json:"baseline_found" yaml:"baseline_found"`
	Outcome       Outcome  `json:"outcome" yaml:"outcome"`
	Advisory      string   `json:"advisory,omitempty" yaml:"advisory,omitempty"`
	CurrentCount  int      `json:"current_count" yaml:"current_count"`
	BaselineCount int      `json:"baseline_count" yaml:"baseline_count"`
}

// FinalizeOutcome is what exactly-once finalization produced for a project.
type FinalizeOutcome struct {
	Project      ProjectSpec `json:"project" yaml:"project"`
	Mode         BuildMode   `json:"mode" yaml:"mode"`
	Outcome      Outcome     `json:"outcome" yaml:"outcome"`
	Warnings     int         `json:"warnings" yaml:"warnings"`
	FailedUnits  []string    `json:"failed_units,omitempty" yaml:"failed_units,omitempty"`
	Diff         *DiffResult `json:"diff,omitempty" yaml:"diff,omitempty"`
	Report       string      `json:"report,omitempty" yaml:"report,omitempty"`
	BaselinePath string      `json:"baseline_path" yaml:"baseline_path"`
	ScratchPath  string      `json:"scratch_path,omitempty" yaml:"scratch_path,omitempty"`
	FinishedAt   time.Time   `json:"finished_at" yaml:"finished_at"`
}

// Failed reports whether the outcome must fail the invocation.
func (o *FinalizeOutcome) Failed() bool {
	return o != nil && o.Outcome == OutcomeFail
}

// CheckResult holds the results of a baseline check across one or more projects.
type CheckResult struct {
	Passed       bool               `json:"passed" yaml:"passed"`
	Outcomes     []*FinalizeOutcome `json:"outcomes" yaml:"outcomes"`
	TotalNew     int                `json:"total_new" yaml:"total_new"`
	InvocationID string             `json:"invocation_id" yaml:"invocation_id"`
	Pending      []string           `json:"pending,omitempty" yaml:"pending,omitempty"` // Projects that never finalized
}
