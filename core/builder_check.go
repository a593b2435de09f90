package core

import (
	"sort"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// CheckResultBuilder builds the check result using a builder pattern.
type CheckResultBuilder struct {
	invocationID string
	outcomes     []*schema.FinalizeOutcome
	pending      []string
	result       *schema.CheckResult
}

// NewCheckResultBuilder creates a new builder for check results.
func NewCheckResultBuilder(invocationID string) *CheckResultBuilder {
	return &CheckResultBuilder{invocationID: invocationID}
}

// AddOutcomes appends finalized project outcomes. Nil outcomes are ignored.
func (b *CheckResultBuilder) AddOutcomes(outcomes ...*schema.FinalizeOutcome) *CheckResultBuilder {
	for _, o := range outcomes {
		if o != nil {
			b.outcomes = append(b.outcomes, o)
		}
	}
	return b
}

// WithPending records projects that never finalized.
func (b *CheckResultBuilder) WithPending(pending []string) *CheckResultBuilder {
	b.pending = append(b.pending, pending...)
	return b
}

// BuildResult constructs the final CheckResult.
func (b *CheckResultBuilder) BuildResult() *CheckResultBuilder {
	sort.SliceStable(b.outcomes, func(i, j int) bool {
		return b.outcomes[i].Project.Name < b.outcomes[j].Project.Name
	})
	sort.Strings(b.pending)

	passed := true
	totalNew := 0
	for _, o := range b.outcomes {
		if o.Failed() {
			passed = false
		}
		if o.Diff != nil {
			totalNew += len(o.Diff.NewWarnings)
		}
	}

	b.result = &schema.CheckResult{
		Passed:       passed,
		Outcomes:     b.outcomes,
		TotalNew:     totalNew,
		InvocationID: b.invocationID,
		Pending:      b.pending,
	}
	return b
}

// GetResult returns the built CheckResult.
func (b *CheckResultBuilder) GetResult() *schema.CheckResult {
	return b.result
}

// FailedOutcomes returns the outcomes that fail the invocation.
func FailedOutcomes(result *schema.CheckResult) []*schema.FinalizeOutcome {
	var failed []*schema.FinalizeOutcome
	for _, o := range result.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
