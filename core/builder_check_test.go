package core

import (
	"testing"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResultBuilder_AllPassed(t *testing.T) {
	result := NewCheckResultBuilder("inv").
		AddOutcomes(
			&schema.FinalizeOutcome{Project: schema.ProjectSpec{Name: "lib"}, Outcome: schema.OutcomePass, Diff: &schema.DiffResult{}},
			nil,
			&schema.FinalizeOutcome{Project: schema.ProjectSpec{Name: "app"}, Outcome: schema.OutcomeNoBaseline},
		).
		BuildResult().
		GetResult()

	require.NotNil(t, result)
	assert.True(t, result.Passed)
	assert.Equal(t, "inv", result.InvocationID)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "app", result.Outcomes[0].Project.Name)
	assert.Empty(t, FailedOutcomes(result))
}

func TestCheckResultBuilder_Failure(t *testing.T) {
	failing := &schema.FinalizeOutcome{
		Project: schema.ProjectSpec{Name: "app"},
		Outcome: schema.OutcomeFail,
		Diff:    &schema.DiffResult{NewWarnings: []string{"A.kt:1:1 x", "B.kt:1:1 y"}},
	}
	result := NewCheckResultBuilder("inv").
		AddOutcomes(failing).
		WithPending([]string{"zeta", "alpha"}).
		BuildResult().
		GetResult()

	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.TotalNew)
	assert.Equal(t, []string{"alpha", "zeta"}, result.Pending)
	assert.Equal(t, []*schema.FinalizeOutcome{failing}, FailedOutcomes(result))
}

func TestCheckResultBuilder_Empty(t *testing.T) {
	b := NewCheckResultBuilder("inv")
	assert.Nil(t, b.GetResult())
	result := b.BuildResult().GetResult()
	assert.True(t, result.Passed)
	assert.Empty(t, result.Outcomes)
}
