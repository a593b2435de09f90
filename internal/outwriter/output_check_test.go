package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleCheckResult() *schema.CheckResult {
	app := schema.ProjectSpec{Name: "app", Dir: "/repo/app", Variant: "release"}
	lib := schema.ProjectSpec{Name: "lib", Dir: "/repo/lib"}
	core := schema.ProjectSpec{Name: "core", Dir: "/repo/core"}
	return &schema.CheckResult{
		Passed:       false,
		TotalNew:     2,
		InvocationID: "run-1",
		Pending:      []string{"feature"},
		Outcomes: []*schema.FinalizeOutcome{
			{
				Project:  app,
				Mode:     schema.CheckMode,
				Outcome:  schema.OutcomeFail,
				Warnings: 3,
				Diff: &schema.DiffResult{
					NewWarnings: []string{
						"src/A.kt:6:20 Condition is always 'true'",
						"src/B,C.kt:1:1 50% done: really",
					},
					Outcome: schema.OutcomeFail,
				},
				Report:       "Found 2 warnings behind baseline:\n\nsrc/A.kt:6:20 Condition is always 'true'\nsrc/B,C.kt:1:1 50% done: really\n",
				BaselinePath: app.BaselinePath(),
				FailedUnits:  []string{"compileReleaseUnitTestKotlin"},
			},
			{
				Project:      lib,
				Mode:         schema.CheckMode,
				Outcome:      schema.OutcomeNoBaseline,
				Warnings:     0,
				Diff:         &schema.DiffResult{Outcome: schema.OutcomeNoBaseline, Advisory: schema.NoBaselineAdvisory, Passed: true},
				BaselinePath: lib.BaselinePath(),
			},
			{
				Project:      core,
				Mode:         schema.CheckMode,
				Outcome:      schema.OutcomePass,
				Warnings:     4,
				Diff:         &schema.DiffResult{Outcome: schema.OutcomePass, Passed: true, BaselineFound: true},
				BaselinePath: core.BaselinePath(),
			},
		},
	}
}

func TestWriteCheckText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCheckText(&buf, sampleCheckResult(), false, 1500*time.Millisecond))
	out := buf.String()

	assert.Contains(t, out, "FAIL app (release)\nFound 2 warnings behind baseline:")
	assert.Contains(t, out, "failed units (warnings may be incomplete): compileReleaseUnitTestKotlin")
	assert.Contains(t, out, "ADVISORY lib: "+schema.NoBaselineAdvisory+" (0 warnings)")
	assert.Contains(t, out, "PASS core: 4 warnings, all covered by warning-baseline.txt")
	assert.Contains(t, out, "⏳ feature never finished all of its units")
	assert.True(t, strings.HasSuffix(out, "Checked 3 project(s) in 1.5s: failed with 2 new warning(s)\n"))
}

func TestWriteCheckTextFailWithoutBaseline(t *testing.T) {
	spec := schema.ProjectSpec{Name: "app", Dir: "/repo/app"}
	result := &schema.CheckResult{
		TotalNew: 1,
		Outcomes: []*schema.FinalizeOutcome{{
			Project:  spec,
			Mode:     schema.CheckMode,
			Outcome:  schema.OutcomeFail,
			Warnings: 1,
			Diff: &schema.DiffResult{
				NewWarnings: []string{"A.kt:6:20 cond always true"},
				Outcome:     schema.OutcomeFail,
				Advisory:    schema.NoBaselineAdvisory,
			},
			Report: "Found 1 warnings behind baseline:\n\nA.kt:6:20 cond always true\n",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCheckText(&buf, result, false, time.Second))
	out := buf.String()
	assert.Contains(t, out, "FAIL app: "+schema.NoBaselineAdvisory+"\nFound 1 warnings behind baseline:")
	assert.Contains(t, out, "A.kt:6:20 cond always true\n")
}

func TestWriteCheckTextWriteOutcomes(t *testing.T) {
	spec := schema.ProjectSpec{Name: "app", Dir: "/repo/app"}
	result := &schema.CheckResult{
		Passed: true,
		Outcomes: []*schema.FinalizeOutcome{
			{Project: spec, Mode: schema.WriteMode, Outcome: schema.OutcomeWritten, Warnings: 2, BaselinePath: "/repo/app/warning-baseline.txt"},
			{Project: spec, Mode: schema.WriteMode, Outcome: schema.OutcomeUnchanged, Warnings: 2, BaselinePath: "/repo/app/warning-baseline.txt"},
			{Project: spec, Mode: schema.WriteMode, Outcome: schema.OutcomePruned, BaselinePath: "/repo/app/warning-baseline.txt"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCheckText(&buf, result, false, time.Second))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"WRITTEN app: wrote 2 warnings to /repo/app/warning-baseline.txt",
		"WRITTEN app: 2 warnings, /repo/app/warning-baseline.txt already up to date",
		"PRUNED app: no warnings left, removed /repo/app/warning-baseline.txt",
		"Checked 3 project(s) in 1s: passed",
	}, lines)
}

func TestWriteCheckCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCheckCSV(&buf, sampleCheckResult()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "project,variant,target,mode,outcome,label,warnings,new_warnings,failed_units,baseline_path,invocation_id", lines[0])
	assert.Equal(t, "app,release,,check,fail,FAIL,3,2,compileReleaseUnitTestKotlin,/repo/app/warning-baseline-release.txt,run-1", lines[1])
	assert.Equal(t, "lib,,,check,no-baseline,ADVISORY,0,0,,/repo/lib/warning-baseline.txt,run-1", lines[2])
}

func TestWriteCheckAnnotations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCheckAnnotations(&buf, sampleCheckResult()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"::error file=src/A.kt,line=6,col=20,title=New warning in app::Condition is always 'true'",
		"::error file=src/B%2CC.kt,line=1,col=1,title=New warning in app::50%25 done: really",
		"::warning title=lib::" + schema.NoBaselineAdvisory,
		"::warning title=feature::project never finished all of its units",
	}, lines)
}

func TestAnnotationUnparsedWarning(t *testing.T) {
	got := annotation(schema.ProjectSpec{Name: "app"}, "not canonical")
	assert.Equal(t, "::error title=New warning in app::not canonical", got)
}

func TestWriteCheckResultFormats(t *testing.T) {
	tests := []struct {
		name   string
		output schema.OutputMode
		verify func(t *testing.T, content []byte)
	}{
		{
			name:   "json",
			output: schema.JSONOut,
			verify: func(t *testing.T, content []byte) {
				var got schema.CheckResult
				require.NoError(t, json.Unmarshal(content, &got))
				assert.Equal(t, "run-1", got.InvocationID)
				require.Len(t, got.Outcomes, 3)
				assert.Equal(t, schema.OutcomeFail, got.Outcomes[0].Outcome)
			},
		},
		{
			name:   "yaml",
			output: schema.YAMLOut,
			verify: func(t *testing.T, content []byte) {
				var got map[string]any
				require.NoError(t, yaml.Unmarshal(content, &got))
				assert.Equal(t, false, got["passed"])
				assert.Equal(t, 2, got["total_new"])
				assert.Equal(t, []any{"feature"}, got["pending"])
			},
		},
		{
			name:   "github",
			output: schema.GitHubOut,
			verify: func(t *testing.T, content []byte) {
				assert.True(t, strings.HasPrefix(string(content), "::error file=src/A.kt"))
			},
		},
		{
			name:   "text",
			output: schema.TextOut,
			verify: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), "Checked 3 project(s)")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out")
			cfg := &contract.Config{Output: tt.output, OutputFile: path}
			require.NoError(t, WriteCheckResult(sampleCheckResult(), cfg, time.Second))
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.verify(t, content)
		})
	}
}
