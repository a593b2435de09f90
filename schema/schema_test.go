package schema

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningRecordCanonical(t *testing.T) {
	w := WarningRecord{File: "src/main/kotlin/A.kt", Line: 6, Column: 20, Message: "Condition is always 'true'"}
	assert.Equal(t, "src/main/kotlin/A.kt:6:20 Condition is always 'true'", w.Canonical())
}

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want WarningRecord
		ok   bool
	}{
		{"A.kt:6:20 cond always true", WarningRecord{"A.kt", 6, 20, "cond always true"}, true},
		{"my dir/B.kt:1:2 msg: with colon 3:4", WarningRecord{"my dir/B.kt", 1, 2, "msg: with colon 3:4"}, true},
		{"C:/x/C.kt:10:1 drive", WarningRecord{"C:/x/C.kt", 10, 1, "drive"}, true},
		{"A.kt:6 missing column", WarningRecord{}, false},
		{"", WarningRecord{}, false},
		{"A.kt:6:20", WarningRecord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCanonical(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Equal(t, tt.in, got.Canonical())
			}
		})
	}
}

func TestProjectSpecPaths(t *testing.T) {
	dir := filepath.Join("work", "app")
	tests := []struct {
		name     string
		spec     ProjectSpec
		fileName string
		scratch  string
	}{
		{"plain", ProjectSpec{Dir: dir}, "warning-baseline.txt", filepath.Join(dir, "build", "kotlin-warning", "warning-baseline.txt")},
		{"variant", ProjectSpec{Dir: dir, Variant: "release"}, "warning-baseline-release.txt", filepath.Join(dir, "build", "kotlin-warning", "warning-baseline-release.txt")},
		{"variant and target", ProjectSpec{Dir: dir, Variant: "release", Target: "android"}, "warning-baseline-release-android.txt", filepath.Join(dir, "build", "kotlin-warning", "warning-baseline-release-android.txt")},
		{"target only", ProjectSpec{Dir: dir, Target: "jvm", ScratchDir: "tmp"}, "warning-baseline-jvm.txt", filepath.Join("tmp", "warning-baseline-jvm.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fileName, tt.spec.BaselineFileName())
			assert.Equal(t, filepath.Join(dir, tt.fileName), tt.spec.BaselinePath())
			assert.Equal(t, tt.scratch, tt.spec.ScratchPath())
		})
	}
}

func TestParseUnitStatus(t *testing.T) {
	tests := []struct {
		in   string
		want UnitStatus
		ok   bool
	}{
		{"SUCCESS", StatusSuccess, true},
		{"success", StatusSuccess, true},
		{"UP-TO-DATE", StatusUpToDate, true},
		{"up_to_date", StatusUpToDate, true},
		{"UpToDate", StatusUpToDate, true},
		{"skipped", StatusSkipped, true},
		{"FAILED", StatusFailed, true},
		{"running", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUnitStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountsTowardCompletion(t *testing.T) {
	for _, s := range []UnitStatus{StatusSuccess, StatusUpToDate, StatusSkipped, StatusFailed} {
		assert.True(t, s.CountsTowardCompletion(), s)
	}
	assert.False(t, UnitStatus("RUNNING").CountsTowardCompletion())
}

func TestSortedKeys(t *testing.T) {
	set := NewWarningSet("b.kt:1:1 x", "a.kt:2:1 y", "a.kt:10:1 z", "b.kt:1:1 x")
	require.Len(t, set, 3)
	assert.Equal(t, []string{"a.kt:10:1 z", "a.kt:2:1 y", "b.kt:1:1 x"}, SortedKeys(set))
}

func TestFinalizeOutcomeFailed(t *testing.T) {
	var nilOutcome *FinalizeOutcome
	assert.False(t, nilOutcome.Failed())
	assert.True(t, (&FinalizeOutcome{Outcome: OutcomeFail}).Failed())
	assert.False(t, (&FinalizeOutcome{Outcome: OutcomeNoBaseline}).Failed())
}
