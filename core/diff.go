package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Diff returns current minus baseline in lexicographic order.
func Diff(current, baseline map[string]struct{}) []string {
	out := make([]string, 0)
	for w := range current {
		if _, ok := baseline[w]; !ok {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// Evaluate compares the live set with a loaded baseline and classifies the outcome.
// A missing baseline is treated as empty and reported through the advisory.
func Evaluate(current map[string]struct{}, baseline schema.Baseline) schema.DiffResult {
	result := schema.DiffResult{
		NewWarnings:   Diff(current, baseline.Entries),
		BaselineFound: baseline.Existed,
		CurrentCount:  len(current),
		BaselineCount: len(baseline.Entries),
	}
	if !baseline.Existed {
		result.Advisory = schema.NoBaselineAdvisory
	}
	result.Passed = len(result.NewWarnings) == 0

	switch {
	case !result.Passed:
		result.Outcome = schema.OutcomeFail
	case !baseline.Existed:
		result.Outcome = schema.OutcomeNoBaseline
	default:
		result.Outcome = schema.OutcomePass
	}
	return result
}

// FormatReport renders the failure report: header, guidance, then one warning per line.
func FormatReport(result schema.DiffResult, guidance string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d warnings behind baseline:\n", len(result.NewWarnings))
	if guidance != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(guidance, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	for _, w := range result.NewWarnings {
		sb.WriteString(w)
		sb.WriteString("\n")
	}
	return sb.String()
}

// DefaultGuidance tells the user how to regenerate the baseline for spec.
func DefaultGuidance(spec schema.ProjectSpec) string {
	cmd := "warnbase write"
	if spec.Dir != "" {
		cmd += " " + filepath.ToSlash(spec.Dir)
	}
	if spec.Variant != "" {
		cmd += " --variant " + spec.Variant
	}
	if spec.Target != "" {
		cmd += " --target " + spec.Target
	}
	return "Please try and address the warnings listed.\n" +
		"As a last resort, you can regenerate the baseline\n" +
		"`" + cmd + "`"
}
