package schema

import (
	"sort"
	"strings"
)

// ParseUnitStatus maps a reported status string to a UnitStatus.
// Build tools disagree on spelling, so "up_to_date", "uptodate" and "up-to-date" are equivalent.
func ParseUnitStatus(s string) (UnitStatus, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "SUCCESS", "OK", "EXECUTED":
		return StatusSuccess, true
	case "UPTODATE", "FROMCACHE", "NOSOURCE":
		return StatusUpToDate, true
	case "SKIPPED":
		return StatusSkipped, true
	case "FAILED", "FAILURE":
		return StatusFailed, true
	}
	return "", false
}

// CountsTowardCompletion reports whether a unit in this state is done for completion tracking.
// Failed units are done too; they simply contributed fewer warnings.
func (s UnitStatus) CountsTowardCompletion() bool {
	switch s {
	case StatusSuccess, StatusUpToDate, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// SortedKeys returns the members of a warning set in lexicographic order.
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewWarningSet builds a set from a list of canonical warnings.
func NewWarningSet(warnings ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(warnings))
	for _, w := range warnings {
		set[w] = struct{}{}
	}
	return set
}
