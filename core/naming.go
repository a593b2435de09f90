package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Build command suffixes that select the mode of an invocation.
const (
	WriteTaskName = "WriteKotlinWarningBaseline"
	CheckTaskName = "CheckKotlinWarningBaseline"
)

// UnitKind is the kind of Kotlin compilation a unit performs.
type UnitKind string

// Supported compilation kinds.
const (
	MainUnit        UnitKind = "main"
	UnitTestUnit    UnitKind = "unit-test"
	AndroidTestUnit UnitKind = "android-test"
)

// BaselineFileName returns warning-baseline[-variant][-target].txt.
func BaselineFileName(variant, target string) string {
	return schema.ProjectSpec{Variant: variant, Target: target}.BaselineFileName()
}

// CompileUnitName returns the conventional Gradle task name compiling kind for a variant and target.
func CompileUnitName(kind UnitKind, variant, target string) string {
	switch kind {
	case UnitTestUnit:
		return "compile" + capitalize(variant) + "UnitTestKotlin"
	case AndroidTestUnit:
		// Android test sources only compile for debug.
		return "compileDebugAndroidTestKotlin"
	default:
		return "compile" + capitalize(variant) + "Kotlin" + capitalize(target)
	}
}

// TaskName returns the build command that runs mode for a variant, prefixed by the target
// on multiplatform projects.
func TaskName(mode schema.BuildMode, variant, target string, multiplatform bool) string {
	suffix := CheckTaskName
	if mode == schema.WriteMode {
		suffix = WriteTaskName
	}
	if multiplatform {
		return target + capitalize(variant) + suffix
	}
	if variant == "" {
		return lowerFirst(suffix)
	}
	return variant + suffix
}

// ModeFromTaskNames derives the build mode from requested command names.
// Write wins when both are requested.
func ModeFromTaskNames(names []string) (schema.BuildMode, bool) {
	var check bool
	for _, n := range names {
		base := n
		if i := strings.LastIndex(n, ":"); i >= 0 {
			base = n[i+1:]
		}
		switch {
		case strings.Contains(base, WriteTaskName), strings.EqualFold(base, string(schema.WriteMode)):
			return schema.WriteMode, true
		case strings.Contains(base, CheckTaskName), strings.EqualFold(base, string(schema.CheckMode)):
			check = true
		}
	}
	if check {
		return schema.CheckMode, true
	}
	return "", false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
