// Package schema has models and constants for all parts of warnbase.
package schema

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// WarningRecord is a single compiler warning after normalization.
// Identity is positional: the same message on a different line is a different warning.
type WarningRecord struct {
	File    string `json:"file" yaml:"file"` // Path relative to the source root, slash separated
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Message string `json:"message" yaml:"message"`
}

// Canonical renders the record as "<file>:<line>:<column> <message>".
func (w WarningRecord) Canonical() string {
	return fmt.Sprintf("%s:%d:%d %s", w.File, w.Line, w.Column, w.Message)
}

// canonicalPattern matches "<file>:<line>:<column> <message>"; file may contain spaces.
var canonicalPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+) (.+)$`)

// ParseCanonical is the inverse of Canonical. It returns false when s is not a canonical warning.
func ParseCanonical(s string) (WarningRecord, bool) {
	m := canonicalPattern.FindStringSubmatch(s)
	if m == nil {
		return WarningRecord{}, false
	}
	line, err := strconv.Atoi(m[2])
	if err != nil {
		return WarningRecord{}, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return WarningRecord{}, false
	}
	return WarningRecord{File: m[1], Line: line, Column: col, Message: m[4]}, true
}

// ProjectSpec identifies one baseline-owning project for a build invocation.
type ProjectSpec struct {
	Name       string `json:"name" yaml:"name"`
	Dir        string `json:"dir" yaml:"dir"`                                     // Project directory holding the baseline
	SourceRoot string `json:"source_root,omitempty" yaml:"source_root,omitempty"` // Root used to relativize diagnostic paths, defaults to Dir
	Variant    string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Target     string `json:"target,omitempty" yaml:"target,omitempty"`
	ScratchDir string `json:"scratch_dir,omitempty" yaml:"scratch_dir,omitempty"` // Defaults to <Dir>/build/kotlin-warning
}

// BaselineFileName returns warning-baseline[-<variant>][-<target>].txt.
func (p ProjectSpec) BaselineFileName() string {
	name := BaselineFilePrefix
	if p.Variant != "" {
		name += "-" + p.Variant
	}
	if p.Target != "" {
		name += "-" + p.Target
	}
	return name + BaselineFileExt
}

// BaselinePath returns the path of the version-controlled baseline file.
func (p ProjectSpec) BaselinePath() string {
	return filepath.Join(p.Dir, p.BaselineFileName())
}

// ScratchRoot returns the scratch directory for live snapshots.
func (p ProjectSpec) ScratchRoot() string {
	if p.ScratchDir != "" {
		return p.ScratchDir
	}
	return filepath.Join(p.Dir, DefaultBuildDir, ScratchDirName)
}

// ScratchPath returns the path of the scratch warning snapshot.
func (p ProjectSpec) ScratchPath() string {
	return filepath.Join(p.ScratchRoot(), p.BaselineFileName())
}

// NormalizedSourceRoot returns the source root, falling back to the project directory.
func (p ProjectSpec) NormalizedSourceRoot() string {
	if p.SourceRoot != "" {
		return p.SourceRoot
	}
	return p.Dir
}

// UnitSource binds a compilation unit to the file its diagnostics were captured in.
type UnitSource struct {
	Name    string `json:"name" toml:"name"`
	LogPath string `json:"log" toml:"log"`
}

// BuildEvent is a structured lifecycle or diagnostic event at the orchestration boundary.
type BuildEvent struct {
	Kind       EventKind  `json:"kind"`
	Project    string     `json:"project"`
	Dir        string     `json:"dir,omitempty"`
	SourceRoot string     `json:"source_root,omitempty"`
	Variant    string     `json:"variant,omitempty"`
	Target     string     `json:"target,omitempty"`
	Mode       BuildMode  `json:"mode,omitempty"`
	Tasks      []string   `json:"tasks,omitempty"` // Requested build commands, used when Mode is empty
	Units      []string   `json:"units,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	Status     UnitStatus `json:"status,omitempty"`
	Line       string     `json:"line,omitempty"`
}

// ProjectSpec extracts the project description carried by a register event.
func (e BuildEvent) ProjectSpec() ProjectSpec {
	return ProjectSpec{
		Name:       e.Project,
		Dir:        e.Dir,
		SourceRoot: e.SourceRoot,
		Variant:    e.Variant,
		Target:     e.Target,
	}
}

// Baseline is a loaded baseline set.
type Baseline struct {
	Entries map[string]struct{}
	Existed bool
}

// SaveResult describes what a baseline save did on disk.
type SaveResult struct {
	Path    string
	Count   int
	Written bool // false when existing bytes were already identical
	Pruned  bool // true when an empty set removed the file
}

// BaselineInfo describes a baseline file found in a project directory.
type BaselineInfo struct {
	FileName  string `json:"file_name" yaml:"file_name"`
	Path      string `json:"path" yaml:"path"`
	Suffix    string `json:"suffix,omitempty" yaml:"suffix,omitempty"` // Variant and target part of the name
	Warnings  int    `json:"warnings" yaml:"warnings"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}
