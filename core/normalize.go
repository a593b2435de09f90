package core

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"golang.org/x/text/unicode/norm"
)

// Diagnostic grammars accepted by the normalizer.
var (
	// "w: " or "warning: " style severity prefix.
	severityPattern = regexp.MustCompile(`^([a-zA-Z]+):\s+`)
	// "<path>: (<line>, <column>): <message>" as printed by older kotlinc.
	legacyPattern = regexp.MustCompile(`^(.+?): \((\d+), ?(\d+)\): (.*)$`)
	// "<path>:<line>:<column>[:] <message>" as printed by current kotlinc and most compilers.
	positionalPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+):?\s+(.*)$`)
	// URI scheme; two characters minimum so a drive letter is never taken for a scheme.
	schemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]+):(//)?`)
	// Windows drive, optionally behind the slash a file URI leaves in front of it.
	drivePattern = regexp.MustCompile(`^/?([a-zA-Z]):(/|$)`)
)

var warningSeverities = map[string]struct{}{"w": {}, "warning": {}}

var otherSeverities = map[string]struct{}{
	"e": {}, "error": {}, "i": {}, "info": {}, "v": {}, "logging": {}, "exception": {},
}

// Normalizer turns raw compiler diagnostic lines into canonical warning records.
// It is safe for concurrent use; all state is fixed at construction.
type Normalizer struct {
	root     string
	excludes []string
}

// NewNormalizer returns a normalizer that relativizes paths against sourceRoot.
// Warnings whose relative path matches one of excludes are dropped.
func NewNormalizer(sourceRoot string, excludes ...string) *Normalizer {
	root := ""
	if strings.TrimSpace(sourceRoot) != "" {
		root = cleanSlashPath(sourceRoot)
	}
	return &Normalizer{root: root, excludes: excludes}
}

// Root returns the normalized source root.
func (n *Normalizer) Root() string {
	return n.root
}

// Parse parses one diagnostic line. Lines outside the grammar return an error wrapping
// contract.ErrMalformedDiagnostic.
func (n *Normalizer) Parse(raw string) (schema.WarningRecord, error) {
	line := strings.TrimSpace(strings.TrimRight(raw, "\r\n"))
	if line == "" {
		return schema.WarningRecord{}, fmt.Errorf("%w: empty line", contract.ErrMalformedDiagnostic)
	}

	if m := severityPattern.FindStringSubmatch(line); m != nil {
		sev := strings.ToLower(m[1])
		if _, ok := otherSeverities[sev]; ok {
			return schema.WarningRecord{}, fmt.Errorf("%w: severity %q is not a warning", contract.ErrMalformedDiagnostic, m[1])
		}
		if _, ok := warningSeverities[sev]; ok {
			line = line[len(m[0]):]
		}
	}

	m := legacyPattern.FindStringSubmatch(line)
	if m == nil {
		m = positionalPattern.FindStringSubmatch(line)
	}
	if m == nil {
		return schema.WarningRecord{}, fmt.Errorf("%w: %q", contract.ErrMalformedDiagnostic, line)
	}

	lineNo, err := strconv.Atoi(m[2])
	if err != nil || lineNo < 1 {
		return schema.WarningRecord{}, fmt.Errorf("%w: bad line number %q", contract.ErrMalformedDiagnostic, m[2])
	}
	col, err := strconv.Atoi(m[3])
	if err != nil || col < 1 {
		return schema.WarningRecord{}, fmt.Errorf("%w: bad column %q", contract.ErrMalformedDiagnostic, m[3])
	}
	msg := strings.TrimSpace(m[4])
	if msg == "" {
		return schema.WarningRecord{}, fmt.Errorf("%w: empty message", contract.ErrMalformedDiagnostic)
	}

	file := n.relativize(m[1])
	if file == "" || file == "." {
		return schema.WarningRecord{}, fmt.Errorf("%w: empty path", contract.ErrMalformedDiagnostic)
	}

	return schema.WarningRecord{File: file, Line: lineNo, Column: col, Message: msg}, nil
}

// Normalize parses raw and applies exclusions. It reports false for malformed or excluded lines.
func (n *Normalizer) Normalize(raw string) (schema.WarningRecord, bool) {
	rec, err := n.Parse(raw)
	if err != nil {
		return schema.WarningRecord{}, false
	}
	if len(n.excludes) > 0 && contract.ShouldIgnore(rec.File, n.excludes) {
		return schema.WarningRecord{}, false
	}
	return rec, true
}

// Canonical returns the canonical warning string for raw.
func (n *Normalizer) Canonical(raw string) (string, bool) {
	rec, ok := n.Normalize(raw)
	if !ok {
		return "", false
	}
	return rec.Canonical(), true
}

// CanonicalSet normalizes every line and collects the accepted warnings.
func (n *Normalizer) CanonicalSet(lines []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if c, ok := n.Canonical(l); ok {
			set[c] = struct{}{}
		}
	}
	return set
}

// relativize strips any URI scheme and expresses the path relative to the source root.
func (n *Normalizer) relativize(raw string) string {
	p := strings.TrimSpace(raw)
	if m := schemePattern.FindStringSubmatch(p); m != nil {
		scheme := strings.ToLower(m[1])
		p = p[len(m[0]):]
		if scheme == "file" {
			if decoded, err := url.PathUnescape(p); err == nil {
				p = decoded
			}
			// file://host/path carries an authority before the path.
			if m[2] == "//" && !strings.HasPrefix(p, "/") && !drivePattern.MatchString(p) {
				if idx := strings.Index(p, "/"); idx >= 0 {
					p = p[idx:]
				}
			}
		}
	}
	p = cleanSlashPath(p)
	if !isAbsSlash(p) || n.root == "" {
		return p
	}
	return relSlash(n.root, p)
}

// cleanSlashPath converts separators to '/', normalizes drive letters and unicode form.
func cleanSlashPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if m := drivePattern.FindStringSubmatchIndex(p); m != nil {
		drive := strings.ToUpper(p[m[2]:m[3]])
		p = drive + ":/" + p[m[1]:]
	}
	p = norm.NFC.String(p)
	cleaned := path.Clean(p)
	if cleaned == "." && p != "." {
		return ""
	}
	return cleaned
}

func isAbsSlash(p string) bool {
	return strings.HasPrefix(p, "/") || drivePattern.MatchString(p)
}

// relSlash computes a lexical relative path from root to target, both absolute and clean.
func relSlash(root, target string) string {
	if target == root {
		return "."
	}
	if root == "/" {
		return strings.TrimPrefix(target, "/")
	}
	if strings.HasPrefix(target, root+"/") {
		return target[len(root)+1:]
	}

	rootParts := strings.Split(strings.TrimPrefix(root, "/"), "/")
	targetParts := strings.Split(strings.TrimPrefix(target, "/"), "/")
	// Different drives or different absolute styles have no relative form.
	if strings.HasPrefix(root, "/") != strings.HasPrefix(target, "/") ||
		(drivePattern.MatchString(root) && rootParts[0] != targetParts[0]) {
		return target
	}

	common := 0
	for common < len(rootParts) && common < len(targetParts) && rootParts[common] == targetParts[common] {
		common++
	}
	parts := make([]string, 0, len(rootParts)-common+len(targetParts)-common)
	for i := common; i < len(rootParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	return strings.Join(parts, "/")
}
