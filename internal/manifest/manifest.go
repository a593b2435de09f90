// Package manifest loads the optional per-project warnbase.toml file.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// Manifest is the decoded warnbase.toml of one project.
type Manifest struct {
	Path    string              `toml:"-"` // Empty when the project has no manifest
	Project ProjectSection      `toml:"project"`
	Units   []schema.UnitSource `toml:"unit"`
}

// ProjectSection is the [project] table.
type ProjectSection struct {
	Name       string   `toml:"name"`
	SourceRoot string   `toml:"source_root"`
	Variant    string   `toml:"variant"`
	Target     string   `toml:"target"`
	ScratchDir string   `toml:"scratch_dir"`
	Exclude    []string `toml:"exclude"`
}

// Found reports whether a manifest file was read.
func (m *Manifest) Found() bool {
	return m != nil && m.Path != ""
}

// Load reads <dir>/warnbase.toml. A missing file yields an empty manifest, not an error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, schema.ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return LoadFile(path)
}

// LoadFile decodes and validates a manifest at an explicit path.
func LoadFile(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(m.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	seen := make(map[string]struct{}, len(m.Units))
	for i, u := range m.Units {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: [[unit]] #%d is missing name", path, i+1)
		}
		if strings.TrimSpace(u.LogPath) == "" {
			return nil, fmt.Errorf("%s: [[unit]] %q is missing log", path, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s: [[unit]] %q is declared more than once", path, name)
		}
		seen[name] = struct{}{}
		m.Units[i].Name = name
		m.Units[i].LogPath = filepath.FromSlash(strings.TrimSpace(u.LogPath))
	}

	m.Path = path
	return &m, nil
}
