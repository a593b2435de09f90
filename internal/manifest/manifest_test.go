package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, schema.ManifestFileName), []byte(body), 0o644))
	return dir
}

func TestLoadMissing(t *testing.T) {
	m, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, m.Found())
	assert.Empty(t, m.Units)
}

func TestLoadValid(t *testing.T) {
	dir := writeManifest(t, `
[project]
name = "android"
source_root = "src"
variant = "release"
target = "android"
exclude = ["build/generated/"]

[[unit]]
name = "compileReleaseKotlin"
log = "build/logs/main.log"

[[unit]]
name = "compileReleaseUnitTestKotlin"
log = "build/logs/test.log"
`)
	m, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.Equal(t, "android", m.Project.Name)
	assert.Equal(t, "src", m.Project.SourceRoot)
	assert.Equal(t, "release", m.Project.Variant)
	assert.Equal(t, "android", m.Project.Target)
	assert.Equal(t, []string{"build/generated/"}, m.Project.Exclude)
	require.Len(t, m.Units, 2)
	assert.Equal(t, "compileReleaseKotlin", m.Units[0].Name)
	assert.Equal(t, filepath.FromSlash("build/logs/main.log"), m.Units[0].LogPath)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad toml", `[project`, "failed to parse TOML"},
		{"no project", `[[unit]]
name = "a"
log = "a.log"`, "missing [project]"},
		{"no name", `[project]
variant = "debug"`, "missing [project].name"},
		{"unit without log", `[project]
name = "p"
[[unit]]
name = "a"`, `"a" is missing log`},
		{"unit without name", `[project]
name = "p"
[[unit]]
log = "a.log"`, "#1 is missing name"},
		{"duplicate unit", `[project]
name = "p"
[[unit]]
name = "a"
log = "a.log"
[[unit]]
name = "a"
log = "b.log"`, "declared more than once"},
		{"unknown key", `[project]
name = "p"
flavour = "x"`, "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
