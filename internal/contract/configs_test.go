package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a minimal input that passes validation for the given project dir.
func validInput(dir string) *ConfigRawInput {
	return &ConfigRawInput{
		ProjectDirStr: dir,
		Workers:       4,
		Output:        "text",
		Color:         "yes",
		LogLevel:      "warn",
		CacheBackend:  "none",
	}
}

func TestProcessAndValidate(t *testing.T) {
	dir := t.TempDir()
	notADir := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "negative width", mutate: func(in *ConfigRawInput) { in.Width = -1 }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, expectError: true},
		{name: "invalid debounce", mutate: func(in *ConfigRawInput) { in.Debounce = "soon" }, expectError: true},
		{name: "debounce too long", mutate: func(in *ConfigRawInput) { in.Debounce = "2h" }, expectError: true},
		{name: "missing project dir", mutate: func(in *ConfigRawInput) { in.ProjectDirStr = filepath.Join(dir, "nope") }, expectError: true},
		{name: "project is a file", mutate: func(in *ConfigRawInput) { in.ProjectDirStr = notADir }, expectError: true},
		{name: "bad unit flag", mutate: func(in *ConfigRawInput) { in.Unit = []string{"broken"} }, expectError: true},
		{name: "duplicate unit flag", mutate: func(in *ConfigRawInput) { in.Unit = []string{"a=x.log", "a=y.log"} }, expectError: true},
		{name: "same sqlite file for cache and history", mutate: func(in *ConfigRawInput) {
			in.CacheBackend = "sqlite"
			in.HistoryBackend = "sqlite"
			in.CacheDBConnect = filepath.Join(dir, "same.db")
			in.HistoryDBConnect = filepath.Join(dir, "same.db")
		}, expectError: true},
		{name: "distinct sqlite files", mutate: func(in *ConfigRawInput) {
			in.CacheBackend = "sqlite"
			in.HistoryBackend = "sqlite"
			in.CacheDBConnect = filepath.Join(dir, "cache.db")
			in.HistoryDBConnect = filepath.Join(dir, "history.db")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(dir)
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	input := validInput(dir)
	input.Variant = "release"
	input.SourceRoot = "src"
	input.ScratchDir = "tmp/scratch"
	input.Unit = []string{"compileReleaseKotlin=logs/main.log"}
	input.Exclude = "build/generated/, *Test.kt"
	input.Debounce = "250ms"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, filepath.Base(dir), cfg.ProjectName)
	assert.Equal(t, "release", cfg.Variant)
	assert.Equal(t, filepath.Join(cfg.ProjectDir, "src"), cfg.SourceRoot)
	assert.Equal(t, filepath.Join(cfg.ProjectDir, "tmp", "scratch"), cfg.ScratchDir)
	require.Len(t, cfg.Units, 1)
	assert.Equal(t, filepath.Join(cfg.ProjectDir, "logs", "main.log"), cfg.Units[0].LogPath)
	assert.Equal(t, []string{"build/generated/", "*Test.kt"}, cfg.Excludes)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, schema.NoneBackend, cfg.CacheBackend)

	spec := cfg.ProjectSpec()
	assert.Equal(t, filepath.Join(cfg.ProjectDir, "warning-baseline-release.txt"), spec.BaselinePath())
}

func TestProcessAndValidateMergesManifest(t *testing.T) {
	dir := t.TempDir()
	body := `
[project]
name = "shared"
variant = "debug"
target = "jvm"
exclude = ["build/generated/"]

[[unit]]
name = "compileKotlinJvm"
log = "logs/jvm.log"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, schema.ManifestFileName), []byte(body), 0o644))

	t.Run("manifest values apply", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, validInput(dir)))
		assert.Equal(t, "shared", cfg.ProjectName)
		assert.Equal(t, "debug", cfg.Variant)
		assert.Equal(t, "jvm", cfg.Target)
		assert.Equal(t, cfg.ProjectDir, cfg.SourceRoot)
		require.Len(t, cfg.Units, 1)
		assert.Equal(t, "compileKotlinJvm", cfg.Units[0].Name)
		assert.Equal(t, []string{"build/generated/"}, cfg.Excludes)
	})

	t.Run("flags override manifest", func(t *testing.T) {
		input := validInput(dir)
		input.Project = "override"
		input.Variant = "release"
		input.Unit = []string{"x=logs/x.log"}
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input))
		assert.Equal(t, "override", cfg.ProjectName)
		assert.Equal(t, "release", cfg.Variant)
		assert.Equal(t, "jvm", cfg.Target)
		require.Len(t, cfg.Units, 1)
		assert.Equal(t, "x", cfg.Units[0].Name)
	})

	t.Run("broken manifest fails", func(t *testing.T) {
		broken := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(broken, schema.ManifestFileName), []byte("[project]\n"), 0o644))
		err := ProcessAndValidate(&Config{}, validInput(broken))
		assert.Error(t, err)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "root:pw@tcp(localhost:3306)/warnbase", false},
		{schema.MySQLBackend, "root:pw@localhost/warnbase", true},
		{schema.MySQLBackend, "", true},
		{schema.PostgreSQLBackend, "host=localhost port=5432 dbname=warnbase", false},
		{schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, tt.conn)
		} else {
			assert.NoError(t, err, tt.conn)
		}
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Units:    []schema.UnitSource{{Name: "a", LogPath: "a.log"}},
		Excludes: []string{"build/"},
	}
	clone := cfg.Clone()
	clone.Units[0].Name = "changed"
	clone.Excludes[0] = "changed"
	assert.Equal(t, "a", cfg.Units[0].Name)
	assert.Equal(t, "build/", cfg.Excludes[0])
}

func TestProcessProfilingConfig(t *testing.T) {
	var p ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&p, ""))
	assert.False(t, p.Enabled)
	require.NoError(t, ProcessProfilingConfig(&p, "out/prof"))
	assert.True(t, p.Enabled)
	assert.Equal(t, "out/prof", p.Prefix)
}
