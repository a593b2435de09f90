package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
	mcp_internal "github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/mcp"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func newServer(t *testing.T) (*server.MCPServer, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &contract.Config{ProjectDir: dir, ProjectName: "app", SourceRoot: dir, Variant: "debug"}
	return mcp_internal.NewMCPServer(cfg, iocache.NewFileBaselineStore()), dir
}

func TestNormalizeDiagnostic(t *testing.T) {
	s, _ := newServer(t)

	t.Run("warning", func(t *testing.T) {
		res := callTool(t, s, "normalize_diagnostic", map[string]any{
			"line":        "w: file:///repo/src/A.kt:6:20 Condition is always 'true'",
			"source_root": "/repo",
		})
		require.False(t, res.IsError, resultText(res))

		var got struct {
			Record    schema.WarningRecord `json:"record"`
			Canonical string               `json:"canonical"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
		assert.Equal(t, "src/A.kt:6:20 Condition is always 'true'", got.Canonical)
		assert.Equal(t, 6, got.Record.Line)
		assert.Equal(t, 20, got.Record.Column)
	})

	t.Run("relative source root", func(t *testing.T) {
		work, err := filepath.EvalSymlinks(t.TempDir())
		require.NoError(t, err)
		t.Chdir(work)
		res := callTool(t, s, "normalize_diagnostic", map[string]any{
			"line":        "w: file://" + filepath.ToSlash(filepath.Join(work, "proj", "src", "A.kt")) + ":6:20 cond always true",
			"source_root": "proj",
		})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"canonical": "src/A.kt:6:20 cond always true"`)
	})

	t.Run("error severity", func(t *testing.T) {
		res := callTool(t, s, "normalize_diagnostic", map[string]any{"line": "e: file:///repo/A.kt:1:1 boom"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "not a warning")
	})

	t.Run("missing line", func(t *testing.T) {
		res := callTool(t, s, "normalize_diagnostic", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "line is required")
	})
}

func TestDiffWarnings(t *testing.T) {
	s, _ := newServer(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantNew   []string
		wantFound bool
		outcome   schema.Outcome
	}{
		{
			name:      "new warning",
			args:      map[string]any{"current": "A.kt:1:1 x\nB.kt:2:2 y\n", "baseline": "A.kt:1:1 x"},
			wantNew:   []string{"B.kt:2:2 y"},
			wantFound: true,
			outcome:   schema.OutcomeFail,
		},
		{
			name:      "fixed warning passes",
			args:      map[string]any{"current": "A.kt:1:1 x", "baseline": "A.kt:1:1 x\nB.kt:2:2 y"},
			wantNew:   []string{},
			wantFound: true,
			outcome:   schema.OutcomePass,
		},
		{
			name:    "missing baseline",
			args:    map[string]any{"current": ""},
			wantNew: []string{},
			outcome: schema.OutcomeNoBaseline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, "diff_warnings", tt.args)
			require.False(t, res.IsError, resultText(res))

			var got schema.DiffResult
			require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
			if len(tt.wantNew) == 0 {
				assert.Empty(t, got.NewWarnings)
			} else {
				assert.Equal(t, tt.wantNew, got.NewWarnings)
			}
			assert.Equal(t, tt.wantFound, got.BaselineFound)
			assert.Equal(t, tt.outcome, got.Outcome)
		})
	}
}

type checkToolResponse struct {
	Diff   schema.DiffResult `json:"diff"`
	Report string            `json:"report"`
	Note   string            `json:"note"`
}

func checkBaseline(t *testing.T, s *server.MCPServer, args map[string]any) checkToolResponse {
	t.Helper()
	res := callTool(t, s, "check_baseline", args)
	require.False(t, res.IsError, resultText(res))
	var got checkToolResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	return got
}

func TestCheckBaseline(t *testing.T) {
	s, dir := newServer(t)

	got := checkBaseline(t, s, map[string]any{})
	assert.Equal(t, schema.OutcomeNoBaseline, got.Diff.Outcome)
	assert.True(t, got.Diff.Passed)
	assert.NotEmpty(t, got.Note)

	spec := schema.ProjectSpec{Name: "app", Dir: dir, Variant: "debug"}
	require.NoError(t, os.MkdirAll(filepath.Dir(spec.ScratchPath()), 0o755))
	require.NoError(t, os.WriteFile(spec.ScratchPath(), []byte("A.kt:1:1 x\nB.kt:2:2 y\n"), 0o644))
	require.NoError(t, os.WriteFile(spec.BaselinePath(), []byte("A.kt:1:1 x\n"), 0o644))

	got = checkBaseline(t, s, map[string]any{})
	assert.Equal(t, []string{"B.kt:2:2 y"}, got.Diff.NewWarnings)
	assert.Contains(t, got.Report, "Found 1 warnings behind baseline:")
	assert.Empty(t, got.Note)

	// A clean check prunes the snapshot
	require.NoError(t, os.Remove(spec.ScratchPath()))
	got = checkBaseline(t, s, map[string]any{})
	assert.Equal(t, schema.OutcomePass, got.Diff.Outcome)
	assert.True(t, got.Diff.Passed)
	assert.Empty(t, got.Report)
	assert.NotEmpty(t, got.Note)

	got = checkBaseline(t, s, map[string]any{"variant": "release"})
	assert.Equal(t, schema.OutcomeNoBaseline, got.Diff.Outcome)
}

func TestListBaselines(t *testing.T) {
	s, dir := newServer(t)

	res := callTool(t, s, "list_baselines", map[string]any{})
	require.False(t, res.IsError)
	assert.JSONEq(t, "[]", resultText(res))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "warning-baseline-debug.txt"), []byte("A.kt:1:1 x\nB.kt:2:2 y\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored\n"), 0o644))

	res = callTool(t, s, "list_baselines", map[string]any{"project_dir": dir})
	require.False(t, res.IsError)

	var infos []schema.BaselineInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "warning-baseline-debug.txt", infos[0].FileName)
	assert.Equal(t, 2, infos[0].Warnings)
}
