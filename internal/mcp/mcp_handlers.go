package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/core"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.BaselineStore
}

type normalizeResponse struct {
	Record    schema.WarningRecord `json:"record"`
	Canonical string               `json:"canonical"`
}

type checkResponse struct {
	Project      schema.ProjectSpec `json:"project"`
	BaselinePath string             `json:"baseline_path"`
	ScratchPath  string             `json:"scratch_path"`
	Diff         schema.DiffResult  `json:"diff"`
	Report       string             `json:"report,omitempty"`
	Note         string             `json:"note,omitempty"`
}

func (h *toolHandler) handleNormalizeDiagnostic(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line := request.GetString("line", "")
	if strings.TrimSpace(line) == "" {
		return mcp.NewToolResultError("line is required"), nil
	}
	root := request.GetString("source_root", h.baseCfg.SourceRoot)
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	record, err := core.NewNormalizer(root).Parse(line)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not a warning: %v", err)), nil
	}
	return jsonResult(normalizeResponse{Record: record, Canonical: record.Canonical()})
}

func (h *toolHandler) handleDiffWarnings(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current := splitWarnings(request.GetString("current", ""))
	baseline := schema.Baseline{Entries: map[string]struct{}{}}
	if raw, ok := request.GetArguments()["baseline"].(string); ok {
		baseline = schema.Baseline{Entries: splitWarnings(raw), Existed: true}
	}
	return jsonResult(core.Evaluate(current, baseline))
}

func (h *toolHandler) handleCheckBaseline(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := h.projectSpec(request)

	scratch, err := h.store.Load(spec.ScratchPath())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read scratch snapshot: %v", err)), nil
	}
	baseline, err := h.store.Load(spec.BaselinePath())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read baseline: %v", err)), nil
	}

	resp := checkResponse{
		Project:      spec,
		BaselinePath: spec.BaselinePath(),
		ScratchPath:  spec.ScratchPath(),
		Diff:         core.Evaluate(scratch.Entries, baseline),
	}
	if !scratch.Existed {
		// A clean check prunes the snapshot, so absence reads as zero warnings
		resp.Note = "no scratch snapshot found: treated as zero warnings (clean build, or no check has run yet)"
	}
	if !resp.Diff.Passed {
		resp.Report = core.FormatReport(resp.Diff, core.DefaultGuidance(spec))
	}
	return jsonResult(resp)
}

func (h *toolHandler) handleListBaselines(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := h.projectSpec(request)
	infos, err := h.store.List(schema.BaselineFilePrefix, spec.Dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot list baselines: %v", err)), nil
	}
	if infos == nil {
		infos = []schema.BaselineInfo{}
	}
	return jsonResult(infos)
}

// projectSpec overlays the request's project arguments on the configured project.
func (h *toolHandler) projectSpec(request mcp.CallToolRequest) schema.ProjectSpec {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("project_dir", ""); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if cfg.SourceRoot == "" || cfg.SourceRoot == cfg.ProjectDir {
			cfg.SourceRoot = abs
		}
		cfg.ProjectDir = abs
		cfg.ProjectName = filepath.Base(abs)
		cfg.ScratchDir = ""
	}
	if v := request.GetString("variant", ""); v != "" {
		cfg.Variant = v
	}
	if t := request.GetString("target", ""); t != "" {
		cfg.Target = t
	}
	return cfg.ProjectSpec()
}

func splitWarnings(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for line := range strings.SplitSeq(raw, "\n") {
		if w := strings.TrimSpace(line); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
