// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the warnbase MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.BaselineStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Warning Baseline Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
	}

	// --- 1. Tool: normalize_diagnostic ---
	s.AddTool(mcp.NewTool("normalize_diagnostic",
		mcp.WithDescription("Parse one Kotlin compiler warning line into its canonical baseline form."),
		mcp.WithString("line", mcp.Description("Raw diagnostic line, e.g. 'w: file:///repo/src/A.kt:6:20 Condition is always true'."), mcp.Required()),
		mcp.WithString("source_root", mcp.Description("Absolute root the file path is relativized against (defaults to the project source root).")),
	), h.handleNormalizeDiagnostic)

	// --- 2. Tool: diff_warnings ---
	s.AddTool(mcp.NewTool("diff_warnings",
		mcp.WithDescription("Compare two sets of canonical warnings and report the ones missing from the baseline."),
		mcp.WithString("current", mcp.Description("Newline separated canonical warnings produced by the build."), mcp.Required()),
		mcp.WithString("baseline", mcp.Description("Newline separated canonical warnings of the baseline. Omit to treat the baseline as missing.")),
	), h.handleDiffWarnings)

	// --- 3. Tool: check_baseline ---
	s.AddTool(mcp.NewTool("check_baseline",
		mcp.WithDescription("Compare the last scratch snapshot of a project with its baseline file, without running a build. A missing snapshot counts as zero warnings."),
		mcp.WithString("project_dir", mcp.Description("Project directory holding the baseline files.")),
		mcp.WithString("variant", mcp.Description("Build variant, e.g. 'debug'.")),
		mcp.WithString("target", mcp.Description("Multiplatform target, e.g. 'jvm'.")),
	), h.handleCheckBaseline)

	// --- 4. Tool: list_baselines ---
	s.AddTool(mcp.NewTool("list_baselines",
		mcp.WithDescription("List the warning baseline files of a project with their warning counts."),
		mcp.WithString("project_dir", mcp.Description("Project directory holding the baseline files.")),
	), h.handleListBaselines)

	return s
}

// StartMCPServer starts the warnbase MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.BaselineStore) error {
	s := NewMCPServer(baseCfg, store)
	return server.ServeStdio(s)
}
