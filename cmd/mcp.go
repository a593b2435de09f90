package cmd

import (
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [project-dir]",
	Short: "Start the warnbase MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents normalize diagnostics, diff warning sets and inspect project baselines.`,
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Reports are never printed in MCP mode since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iocache.NewFileBaselineStore())
	},
}
