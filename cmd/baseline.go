package cmd

import (
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/core"
	"github.com/spf13/cobra"
)

// writeCmd records the current warnings of a project as its baseline.
var writeCmd = &cobra.Command{
	Use:   "write [project-dir]",
	Short: "Record the project's current warnings as its baseline.",
	Long: `Stream the compiler log of every compilation unit of the project and write the
collected warnings to warning-baseline[-variant][-target].txt in the project directory.

The baseline is written unconditionally, even if some units failed. Warnings are
stored one per line as "<path>:<line>:<column> <message>", sorted, with paths
relative to the source root so the file can be committed.

Units come from [[unit]] entries in warnbase.toml or from --unit flags.

Examples:
  # Write the debug baseline from captured logs
  warnbase write --variant debug --unit compileDebugKotlin=build/logs/compileDebugKotlin.log

  # Use the units declared in warnbase.toml
  warnbase write ./app`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteBaselineWrite(rootCtx, cfg, storeManager)
	},
}

// checkCmd fails when the project has warnings its baseline does not cover.
var checkCmd = &cobra.Command{
	Use:   "check [project-dir]",
	Short: "Fail when the project has warnings that are not in its baseline.",
	Long: `Stream the compiler log of every compilation unit of the project and compare the
collected warnings against the committed baseline.

Exits with a non-zero code when warnings exist that the baseline does not cover, and
prints each of them along with the command that regenerates the baseline. Warnings
that were fixed never fail a check. A project without a baseline is checked against
an empty baseline: it passes with an advisory only when it has no warnings at all.

Examples:
  # Gate a CI build
  warnbase check --variant release

  # Emit GitHub annotations for new warnings
  warnbase check --output github`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteBaselineCheck(rootCtx, cfg, storeManager)
	},
}

// removeCmd deletes baselines and the scratch directory.
var removeCmd = &cobra.Command{
	Use:   "remove [project-dir]",
	Short: "Delete every baseline file of the project and its scratch directory.",
	Long: `Delete every warning-baseline* file in the project directory, for all variants and
targets, then delete the scratch directory holding live snapshots.

Examples:
  warnbase remove ./app`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteBaselineRemove(rootCtx, cfg, storeManager)
	},
}

// statusCmd lists the project's baseline files.
var statusCmd = &cobra.Command{
	Use:   "status [project-dir]",
	Short: "Show the baseline files of the project and the last scratch snapshot.",
	Long: `List every warning-baseline* file in the project directory with its warning count
and size, marking the one the current variant and target use.

Examples:
  warnbase status --variant debug
  warnbase status --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteBaselineStatus(rootCtx, cfg, storeManager)
	},
}
