package cmd

import (
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/core"
	"github.com/spf13/cobra"
)

// watchCmd re-runs the check whenever a unit log changes.
var watchCmd = &cobra.Command{
	Use:   "watch [project-dir]",
	Short: "Re-run the baseline check whenever a unit log changes.",
	Long: `Run a check, then watch the log file of every compilation unit and run the check
again each time one of them is rewritten. Bursts of writes within --debounce are
coalesced into one run. New warnings are reported without stopping the watch.

Examples:
  warnbase watch --debounce 1s`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteWatch(rootCtx, cfg, storeManager)
	},
}
