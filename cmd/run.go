package cmd

import (
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/core"
	"github.com/spf13/cobra"
)

// runCmd consumes build events emitted by a build tool plugin.
var runCmd = &cobra.Command{
	Use:   "run [project-dir]",
	Short: "Consume an NDJSON stream of build events and finalize every project it reports.",
	Long: `Read build lifecycle events, one JSON object per line, and drive the baseline
engine with them. This is how a build tool integrates with warnbase while the build
runs instead of replaying captured logs afterwards.

Event kinds:
  register   - project, dir, variant, target, mode or tasks, units
  diagnostic - project, unit, line
  finished   - project, unit, status (SUCCESS, FAILED, UP-TO-DATE, SKIPPED, NO-SOURCE, FROM-CACHE)

Malformed lines are skipped. Every registered project is finalized once all of its
units finished; projects still waiting when the stream ends are reported as pending.

Examples:
  # Pipe events from a build
  ./gradlew build --console=plain | my-event-emitter | warnbase run

  # Replay a recorded stream
  warnbase run --events build-events.ndjson --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteEventRun(rootCtx, cfg, storeManager)
	},
}
