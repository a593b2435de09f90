package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of warnbase.",
	Long: `Display the release version, commit, build timestamp and Go runtime.

Include this output when reporting a baseline that differs between machines.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("warnbase CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
