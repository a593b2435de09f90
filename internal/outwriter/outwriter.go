// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// LogRunHeader prints the one-line summary shown before units are driven.
func LogRunHeader(w io.Writer, cfg *contract.Config, mode schema.BuildMode) {
	spec := cfg.ProjectSpec()
	verb := "Checking"
	if mode == schema.WriteMode {
		verb = "Writing"
	}
	_, _ = fmt.Fprintf(w, "🔎 %s %s (%d unit(s), %d worker(s))\n", verb, displayName(spec), len(cfg.Units), cfg.Workers)
	_, _ = fmt.Fprintf(w, "📄 Baseline: %s\n", spec.BaselinePath())
}

// LogRemoved prints what the remove command deleted.
func LogRemoved(w io.Writer, removed []string) {
	if len(removed) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to remove")
		return
	}
	for _, p := range removed {
		_, _ = fmt.Fprintf(w, "🗑️  Removed %s\n", p)
	}
}
