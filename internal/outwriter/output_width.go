package outwriter

import (
	"os"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"golang.org/x/term"
)

// Bounds on the path column of status and history tables.
const (
	minPathWidth = 15
	maxPathWidth = 70
)

// getMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and the space taken by the fixed columns.
func getMaxTablePathWidth(cfg *contract.Config, fixedColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve generous space for table borders, separators, and padding
	available := termWidth - fixedColumns - 20
	if available < minPathWidth {
		return minPathWidth
	}
	if available > maxPathWidth {
		return maxPathWidth
	}
	return available
}
