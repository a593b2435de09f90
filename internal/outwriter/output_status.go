package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"

	"fortio.org/safecast"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// BaselineStatus is the render model of the status command.
type BaselineStatus struct {
	Project   schema.ProjectSpec    `json:"project" yaml:"project"`
	Active    string                `json:"active" yaml:"active"` // File name the current variant and target use
	Baselines []schema.BaselineInfo `json:"baselines" yaml:"baselines"`
	Scratch   *schema.BaselineInfo  `json:"scratch,omitempty" yaml:"scratch,omitempty"`
}

// WriteBaselineStatus outputs the baseline files of a project, dispatching based on the
// output format configured.
func WriteBaselineStatus(status BaselineStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, status)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusCSV(w, status)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusTable(w, status, getMaxTablePathWidth(cfg, statusFixedColumns))
		}, "Wrote table")
	}
}

// statusFixedColumns is the width of every status column but the path.
const statusFixedColumns = 40

// writeStatusTable renders one row per baseline file.
func writeStatusTable(w io.Writer, status BaselineStatus, pathWidth int) error {
	if len(status.Baselines) == 0 {
		_, err := fmt.Fprintf(w, "No baseline files in %s (expected %s)\n", status.Project.Dir, status.Active)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Suffix", "Warnings", "Size", "Active"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, b := range status.Baselines {
		active := ""
		if b.FileName == status.Active {
			active = "*"
		}
		data = append(data, []string{
			contract.TruncatePath(b.FileName, pathWidth),
			b.Suffix,
			strconv.Itoa(b.Warnings),
			formatBytes(b.SizeBytes),
			active,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d baseline file(s) for %s\n", len(status.Baselines), displayName(status.Project)); err != nil {
		return err
	}
	if status.Scratch != nil {
		if _, err := fmt.Fprintf(w, "Last check saw %d warning(s): %s\n", status.Scratch.Warnings, status.Scratch.Path); err != nil {
			return err
		}
	}
	return nil
}

func writeStatusCSV(w io.Writer, status BaselineStatus) error {
	header := []string{"project", "file", "suffix", "warnings", "size_bytes", "active"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range status.Baselines {
			rec := []string{
				status.Project.Name,
				b.FileName,
				b.Suffix,
				strconv.Itoa(b.Warnings),
				strconv.FormatInt(b.SizeBytes, 10),
				strconv.FormatBool(b.FileName == status.Active),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatBytes renders a size with a binary unit, e.g. "1.5 KiB".
func formatBytes(n int64) string {
	size, err := safecast.Conv[uint64](n)
	if err != nil {
		return strconv.FormatInt(n, 10)
	}
	return humanize.IBytes(size)
}
