package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteHistoryRuns outputs recorded finalization runs, newest first, dispatching based on
// the output format configured.
func WriteHistoryRuns(runs []schema.HistoryRunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, runs)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, runs)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, runs, cfg.UseColors)
		}, "Wrote table")
	}
}

func writeHistoryTable(w io.Writer, runs []schema.HistoryRunRecord, useColors bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Project", "Mode", "Outcome", "Warnings", "New", "Started", "Took"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range runs {
		outcome := "running"
		if r.Outcome != nil {
			outcome = outcomeLabel(schema.Outcome(*r.Outcome), useColors)
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			displayName(schema.ProjectSpec{Name: r.Project, Variant: r.Variant, Target: r.Target}),
			string(r.Mode),
			outcome,
			optionalInt(r.TotalWarnings),
			optionalInt(r.NewWarnings),
			r.StartTime.Local().Format(contract.DateTimeFormat),
			optionalMillis(r.RunDurationMs),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d run(s)\n", len(runs))
	return err
}

func writeHistoryCSV(w io.Writer, runs []schema.HistoryRunRecord) error {
	header := []string{
		"run_id",
		"invocation_id",
		"project",
		"variant",
		"target",
		"mode",
		"outcome",
		"total_warnings",
		"new_warnings",
		"start_time",
		"run_duration_ms",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			outcome := ""
			if r.Outcome != nil {
				outcome = *r.Outcome
			}
			duration := ""
			if r.RunDurationMs != nil {
				duration = strconv.Itoa(*r.RunDurationMs)
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.InvocationID,
				r.Project,
				r.Variant,
				r.Target,
				string(r.Mode),
				outcome,
				optionalInt(r.TotalWarnings),
				optionalInt(r.NewWarnings),
				r.StartTime.UTC().Format(contract.DateTimeFormat),
				duration,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optionalMillis(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%dms", *v)
}
