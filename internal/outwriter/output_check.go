package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// WriteCheckResult outputs the result of a write or check invocation, dispatching
// based on the output format configured.
func WriteCheckResult(result *schema.CheckResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, result)
		}, "Wrote YAML"); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckCSV(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.GitHubOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckAnnotations(w, result)
		}, "Wrote annotations")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckText(w, result, cfg.UseColors, duration)
		}, "Wrote report")
	}
	return nil
}

// writeCheckText prints a concise, human-readable summary suitable for CI logs.
func writeCheckText(w io.Writer, result *schema.CheckResult, useColors bool, duration time.Duration) error {
	for _, o := range result.Outcomes {
		label := outcomeLabel(o.Outcome, useColors)
		name := displayName(o.Project)
		var err error
		switch o.Outcome {
		case schema.OutcomeFail:
			if o.Diff != nil && o.Diff.Advisory != "" {
				_, err = fmt.Fprintf(w, "%s %s: %s\n%s", label, name, o.Diff.Advisory, o.Report)
			} else {
				_, err = fmt.Fprintf(w, "%s %s\n%s", label, name, o.Report)
			}
			if err == nil && !strings.HasSuffix(o.Report, "\n") {
				_, err = fmt.Fprintln(w)
			}
		case schema.OutcomeNoBaseline:
			advisory := contract.AdvisoryValue
			if o.Diff != nil && o.Diff.Advisory != "" {
				advisory = o.Diff.Advisory
			}
			_, err = fmt.Fprintf(w, "%s %s: %s (%d warnings)\n", label, name, advisory, o.Warnings)
		case schema.OutcomePass:
			_, err = fmt.Fprintf(w, "%s %s: %d warnings, all covered by %s\n", label, name, o.Warnings, filepath.Base(o.BaselinePath))
		case schema.OutcomePruned:
			_, err = fmt.Fprintf(w, "%s %s: no warnings left, removed %s\n", label, name, o.BaselinePath)
		case schema.OutcomeUnchanged:
			_, err = fmt.Fprintf(w, "%s %s: %d warnings, %s already up to date\n", label, name, o.Warnings, o.BaselinePath)
		default:
			_, err = fmt.Fprintf(w, "%s %s: wrote %d warnings to %s\n", label, name, o.Warnings, o.BaselinePath)
		}
		if err != nil {
			return err
		}
		if len(o.FailedUnits) > 0 {
			if _, err := fmt.Fprintf(w, "  failed units (warnings may be incomplete): %s\n", strings.Join(o.FailedUnits, ", ")); err != nil {
				return err
			}
		}
	}
	for _, p := range result.Pending {
		if _, err := fmt.Fprintf(w, "⏳ %s never finished all of its units\n", p); err != nil {
			return err
		}
	}

	verdict := "passed"
	if !result.Passed {
		verdict = fmt.Sprintf("failed with %d new warning(s)", result.TotalNew)
	}
	_, err := fmt.Fprintf(w, "Checked %d project(s) in %v: %s\n", len(result.Outcomes), duration, verdict)
	return err
}

// writeCheckCSV writes one row per finalized project.
func writeCheckCSV(w io.Writer, result *schema.CheckResult) error {
	header := []string{
		"project",
		"variant",
		"target",
		"mode",
		"outcome",
		"label",
		"warnings",
		"new_warnings",
		"failed_units",
		"baseline_path",
		"invocation_id",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range result.Outcomes {
			newCount := 0
			if o.Diff != nil {
				newCount = len(o.Diff.NewWarnings)
			}
			rec := []string{
				o.Project.Name,
				o.Project.Variant,
				o.Project.Target,
				string(o.Mode),
				string(o.Outcome),
				contract.GetPlainLabel(o.Outcome),
				strconv.Itoa(o.Warnings),
				strconv.Itoa(newCount),
				strings.Join(o.FailedUnits, "|"),
				o.BaselinePath,
				result.InvocationID,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCheckAnnotations emits GitHub Actions workflow commands, one error per new warning.
func writeCheckAnnotations(w io.Writer, result *schema.CheckResult) error {
	for _, o := range result.Outcomes {
		switch o.Outcome {
		case schema.OutcomeFail:
			if o.Diff == nil {
				continue
			}
			for _, warning := range o.Diff.NewWarnings {
				if _, err := fmt.Fprintln(w, annotation(o.Project, warning)); err != nil {
					return err
				}
			}
		case schema.OutcomeNoBaseline:
			if _, err := fmt.Fprintf(w, "::warning title=%s::%s\n", escapeProperty(o.Project.Name), escapeData(schema.NoBaselineAdvisory)); err != nil {
				return err
			}
		}
	}
	for _, p := range result.Pending {
		if _, err := fmt.Fprintf(w, "::warning title=%s::project never finished all of its units\n", escapeProperty(p)); err != nil {
			return err
		}
	}
	return nil
}

// annotation renders one new warning as an error command. Warnings that do not parse
// keep the raw text and drop the file position.
func annotation(spec schema.ProjectSpec, warning string) string {
	title := escapeProperty("New warning in " + spec.Name)
	rec, ok := schema.ParseCanonical(warning)
	if !ok {
		return fmt.Sprintf("::error title=%s::%s", title, escapeData(warning))
	}
	return fmt.Sprintf("::error file=%s,line=%d,col=%d,title=%s::%s",
		escapeProperty(rec.File), rec.Line, rec.Column, title, escapeData(rec.Message))
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
