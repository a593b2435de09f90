package core

import (
	"context"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/phuslu/log"
)

// BaselineFinalizer persists or checks a project's warning set once all its units finished.
type BaselineFinalizer struct {
	store    contract.BaselineStore
	history  contract.HistoryStore
	logger   *log.Logger
	guidance func(schema.ProjectSpec) string
}

var _ contract.Finalizer = &BaselineFinalizer{} // Compile-time check

// NewBaselineFinalizer returns a finalizer over store. history may be nil.
func NewBaselineFinalizer(store contract.BaselineStore, history contract.HistoryStore, logger *log.Logger) *BaselineFinalizer {
	if logger == nil {
		logger = contract.Logger()
	}
	return &BaselineFinalizer{
		store:    store,
		history:  history,
		logger:   logger,
		guidance: DefaultGuidance,
	}
}

// Finalize writes the baseline in write mode, or snapshots and diffs it in check mode.
func (f *BaselineFinalizer) Finalize(ctx context.Context, req contract.FinalizeRequest) (*schema.FinalizeOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec := req.Project
	outcome := &schema.FinalizeOutcome{
		Project:      spec,
		Mode:         req.Mode,
		Warnings:     len(req.Warnings),
		FailedUnits:  req.FailedUnits,
		BaselinePath: spec.BaselinePath(),
	}

	var err error
	switch req.Mode {
	case schema.WriteMode:
		err = f.write(req, outcome)
	default:
		err = f.check(req, outcome)
	}
	if err != nil {
		return nil, err
	}
	outcome.FinishedAt = time.Now()
	f.record(req, outcome)
	return outcome, nil
}

func (f *BaselineFinalizer) write(req contract.FinalizeRequest, outcome *schema.FinalizeOutcome) error {
	res, err := f.store.Save(outcome.BaselinePath, req.Warnings)
	if err != nil {
		return err
	}
	switch {
	case res.Pruned:
		outcome.Outcome = schema.OutcomePruned
	case res.Written:
		outcome.Outcome = schema.OutcomeWritten
	default:
		outcome.Outcome = schema.OutcomeUnchanged
	}
	f.logger.Info().Str("project", req.Project.Name).Str("path", res.Path).Int("warnings", res.Count).Str("outcome", string(outcome.Outcome)).Msg("baseline saved")
	return nil
}

func (f *BaselineFinalizer) check(req contract.FinalizeRequest, outcome *schema.FinalizeOutcome) error {
	outcome.ScratchPath = req.Project.ScratchPath()
	if _, err := f.store.Save(outcome.ScratchPath, req.Warnings); err != nil {
		return err
	}

	baseline, err := f.store.Load(outcome.BaselinePath)
	if err != nil {
		return err
	}
	diff := Evaluate(req.Warnings, baseline)
	if diff.Advisory != "" {
		f.logger.Warn().Str("project", req.Project.Name).Str("path", outcome.BaselinePath).Msg(diff.Advisory)
	}
	outcome.Diff = &diff
	outcome.Outcome = diff.Outcome
	if !diff.Passed {
		outcome.Report = FormatReport(diff, f.guidance(req.Project))
	}
	return nil
}

// record stores the run in the history store. Failures are logged, never returned.
func (f *BaselineFinalizer) record(req contract.FinalizeRequest, outcome *schema.FinalizeOutcome) {
	if f.history == nil {
		return
	}
	params := map[string]any{
		"baseline_path": outcome.BaselinePath,
		"failed_units":  req.FailedUnits,
	}
	if outcome.ScratchPath != "" {
		params["scratch_path"] = outcome.ScratchPath
	}
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = outcome.FinishedAt
	}

	runID, err := f.history.BeginRun(startedAt, req.Project, req.Mode, req.InvocationID, params)
	if err != nil {
		f.logger.Warn().Str("project", req.Project.Name).Err(err).Msg("history run not recorded")
		return
	}

	newSet := map[string]struct{}{}
	if outcome.Diff != nil {
		newSet = schema.NewWarningSet(outcome.Diff.NewWarnings...)
	}
	if err := f.history.RecordWarnings(runID, schema.SortedKeys(req.Warnings), newSet); err != nil {
		f.logger.Warn().Int64("run", runID).Err(err).Msg("history warnings not recorded")
	}

	summary := schema.HistoryRunSummary{
		Outcome:       outcome.Outcome,
		TotalWarnings: outcome.Warnings,
		NewWarnings:   len(newSet),
		FailedUnits:   req.FailedUnits,
	}
	if err := f.history.EndRun(runID, outcome.FinishedAt, summary); err != nil {
		f.logger.Warn().Int64("run", runID).Err(err).Msg("history run not closed")
	}
}
