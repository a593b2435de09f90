package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/phuslu/log"
)

// Subscription is the capability a project holds between registration and finalization.
// Finalization consumes it; releasing it twice is impossible.
type Subscription struct {
	project  string
	released atomic.Bool
}

// Project returns the project the subscription belongs to.
func (s *Subscription) Project() string {
	return s.project
}

// Active reports whether the subscription has not been released yet.
func (s *Subscription) Active() bool {
	return !s.released.Load()
}

// Release marks the subscription consumed. It returns true only for the first call.
func (s *Subscription) Release() bool {
	return s.released.CompareAndSwap(false, true)
}

// projectState is the per-project aggregation. Every field is guarded by mu.
type projectState struct {
	mu         sync.Mutex
	spec       schema.ProjectSpec
	mode       schema.BuildMode
	normalizer *Normalizer
	required   map[string]struct{}
	finished   map[string]schema.UnitStatus
	warnings   map[string]struct{}
	failed     []string
	startedAt  time.Time
	claimed    bool
	outcome    *schema.FinalizeOutcome
	err        error
}

// Aggregator tracks required compilation units per project, collects their warnings and
// runs the finalizer exactly once when the last required unit finishes.
// One Aggregator is built per build invocation.
type Aggregator struct {
	mu       sync.Mutex
	projects map[string]*projectState
	subs     map[string]*Subscription

	fin          contract.Finalizer
	logger       *log.Logger
	invocationID string
	excludes     []string
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *log.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithInvocationID overrides the generated invocation identifier.
func WithInvocationID(id string) AggregatorOption {
	return func(a *Aggregator) {
		if id != "" {
			a.invocationID = id
		}
	}
}

// WithExcludes drops warnings whose relative path matches any pattern.
func WithExcludes(excludes []string) AggregatorOption {
	return func(a *Aggregator) {
		a.excludes = append([]string(nil), excludes...)
	}
}

// NewAggregator returns an empty aggregator that hands completed projects to fin.
func NewAggregator(fin contract.Finalizer, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		projects:     make(map[string]*projectState),
		subs:         make(map[string]*Subscription),
		fin:          fin,
		logger:       contract.Logger(),
		invocationID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InvocationID identifies the build invocation this aggregator serves.
func (a *Aggregator) InvocationID() string {
	return a.invocationID
}

// RegisterRequiredUnits declares the units a project waits for. Repeated registrations
// for the same project add units. An empty unit list changes nothing and returns nil.
func (a *Aggregator) RegisterRequiredUnits(spec schema.ProjectSpec, units []string, mode schema.BuildMode) (*Subscription, error) {
	if len(units) == 0 {
		return nil, nil
	}
	if _, ok := schema.ValidBuildModes[mode]; !ok {
		return nil, fmt.Errorf("invalid build mode %q for project %s", mode, spec.Name)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	a.mu.Lock()
	st, ok := a.projects[spec.Name]
	if !ok {
		st = &projectState{
			spec:       spec,
			mode:       mode,
			normalizer: NewNormalizer(spec.NormalizedSourceRoot(), a.excludes...),
			required:   make(map[string]struct{}),
			finished:   make(map[string]schema.UnitStatus),
			warnings:   make(map[string]struct{}),
			startedAt:  time.Now(),
		}
		a.projects[spec.Name] = st
		a.subs[spec.Name] = &Subscription{project: spec.Name}
	}
	sub := a.subs[spec.Name]
	a.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.claimed {
		return nil, fmt.Errorf("%w: %s", contract.ErrAlreadyFinalized, spec.Name)
	}
	if st.mode != mode {
		return nil, fmt.Errorf("%w: %s is registered for %s, not %s", contract.ErrModeConflict, spec.Name, st.mode, mode)
	}
	for _, u := range units {
		if u != "" {
			st.required[u] = struct{}{}
		}
	}
	a.logger.Debug().Str("project", spec.Name).Str("mode", string(mode)).Int("units", len(st.required)).Msg("registered units")
	return sub, nil
}

// IngestDiagnostic normalizes a raw diagnostic line into the project's warning set.
// It returns the canonical form when the line was accepted.
func (a *Aggregator) IngestDiagnostic(project, raw string) (string, bool) {
	st := a.state(project)
	if st == nil {
		return "", false
	}
	canonical, ok := st.normalizer.Canonical(raw)
	if !ok {
		return "", false
	}
	return canonical, st.add(canonical)
}

// IngestCanonical adds an already canonical warning, as replayed from the unit cache.
func (a *Aggregator) IngestCanonical(project, warning string) bool {
	st := a.state(project)
	if st == nil {
		return false
	}
	rec, ok := schema.ParseCanonical(warning)
	if !ok {
		return false
	}
	if len(a.excludes) > 0 && contract.ShouldIgnore(rec.File, a.excludes) {
		return false
	}
	return st.add(warning)
}

// NotifyUnitFinished records that unit reached a terminal status. When it completes the
// project, the finalizer runs on the calling goroutine and fired is true.
// Late and duplicate notifications are ignored.
func (a *Aggregator) NotifyUnitFinished(ctx context.Context, project, unit string, status schema.UnitStatus) (bool, error) {
	st := a.state(project)
	if st == nil {
		a.logger.Debug().Str("project", project).Str("unit", unit).Msg("finish for unknown project ignored")
		return false, nil
	}

	st.mu.Lock()
	if st.claimed {
		st.mu.Unlock()
		return false, nil
	}
	if _, ok := st.required[unit]; !ok || !status.CountsTowardCompletion() {
		st.mu.Unlock()
		a.logger.Debug().Str("project", project).Str("unit", unit).Str("status", string(status)).Msg("finish does not count")
		return false, nil
	}
	if _, seen := st.finished[unit]; !seen {
		st.finished[unit] = status
		if status == schema.StatusFailed {
			st.failed = append(st.failed, unit)
		}
	}
	if len(st.finished) < len(st.required) {
		st.mu.Unlock()
		return false, nil
	}

	st.claimed = true
	req := contract.FinalizeRequest{
		Project:      st.spec,
		Mode:         st.mode,
		Warnings:     st.warnings,
		FailedUnits:  append([]string(nil), st.failed...),
		InvocationID: a.invocationID,
		StartedAt:    st.startedAt,
	}
	st.warnings = nil
	st.mu.Unlock()

	sort.Strings(req.FailedUnits)
	if len(req.FailedUnits) > 0 {
		a.logger.Warn().Str("project", project).Strs("units", req.FailedUnits).Msg("finalizing with failed units")
	}

	a.mu.Lock()
	sub := a.subs[project]
	delete(a.subs, project)
	a.mu.Unlock()
	if sub == nil || !sub.Release() {
		err := fmt.Errorf("%w: %s", contract.ErrMissingSubscription, project)
		st.setResult(nil, err)
		return false, err
	}

	outcome, err := a.fin.Finalize(ctx, req)
	st.setResult(outcome, err)
	if err != nil {
		a.logger.Error().Str("project", project).Err(err).Msg("finalization failed")
		return true, err
	}
	a.logger.Info().Str("project", project).Str("outcome", string(outcome.Outcome)).Int("warnings", outcome.Warnings).Msg("finalized")
	return true, nil
}

// Outcome returns the finalization outcome of project, if it finalized successfully.
func (a *Aggregator) Outcome(project string) (*schema.FinalizeOutcome, bool) {
	st := a.state(project)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.outcome, st.outcome != nil
}

// Outcomes returns every finalized outcome ordered by project name.
func (a *Aggregator) Outcomes() []*schema.FinalizeOutcome {
	var out []*schema.FinalizeOutcome
	for _, name := range a.projectNames() {
		if o, ok := a.Outcome(name); ok {
			out = append(out, o)
		}
	}
	return out
}

// Pending returns the projects still waiting on units, ordered by name.
func (a *Aggregator) Pending() []string {
	var pending []string
	for _, name := range a.projectNames() {
		st := a.state(name)
		st.mu.Lock()
		if !st.claimed {
			pending = append(pending, name)
		}
		st.mu.Unlock()
	}
	return pending
}

// Close releases subscriptions of projects that never finalized and returns their names.
func (a *Aggregator) Close() []string {
	a.mu.Lock()
	var leftover []string
	for name, sub := range a.subs {
		if sub.Release() {
			leftover = append(leftover, name)
		}
		delete(a.subs, name)
	}
	a.mu.Unlock()

	sort.Strings(leftover)
	for _, name := range leftover {
		a.logger.Warn().Str("project", name).Msg("build ended before all units finished")
	}
	return leftover
}

func (a *Aggregator) state(project string) *projectState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.projects[project]
}

func (a *Aggregator) projectNames() []string {
	a.mu.Lock()
	names := make([]string, 0, len(a.projects))
	for name := range a.projects {
		names = append(names, name)
	}
	a.mu.Unlock()
	sort.Strings(names)
	return names
}

func (st *projectState) add(warning string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.claimed {
		return false
	}
	st.warnings[warning] = struct{}{}
	return true
}

func (st *projectState) setResult(outcome *schema.FinalizeOutcome, err error) {
	st.mu.Lock()
	st.outcome = outcome
	st.err = err
	st.mu.Unlock()
}

// Err returns the finalization error of project, if any.
func (a *Aggregator) Err(project string) error {
	st := a.state(project)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}
