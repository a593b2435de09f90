// Package core has core logic for normalizing, aggregating and checking warning baselines.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/iocache"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/outwriter"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// newAdapter wires one invocation's engine: baseline store, finalizer, aggregator and adapter.
// Every invocation needs its own adapter since a project finalizes only once per aggregator.
func newAdapter(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) *Adapter {
	invocationID, ok := getInvocationID(ctx)
	if !ok {
		invocationID = uuid.NewString()
	}

	var cache contract.UnitCache
	var history contract.HistoryStore
	if mgr != nil {
		cache = mgr.GetUnitCache()
		history = mgr.GetHistoryStore()
	}

	logger := contract.Logger()
	fin := NewBaselineFinalizer(iocache.NewFileBaselineStore(), history, logger)
	agg := NewAggregator(fin,
		WithLogger(logger),
		WithInvocationID(invocationID),
		WithExcludes(cfg.Excludes),
	)
	return NewAdapter(agg, cache, AdapterOptions{ReplayUpToDate: cfg.ReplayUpToDate, Logger: logger})
}

// driveProject runs the configured project's units through a fresh engine in mode.
func driveProject(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, mode schema.BuildMode) (*schema.CheckResult, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogRunHeader(os.Stderr, cfg, mode)
	}
	ad := newAdapter(ctx, cfg, mgr)
	if len(cfg.Units) == 0 {
		// An empty module has nothing to collect: no baseline is written and nothing is checked
		contract.Logger().Warn().Str("project", cfg.ProjectName).Str("mode", string(mode)).Msg("no compilation units configured, nothing to do")
		return ad.Result(), nil
	}
	if _, err := DriveUnits(ctx, ad, cfg.ProjectSpec(), cfg.Units, mode, cfg.Workers); err != nil {
		ad.Aggregator().Close()
		return nil, err
	}
	return ad.Result(), nil
}

// diffFailure returns the failure of the first project with new warnings, if any.
func diffFailure(result *schema.CheckResult) error {
	if failed := FailedOutcomes(result); len(failed) > 0 {
		return contract.NewDiffFailure(failed[0])
	}
	return nil
}

// ExecuteBaselineWrite collects the project's warnings and persists them as its baseline.
// It serves as the main entry point for the 'write' command.
func ExecuteBaselineWrite(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := driveProject(ctx, cfg, mgr, schema.WriteMode)
	if err != nil {
		return err
	}
	return outwriter.WriteCheckResult(result, cfg, time.Since(start))
}

// ExecuteBaselineCheck collects the project's warnings and compares them with its baseline.
// The report is rendered first; a *contract.DiffFailure is returned when new warnings exist.
func ExecuteBaselineCheck(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	result, err := driveProject(ctx, cfg, mgr, schema.CheckMode)
	if err != nil {
		return err
	}
	if err := outwriter.WriteCheckResult(result, cfg, time.Since(start)); err != nil {
		return err
	}
	return diffFailure(result)
}

// ExecuteBaselineRemove deletes every baseline file of the project and its scratch directory.
func ExecuteBaselineRemove(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	spec := cfg.ProjectSpec()
	removed, err := iocache.NewFileBaselineStore().RemoveAll(schema.BaselineFilePrefix, spec.Dir, spec.ScratchRoot())
	if err != nil {
		return err
	}
	outwriter.LogRemoved(os.Stdout, removed)
	return nil
}

// ExecuteBaselineStatus lists the project's baseline files and the last scratch snapshot.
func ExecuteBaselineStatus(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	store := iocache.NewFileBaselineStore()
	spec := cfg.ProjectSpec()

	infos, err := store.List(schema.BaselineFilePrefix, spec.Dir)
	if err != nil {
		return err
	}
	status := outwriter.BaselineStatus{
		Project:   spec,
		Active:    spec.BaselineFileName(),
		Baselines: infos,
	}

	scratchPath := spec.ScratchPath()
	scratch, err := store.Load(scratchPath)
	if err != nil {
		return err
	}
	if scratch.Existed {
		info := &schema.BaselineInfo{
			FileName: filepath.Base(scratchPath),
			Path:     scratchPath,
			Warnings: len(scratch.Entries),
		}
		if fi, err := os.Stat(scratchPath); err == nil {
			info.SizeBytes = fi.Size()
		}
		status.Scratch = info
	}
	return outwriter.WriteBaselineStatus(status, cfg)
}

// ExecuteEventRun consumes an NDJSON stream of build events and reports every project
// it saw. It serves as the integration point for build tools.
func ExecuteEventRun(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()

	var r io.Reader = os.Stdin
	if cfg.EventsPath != "" && cfg.EventsPath != "-" {
		f, err := os.Open(cfg.EventsPath)
		if err != nil {
			return fmt.Errorf("open event stream: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	ad := newAdapter(ctx, cfg, mgr)
	summary, err := ad.Run(ctx, r)
	if err != nil {
		ad.Aggregator().Close()
		return err
	}
	contract.Logger().Info().Int("events", summary.Events).Int("skipped", summary.Skipped).Msg("event stream consumed")

	if err := outwriter.WriteCheckResult(summary.Result, cfg, time.Since(start)); err != nil {
		return err
	}
	return diffFailure(summary.Result)
}

// ExecuteWatch runs a check, then re-runs it whenever a unit log changes until ctx is done.
// Reruns share one invocation ID so their history records group together.
func ExecuteWatch(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if len(cfg.Units) == 0 {
		return fmt.Errorf("%w for %s", ErrNoUnits, cfg.ProjectName)
	}
	paths := make([]string, 0, len(cfg.Units))
	for _, u := range cfg.Units {
		paths = append(paths, u.LogPath)
	}

	ctx = withInvocationID(ctx, uuid.NewString())
	check := func(ctx context.Context) error {
		err := ExecuteBaselineCheck(ctx, cfg, mgr)
		var df *contract.DiffFailure
		if errors.As(err, &df) {
			// Already rendered; keep watching
			return nil
		}
		return err
	}

	if err := check(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "👀 Watching %d unit log(s), press Ctrl+C to stop\n", len(paths))
	return WatchUnits(ctx, paths, cfg.Debounce, func(ctx context.Context) error {
		return check(withSuppressHeader(ctx))
	})
}
