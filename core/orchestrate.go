package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/phuslu/log"
)

// errInvalidEvent marks an event that cannot be applied. Run skips such events.
var errInvalidEvent = errors.New("invalid build event")

// maxEventLine bounds one NDJSON event.
const maxEventLine = 4 << 20

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	// ReplayUpToDate replays cached warnings of units the build did not re-run.
	ReplayUpToDate bool
	Logger         *log.Logger
}

// Adapter translates build lifecycle events into aggregator calls. It remembers which
// warnings each unit produced so they can be cached and replayed for up-to-date units.
type Adapter struct {
	agg    *Aggregator
	cache  contract.UnitCache
	replay bool
	logger *log.Logger

	mu           sync.Mutex
	specs        map[string]schema.ProjectSpec
	unitWarnings map[string]map[string]struct{}
}

// RunSummary describes a consumed event stream.
type RunSummary struct {
	Events  int
	Skipped int
	Result  *schema.CheckResult
}

// NewAdapter returns an adapter feeding agg. cache may be nil.
func NewAdapter(agg *Aggregator, cache contract.UnitCache, opts AdapterOptions) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = contract.Logger()
	}
	return &Adapter{
		agg:          agg,
		cache:        cache,
		replay:       opts.ReplayUpToDate,
		logger:       logger,
		specs:        make(map[string]schema.ProjectSpec),
		unitWarnings: make(map[string]map[string]struct{}),
	}
}

// Aggregator returns the aggregator the adapter feeds.
func (ad *Adapter) Aggregator() *Aggregator {
	return ad.agg
}

// Handle applies one event. It is safe for concurrent use.
func (ad *Adapter) Handle(ctx context.Context, ev schema.BuildEvent) error {
	switch ev.Kind {
	case schema.EventRegister:
		return ad.handleRegister(ev)
	case schema.EventDiagnostic:
		return ad.handleDiagnostic(ev)
	case schema.EventFinished:
		return ad.handleFinished(ctx, ev)
	default:
		return fmt.Errorf("%w: unknown kind %q", errInvalidEvent, ev.Kind)
	}
}

func (ad *Adapter) handleRegister(ev schema.BuildEvent) error {
	if ev.Project == "" || ev.Dir == "" {
		return fmt.Errorf("%w: register needs project and dir", errInvalidEvent)
	}
	mode := ev.Mode
	if mode == "" {
		var ok bool
		if mode, ok = ModeFromTaskNames(ev.Tasks); !ok {
			// Neither write nor check was requested; nothing to track.
			ad.logger.Debug().Str("project", ev.Project).Strs("tasks", ev.Tasks).Msg("no baseline command requested")
			return nil
		}
	}

	spec := ev.ProjectSpec()
	if abs, err := filepath.Abs(spec.Dir); err == nil {
		spec.Dir = abs
	}
	if spec.SourceRoot != "" && !filepath.IsAbs(spec.SourceRoot) {
		spec.SourceRoot = filepath.Join(spec.Dir, spec.SourceRoot)
	}
	if _, err := ad.agg.RegisterRequiredUnits(spec, ev.Units, mode); err != nil {
		return err
	}
	ad.mu.Lock()
	if _, ok := ad.specs[spec.Name]; !ok {
		ad.specs[spec.Name] = spec
	}
	ad.mu.Unlock()
	return nil
}

func (ad *Adapter) handleDiagnostic(ev schema.BuildEvent) error {
	if ev.Project == "" {
		return fmt.Errorf("%w: diagnostic needs project", errInvalidEvent)
	}
	canonical, ok := ad.agg.IngestDiagnostic(ev.Project, ev.Line)
	if !ok || ev.Unit == "" {
		return nil
	}
	key := unitKey(ev.Project, ev.Unit)
	ad.mu.Lock()
	set, found := ad.unitWarnings[key]
	if !found {
		set = make(map[string]struct{})
		ad.unitWarnings[key] = set
	}
	set[canonical] = struct{}{}
	ad.mu.Unlock()
	return nil
}

func (ad *Adapter) handleFinished(ctx context.Context, ev schema.BuildEvent) error {
	status, ok := schema.ParseUnitStatus(string(ev.Status))
	if ev.Project == "" || ev.Unit == "" || !ok {
		return fmt.Errorf("%w: finished needs project, unit and a known status (got %q)", errInvalidEvent, ev.Status)
	}

	ad.mu.Lock()
	spec, known := ad.specs[ev.Project]
	key := unitKey(ev.Project, ev.Unit)
	produced := ad.unitWarnings[key]
	delete(ad.unitWarnings, key)
	ad.mu.Unlock()

	if known {
		switch {
		case status == schema.StatusSuccess:
			snap := schema.UnitSnapshot{Project: ev.Project, Unit: ev.Unit, Warnings: schema.SortedKeys(produced)}
			if err := storeSnapshot(ad.cache, snapshotKey(spec, ev.Unit), snap); err != nil {
				ad.logger.Warn().Str("unit", ev.Unit).Err(err).Msg("unit snapshot not cached")
			}
		case status == schema.StatusUpToDate && ad.replay:
			ad.replaySnapshot(spec, ev.Unit)
		}
	}

	_, err := ad.agg.NotifyUnitFinished(ctx, ev.Project, ev.Unit, status)
	return err
}

func (ad *Adapter) replaySnapshot(spec schema.ProjectSpec, unit string) {
	snap, ok := loadSnapshot(ad.cache, snapshotKey(spec, unit))
	if !ok {
		ad.logger.Warn().Str("project", spec.Name).Str("unit", unit).Msg("unit is up to date but has no cached warnings")
		return
	}
	replayed := 0
	for _, w := range snap.Warnings {
		if ad.agg.IngestCanonical(spec.Name, w) {
			replayed++
		}
	}
	ad.logger.Debug().Str("project", spec.Name).Str("unit", unit).Int("warnings", replayed).Msg("replayed cached warnings")
}

// Run consumes newline-delimited JSON events until EOF, then reports every project.
// Undecodable or invalid events are logged and skipped.
func (ad *Adapter) Run(ctx context.Context, r io.Reader) (*RunSummary, error) {
	summary := &RunSummary{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var ev schema.BuildEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			summary.Skipped++
			ad.logger.Warn().Int("line", lineNo).Err(err).Msg("undecodable event skipped")
			continue
		}
		summary.Events++
		if err := ad.Handle(ctx, ev); err != nil {
			if errors.Is(err, errInvalidEvent) {
				summary.Skipped++
				ad.logger.Warn().Int("line", lineNo).Err(err).Msg("event skipped")
				continue
			}
			return summary, err
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read events: %w", err)
	}

	summary.Result = ad.Result()
	return summary, nil
}

// Result collects the outcomes so far and releases projects that never finalized.
func (ad *Adapter) Result() *schema.CheckResult {
	pending := ad.agg.Pending()
	ad.agg.Close()
	return NewCheckResultBuilder(ad.agg.InvocationID()).
		AddOutcomes(ad.agg.Outcomes()...).
		WithPending(pending).
		BuildResult().
		GetResult()
}

func unitKey(project, unit string) string {
	return project + "\x00" + unit
}
