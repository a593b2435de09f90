package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"golang.org/x/sync/errgroup"
)

// maxLogLine bounds one line of a captured compiler log.
const maxLogLine = 1 << 20

// ErrNoUnits is returned when a project has no compilation units to drive.
var ErrNoUnits = errors.New("no compilation units configured")

// DriveUnits replays captured compiler logs of a project through the adapter as if the
// units were running in a build: it registers them, streams each log concurrently and
// reports each unit's terminal status. A missing log counts as an up-to-date unit; an
// unreadable one as a failed unit.
func DriveUnits(ctx context.Context, ad *Adapter, spec schema.ProjectSpec, units []schema.UnitSource, mode schema.BuildMode, workers int) (*schema.FinalizeOutcome, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w for %s. Pass --unit name=path or add [[unit]] entries to %s", ErrNoUnits, spec.Name, schema.ManifestFileName)
	}

	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.Name)
	}
	if err := ad.Handle(ctx, schema.BuildEvent{
		Kind:       schema.EventRegister,
		Project:    spec.Name,
		Dir:        spec.Dir,
		SourceRoot: spec.SourceRoot,
		Variant:    spec.Variant,
		Target:     spec.Target,
		Mode:       mode,
		Units:      names,
	}); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, u := range units {
		g.Go(func() error {
			status := streamUnitLog(gctx, ad, spec.Name, u)
			return ad.Handle(gctx, schema.BuildEvent{
				Kind:    schema.EventFinished,
				Project: spec.Name,
				Unit:    u.Name,
				Status:  status,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome, ok := ad.Aggregator().Outcome(spec.Name)
	if !ok {
		if err := ad.Aggregator().Err(spec.Name); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("project %s did not finalize", spec.Name)
	}
	return outcome, nil
}

// streamUnitLog feeds every line of the unit's log to the adapter and returns the unit's status.
func streamUnitLog(ctx context.Context, ad *Adapter, project string, u schema.UnitSource) schema.UnitStatus {
	f, err := os.Open(u.LogPath)
	if errors.Is(err, fs.ErrNotExist) {
		ad.logger.Debug().Str("unit", u.Name).Str("log", u.LogPath).Msg("no log, treating unit as up to date")
		return schema.StatusUpToDate
	}
	if err != nil {
		ad.logger.Warn().Str("unit", u.Name).Err(err).Msg("unit log unreadable")
		return schema.StatusFailed
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLine)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return schema.StatusFailed
		}
		if err := ad.Handle(ctx, schema.BuildEvent{
			Kind:    schema.EventDiagnostic,
			Project: project,
			Unit:    u.Name,
			Line:    scanner.Text(),
		}); err != nil {
			ad.logger.Debug().Str("unit", u.Name).Err(err).Msg("diagnostic not ingested")
		}
	}
	if err := scanner.Err(); err != nil {
		ad.logger.Warn().Str("unit", u.Name).Err(err).Msg("unit log read failed")
		return schema.StatusFailed
	}
	return schema.StatusSuccess
}
