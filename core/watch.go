package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
)

// WatchUnits calls fn whenever one of paths is written or created, coalescing bursts that
// arrive within debounce. Parent directories are watched so logs that are replaced by
// rename are still seen. It returns when ctx is done.
func WatchUnits(ctx context.Context, paths []string, debounce time.Duration, fn func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	added := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			contract.Logger().Warn().Str("dir", dir).Err(err).Msg("cannot watch directory")
			continue
		}
		added++
	}
	if added == 0 {
		return errors.New("no unit log directory could be watched")
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			contract.Logger().Debug().Str("file", abs).Str("op", event.Op.String()).Msg("unit log changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			contract.Logger().Error().Err(err).Msg("fsnotify error")
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				contract.Logger().Warn().Err(err).Msg("watch run failed")
			}
		}
	}
}
