package core

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchUnitsDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "main.log")
	other := filepath.Join(dir, "unrelated.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- WatchUnits(ctx, []string{logPath}, 100*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("x\n"), 0o644))
	for i := range 5 {
		require.NoError(t, os.WriteFile(logPath, []byte{byte('a' + i), '\n'}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchUnitsNoWatchableDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent", "main.log")
	err := WatchUnits(context.Background(), []string{missing}, time.Millisecond, func(context.Context) error { return nil })
	assert.Error(t, err)
}
