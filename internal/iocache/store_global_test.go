package iocache

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetStores(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite for both", func(t *testing.T) {
		resetStores(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, filepath.Join(dir, "history.db")))
		require.NotNil(t, Manager.GetUnitCache())
		require.NotNil(t, Manager.GetHistoryStore())

		_, err := os.Stat(cachePath)
		assert.NoError(t, err, "database file should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetStores(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		// Later calls are no-ops, even with a broken configuration
		require.NoError(t, InitStores(schema.MySQLBackend, "invalid://connection", schema.NoneBackend, ""))

		_, _, _, err := Manager.GetUnitCache().Get("key")
		assert.Equal(t, sql.ErrNoRows, err)

		CloseStores()
		CloseStores()
	})

	t.Run("empty backends leave stores unset", func(t *testing.T) {
		resetStores(t)
		require.NoError(t, InitStores("", "", "", ""))
		assert.Nil(t, Manager.GetUnitCache())
		assert.Nil(t, Manager.GetHistoryStore())
	})

	t.Run("connection failure", func(t *testing.T) {
		resetStores(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", schema.NoneBackend, "")
		assert.Error(t, err)
	})
}

func TestStoreManagerConcurrency(t *testing.T) {
	resetStores(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"), schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			store := Manager.GetUnitCache()
			assert.NoError(t, store.Set("concurrent_key", []byte("value"), 1, int64(1000+id)))
		}(i)
	}
	wg.Wait()
}

func TestClearStores(t *testing.T) {
	t.Run("sqlite file removed", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewUnitCache(unitCacheTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file", func(t *testing.T) {
		assert.NoError(t, ClearHistory(schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing.db"), ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	})

	t.Run("empty sqlite path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearHistory(schema.DatabaseBackend("redis"), "", ""))
	})
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    2,
		LastEntryTime:   time.Now(),
		OldestEntryTime: time.Now().Add(-time.Hour),
		TableSizeBytes:  8192,
	})
	assert.Contains(t, buf.String(), "Total Entries: 2")
	assert.Contains(t, buf.String(), "Table Size: 8.2 kB")

	buf.Reset()
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:    "sqlite",
		Connected:  true,
		TotalRuns:  3,
		FailedRuns: 1,
		LastRunID:  3,
		TableSizes: map[string]int64{runsTable: 3, runWarningsTable: 1200},
	})
	out := buf.String()
	assert.Contains(t, out, "Failed Runs: 1")
	assert.Contains(t, out, "  warnbase_run_warnings: 1,200 rows\n  warnbase_runs: 3 rows\n")
}
