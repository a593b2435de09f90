package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFinalizer counts calls and keeps the last request.
type recordingFinalizer struct {
	mu    sync.Mutex
	calls atomic.Int32
	last  contract.FinalizeRequest
	err   error
}

func (f *recordingFinalizer) Finalize(_ context.Context, req contract.FinalizeRequest) (*schema.FinalizeOutcome, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &schema.FinalizeOutcome{
		Project:  req.Project,
		Mode:     req.Mode,
		Outcome:  schema.OutcomeWritten,
		Warnings: len(req.Warnings),
	}, nil
}

func newTestAggregator(fin contract.Finalizer) *Aggregator {
	return NewAggregator(fin, WithLogger(contract.DiscardLogger()), WithInvocationID("test-run"))
}

var appSpec = schema.ProjectSpec{Name: "app", Dir: "/repo/app", SourceRoot: "/repo"}

func TestAggregatorFinalizesOnLastUnit(t *testing.T) {
	fin := &recordingFinalizer{}
	agg := newTestAggregator(fin)
	ctx := context.Background()

	sub, err := agg.RegisterRequiredUnits(appSpec, []string{"compileKotlin", "compileTestKotlin"}, schema.WriteMode)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.Active())
	assert.Equal(t, "app", sub.Project())

	c, ok := agg.IngestDiagnostic("app", "w: file:///repo/app/A.kt:1:2 unused")
	require.True(t, ok)
	assert.Equal(t, "app/A.kt:1:2 unused", c)
	_, ok = agg.IngestDiagnostic("app", "e: /repo/app/A.kt:1:2 broken")
	assert.False(t, ok)

	fired, err := agg.NotifyUnitFinished(ctx, "app", "compileKotlin", schema.StatusSuccess)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, []string{"app"}, agg.Pending())

	assert.True(t, agg.IngestCanonical("app", "app/B.kt:3:4 deprecated"))
	assert.False(t, agg.IngestCanonical("app", "not canonical"))

	fired, err = agg.NotifyUnitFinished(ctx, "app", "compileTestKotlin", schema.StatusUpToDate)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.False(t, sub.Active())
	assert.Empty(t, agg.Pending())

	assert.Equal(t, int32(1), fin.calls.Load())
	assert.Equal(t, schema.NewWarningSet("app/A.kt:1:2 unused", "app/B.kt:3:4 deprecated"), fin.last.Warnings)
	assert.Equal(t, "test-run", fin.last.InvocationID)

	outcome, ok := agg.Outcome("app")
	require.True(t, ok)
	assert.Equal(t, 2, outcome.Warnings)
	assert.Len(t, agg.Outcomes(), 1)

	t.Run("late events are ignored", func(t *testing.T) {
		_, ok := agg.IngestDiagnostic("app", "w: /repo/app/C.kt:1:1 late")
		assert.False(t, ok)
		fired, err := agg.NotifyUnitFinished(ctx, "app", "compileTestKotlin", schema.StatusSuccess)
		assert.NoError(t, err)
		assert.False(t, fired)
		assert.Equal(t, int32(1), fin.calls.Load())
	})

	t.Run("register after finalize", func(t *testing.T) {
		_, err := agg.RegisterRequiredUnits(appSpec, []string{"compileKotlin"}, schema.WriteMode)
		assert.ErrorIs(t, err, contract.ErrAlreadyFinalized)
	})
}

func TestAggregatorRegistration(t *testing.T) {
	agg := newTestAggregator(&recordingFinalizer{})

	sub, err := agg.RegisterRequiredUnits(appSpec, nil, schema.CheckMode)
	assert.NoError(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, agg.Pending())

	_, err = agg.RegisterRequiredUnits(appSpec, []string{"a"}, "deploy")
	assert.Error(t, err)

	first, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.CheckMode)
	require.NoError(t, err)
	second, err := agg.RegisterRequiredUnits(appSpec, []string{"b"}, schema.CheckMode)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = agg.RegisterRequiredUnits(appSpec, []string{"c"}, schema.WriteMode)
	assert.ErrorIs(t, err, contract.ErrModeConflict)

	fired, err := agg.NotifyUnitFinished(context.Background(), "app", "a", schema.StatusSuccess)
	require.NoError(t, err)
	assert.False(t, fired, "unit b is still required")
}

func TestAggregatorIgnoresUnknownUnitsAndProjects(t *testing.T) {
	fin := &recordingFinalizer{}
	agg := newTestAggregator(fin)
	ctx := context.Background()
	_, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)

	fired, err := agg.NotifyUnitFinished(ctx, "other", "a", schema.StatusSuccess)
	assert.NoError(t, err)
	assert.False(t, fired)

	fired, err = agg.NotifyUnitFinished(ctx, "app", "stranger", schema.StatusSuccess)
	assert.NoError(t, err)
	assert.False(t, fired)

	fired, err = agg.NotifyUnitFinished(ctx, "app", "a", schema.UnitStatus("RUNNING"))
	assert.NoError(t, err)
	assert.False(t, fired)

	_, ok := agg.IngestDiagnostic("other", "w: /repo/A.kt:1:1 x")
	assert.False(t, ok)
	assert.Equal(t, int32(0), fin.calls.Load())
}

func TestAggregatorFailedUnitsCount(t *testing.T) {
	fin := &recordingFinalizer{}
	agg := newTestAggregator(fin)
	_, err := agg.RegisterRequiredUnits(appSpec, []string{"b", "a"}, schema.CheckMode)
	require.NoError(t, err)

	_, err = agg.NotifyUnitFinished(context.Background(), "app", "b", schema.StatusFailed)
	require.NoError(t, err)
	fired, err := agg.NotifyUnitFinished(context.Background(), "app", "a", schema.StatusFailed)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, []string{"a", "b"}, fin.last.FailedUnits)
}

func TestAggregatorMissingSubscription(t *testing.T) {
	fin := &recordingFinalizer{}
	agg := newTestAggregator(fin)
	sub, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)
	require.True(t, sub.Release())
	assert.False(t, sub.Release())

	fired, err := agg.NotifyUnitFinished(context.Background(), "app", "a", schema.StatusSuccess)
	assert.False(t, fired)
	assert.ErrorIs(t, err, contract.ErrMissingSubscription)
	assert.ErrorIs(t, agg.Err("app"), contract.ErrMissingSubscription)
	assert.Equal(t, int32(0), fin.calls.Load())
}

func TestAggregatorFinalizerError(t *testing.T) {
	fin := &recordingFinalizer{err: errors.New("disk full")}
	agg := newTestAggregator(fin)
	_, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)

	fired, err := agg.NotifyUnitFinished(context.Background(), "app", "a", schema.StatusSuccess)
	assert.True(t, fired)
	assert.EqualError(t, err, "disk full")
	_, ok := agg.Outcome("app")
	assert.False(t, ok)
}

func TestAggregatorClose(t *testing.T) {
	agg := newTestAggregator(&recordingFinalizer{})
	sub, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)
	other := schema.ProjectSpec{Name: "lib", Dir: "/repo/lib"}
	_, err = agg.RegisterRequiredUnits(other, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)

	assert.Equal(t, []string{"app", "lib"}, agg.Close())
	assert.False(t, sub.Active())
	assert.Empty(t, agg.Close())
}

// TestAggregatorConcurrentFinalization fires every notification and diagnostic from its own
// goroutine and checks the finalizer ran once with the full union of warnings.
func TestAggregatorConcurrentFinalization(t *testing.T) {
	const units = 32
	const warningsPerUnit = 20

	for round := range 20 {
		fin := &recordingFinalizer{}
		agg := newTestAggregator(fin)
		names := make([]string, units)
		for i := range names {
			names[i] = fmt.Sprintf("unit%d", i)
		}
		_, err := agg.RegisterRequiredUnits(appSpec, names, schema.WriteMode)
		require.NoError(t, err)

		var fired atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := range warningsPerUnit {
					agg.IngestDiagnostic("app", fmt.Sprintf("w: /repo/app/U%d.kt:%d:1 warn", i, j+1))
				}
				// Duplicate notifications must not double count.
				for range 2 {
					ok, err := agg.NotifyUnitFinished(context.Background(), "app", name, schema.StatusSuccess)
					assert.NoError(t, err)
					if ok {
						fired.Add(1)
					}
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), fired.Load(), "round %d", round)
		assert.Equal(t, int32(1), fin.calls.Load(), "round %d", round)
		assert.Len(t, fin.last.Warnings, units*warningsPerUnit, "round %d", round)
	}
}

func TestAggregatorFinalizerRunsOutsideLock(t *testing.T) {
	blocking := &blockingFinalizer{entered: make(chan struct{}), release: make(chan struct{})}
	agg := newTestAggregator(blocking)
	_, err := agg.RegisterRequiredUnits(appSpec, []string{"a"}, schema.WriteMode)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = agg.NotifyUnitFinished(context.Background(), "app", "a", schema.StatusSuccess)
	}()
	<-blocking.entered

	// The project must stay observable while the finalizer runs.
	queried := make(chan struct{})
	go func() {
		assert.Empty(t, agg.Pending())
		close(queried)
	}()
	select {
	case <-queried:
	case <-time.After(5 * time.Second):
		t.Fatal("project lock held during finalization")
	}
	close(blocking.release)
	<-done
}

type blockingFinalizer struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFinalizer) Finalize(_ context.Context, req contract.FinalizeRequest) (*schema.FinalizeOutcome, error) {
	close(f.entered)
	<-f.release
	return &schema.FinalizeOutcome{Project: req.Project, Outcome: schema.OutcomeUnchanged}, nil
}
