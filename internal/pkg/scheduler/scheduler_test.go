package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

func countingCollector(calls *atomic.Int32) CollectFunc {
	return func(ctx context.Context) sysmetrics.Sample {
		calls.Add(1)
		return sysmetrics.Sample{Timestamp: time.Now()}
	}
}

func TestNewRequiresCollectFunc(t *testing.T) {
	_, err := New(nil, time.Second)
	assert.Error(t, err)
}

func TestNewDefaultsInterval(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), 0)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultCollectionInterval, s.Interval())

	s, err = New(countingCollector(&calls), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.Interval())
}

func TestRefreshSharesInFlightPass(t *testing.T) {
	var calls atomic.Int32
	var startedOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	collect := func(ctx context.Context) sysmetrics.Sample {
		calls.Add(1)
		startedOnce.Do(func() { close(started) })
		<-release
		return sysmetrics.Sample{Timestamp: time.Now()}
	}
	s, err := New(collect, time.Hour)
	require.NoError(t, err)

	results := make(chan sysmetrics.Sample, 2)
	go func() {
		sample, err := s.Refresh(context.Background())
		assert.NoError(t, err)
		results <- sample
	}()
	<-started

	// The pass is now held open, so this second request must join it.
	go func() {
		sample, err := s.Refresh(context.Background())
		assert.NoError(t, err)
		results <- sample
	}()
	time.Sleep(100 * time.Millisecond)
	close(release)

	a := <-results
	b := <-results
	assert.Equal(t, int32(1), calls.Load(), "concurrent refreshes must share one collection pass")
	assert.True(t, a.Timestamp.Equal(b.Timestamp), "both waiters must receive the same sample")
}

func TestRefreshSequentialRunsSeparatePasses(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), time.Hour)
	require.NoError(t, err)

	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefreshCallerDeadlineAbandonsWaitOnly(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	collect := func(ctx context.Context) sysmetrics.Sample {
		calls.Add(1)
		<-release
		return sysmetrics.Sample{Timestamp: time.Now()}
	}
	s, err := New(collect, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = s.Refresh(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "an expired waiter must not block on the pass")

	// The abandoned pass still runs to completion.
	close(release)
	assert.Eventually(t, func() bool { return s.State() == StateIdle },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartRunsPeriodicPasses(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), 20*time.Millisecond)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestStopHaltsPeriodicLoop(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), 20*time.Millisecond)
	require.NoError(t, err)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 1 },
		2*time.Second, 5*time.Millisecond)
	s.Stop()

	settled := calls.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "no passes may start after Stop returns")
}

func TestStopWithoutStartIsSafe(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), time.Hour)
	require.NoError(t, err)
	s.Stop()
	s.Stop()
}

func TestRefreshWorksWithoutStart(t *testing.T) {
	var calls atomic.Int32
	s, err := New(countingCollector(&calls), time.Hour)
	require.NoError(t, err)

	sample, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, sample.Timestamp.IsZero())
}

func TestStateFollowsPassLifecycle(t *testing.T) {
	var startedOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	collect := func(ctx context.Context) sysmetrics.Sample {
		startedOnce.Do(func() { close(started) })
		<-release
		return sysmetrics.Sample{}
	}
	s, err := New(collect, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Refresh(context.Background())
	}()
	<-started
	assert.Equal(t, StateCollecting, s.State())

	close(release)
	<-done
	assert.Eventually(t, func() bool { return s.State() == StateIdle },
		time.Second, 10*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "collecting", StateCollecting.String())
	assert.Equal(t, "unknown", State(99).String())
}
