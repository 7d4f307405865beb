package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsImmediateCycleThenInterval(t *testing.T) {
	var runs atomic.Int32
	s := New(100*time.Millisecond, func(ctx context.Context, stop <-chan struct{}) {
		runs.Add(1)
	}, nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(1), "first cycle runs before the interval elapses")

	time.Sleep(250 * time.Millisecond)
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestOverlappingTicksAreSkipped(t *testing.T) {
	var runs, skips atomic.Int32
	s := New(50*time.Millisecond, func(ctx context.Context, stop <-chan struct{}) {
		runs.Add(1)
		time.Sleep(180 * time.Millisecond)
	}, func() { skips.Add(1) })

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(400 * time.Millisecond)

	assert.GreaterOrEqual(t, skips.Load(), int32(1), "ticks during a running cycle are dropped")
	assert.LessOrEqual(t, runs.Load(), int32(4), "dropped ticks are not queued")
}

func TestStopDrainsInFlightCycle(t *testing.T) {
	var drained atomic.Bool
	s := New(time.Hour, func(ctx context.Context, stop <-chan struct{}) {
		<-stop
		time.Sleep(20 * time.Millisecond) // simulate finishing the in-flight article
		drained.Store(true)
	}, nil)

	started := make(chan struct{})
	go func() {
		close(started)
		_ = s.Start(context.Background())
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	require.Equal(t, StateRunning, s.State())

	s.Stop()
	assert.True(t, drained.Load(), "Stop returns only after the cycle drains")
	assert.Equal(t, StateStopped, s.State())
}

func TestNoNewCycleAfterStop(t *testing.T) {
	var runs atomic.Int32
	s := New(30*time.Millisecond, func(ctx context.Context, stop <-chan struct{}) {
		runs.Add(1)
	}, nil)

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	before := runs.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, runs.Load())
}

func TestStopConcurrentWithStartNeverLosesCycle(t *testing.T) {
	for i := 0; i < 20; i++ {
		var finished atomic.Bool
		s := New(time.Hour, func(ctx context.Context, stop <-chan struct{}) {
			time.Sleep(time.Millisecond)
			finished.Store(true)
		}, nil)

		started := make(chan struct{})
		go func() {
			close(started)
			_ = s.Start(context.Background())
		}()
		<-started
		s.Stop()

		// Stop must either drain the cycle or prevent it from starting;
		// it never returns while one is silently in flight.
		if s.State() == StateStopped && !finished.Load() {
			time.Sleep(5 * time.Millisecond)
			assert.False(t, finished.Load(), "cycle ran past Stop")
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(time.Hour, func(ctx context.Context, stop <-chan struct{}) {}, nil)
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()
	assert.Equal(t, StateStopped, s.State())
}
