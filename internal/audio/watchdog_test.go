package audio

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchdogFiresOnceAtLimit(t *testing.T) {
	var elapsed atomic.Int64
	var fired atomic.Int32

	w := Watchdog{
		Interval: 5 * time.Millisecond,
		Max:      30 * time.Millisecond,
		Elapsed:  func() time.Duration { return time.Duration(elapsed.Add(int64(10 * time.Millisecond))) },
		OnMax:    func() { fired.Add(1) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.True(t, w.Run(ctx))
	require.Equal(t, int32(1), fired.Load())
}

func TestWatchdogStopsOnContextCancel(t *testing.T) {
	var fired atomic.Int32
	w := Watchdog{
		Interval: 5 * time.Millisecond,
		Max:      time.Hour,
		Elapsed:  func() time.Duration { return 0 },
		OnMax:    func() { fired.Add(1) },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case got := <-done:
		require.False(t, got)
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop")
	}
	require.Zero(t, fired.Load())
}

func TestWatchdogDisabledWithoutLimit(t *testing.T) {
	require.False(t, Watchdog{}.Run(context.Background()))
}
