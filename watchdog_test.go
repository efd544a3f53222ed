package frameScheduler

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// These tests call poll directly, bypassing start/run's background ticker
// goroutine, so watchdog state updates stay single-threaded and
// deterministic.

func TestWatchdog_PollLogsOnlyStalledStacks(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelDebug, &buf)
	s, err := New(WithNumActiveStacks(2), WithLogger(logger))
	require.NoError(t, err)

	w := newWatchdog(s, time.Millisecond)
	for i := 0; i < s.numActiveStacks; i++ {
		w.last[i] = s.Iteration(i)
	}

	// stack 0 advances, stack 1 doesn't.
	s.iterations[0].Store(1)

	w.poll()
	require.Contains(t, buf.String(), "stall")

	buf.Reset()
	// advancing both stacks past their last observation silences them.
	s.iterations[0].Store(2)
	s.iterations[1].Store(1)
	w.poll()
	require.NotContains(t, buf.String(), "stall")
}

func TestWatchdog_RateLimitsRepeatedStallWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(LevelDebug, &buf)
	s, err := New(WithNumActiveStacks(1), WithLogger(logger))
	require.NoError(t, err)

	w := newWatchdog(s, time.Millisecond)
	for i := 0; i < s.numActiveStacks; i++ {
		w.last[i] = s.Iteration(i)
	}

	w.poll()
	first := buf.Len()
	require.Greater(t, first, 0)

	buf.Reset()
	w.poll() // stack still stalled, but within the rate-limit window
	require.Empty(t, buf.String())
}
