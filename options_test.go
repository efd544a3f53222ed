package frameScheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptions_Defaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, NumStacks, cfg.numActiveStacks)
	assert.Greater(t, cfg.workerCount, 0)
	assert.LessOrEqual(t, cfg.workerCount, MaxWorkers)
	assert.IsType(t, &NoOpLogger{}, cfg.logger)
	assert.False(t, cfg.logger.IsEnabled(LevelError))
}

func TestResolveOptions_RejectsOutOfRangeActiveStacks(t *testing.T) {
	_, err := resolveOptions([]Option{WithNumActiveStacks(0)})
	assert.ErrorIs(t, err, ErrInvalidActiveStackCount)

	_, err = resolveOptions([]Option{WithNumActiveStacks(NumStacks + 1)})
	assert.ErrorIs(t, err, ErrInvalidActiveStackCount)
}

func TestResolveOptions_WorkerCountCappedAtMaxWorkers(t *testing.T) {
	cfg, err := resolveOptions([]Option{WithWorkerCount(MaxWorkers * 2)})
	require.NoError(t, err)
	assert.Equal(t, MaxWorkers, cfg.workerCount)
}

func TestResolveOptions_AppliesEveryOption(t *testing.T) {
	logger := NewDefaultLogger(LevelDebug)
	cfg, err := resolveOptions([]Option{
		WithNumActiveStacks(4),
		WithWorkerCount(2),
		WithTerminationThreshold(1000),
		WithLogger(logger),
		WithMetrics(true),
		WithProfiling(true, 16),
		WithWatchdogInterval(time.Second),
		WithWorkerAffinity(true),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.numActiveStacks)
	assert.Equal(t, 2, cfg.workerCount)
	assert.Equal(t, uint64(1000), cfg.terminationThreshold)
	assert.Same(t, logger, cfg.logger)
	assert.True(t, cfg.metricsEnabled)
	assert.True(t, cfg.profilingEnabled)
	assert.Equal(t, 16, cfg.profilingCapacity)
	assert.Equal(t, time.Second, cfg.watchdogInterval)
	assert.True(t, cfg.pinWorkers)
}

func TestResolveOptions_NilOptionIsSkipped(t *testing.T) {
	cfg, err := resolveOptions([]Option{nil, WithNumActiveStacks(2), nil})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.numActiveStacks)
}
