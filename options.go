// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package frameScheduler

import (
	"runtime"
	"time"

	_ "go.uber.org/automaxprocs"
)

// schedulerOptions holds configuration for New.
type schedulerOptions struct {
	numActiveStacks     int
	workerCount         int
	terminationThreshold uint64
	logger              Logger
	metricsEnabled      bool
	profilingEnabled    bool
	profilingCapacity   int
	watchdogInterval    time.Duration
	pinWorkers          bool
}

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applyFunc(opts)
}

// WithNumActiveStacks sets how many of the NumStacks slots are ever
// selected by a worker (spec.md §3, §9 open question: left as a runtime
// tunable rather than a compile-time constant). Must be in [1, NumStacks].
func WithNumActiveStacks(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.numActiveStacks = n
		return nil
	}}
}

// WithWorkerCount sets the number of worker goroutines. Zero (the
// default) selects runtime.GOMAXPROCS(0), which automaxprocs has already
// adjusted for the container's CPU quota, capped at MaxWorkers.
func WithWorkerCount(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.workerCount = n
		return nil
	}}
}

// WithTerminationThreshold sets the total_executed count (spec.md §4.8)
// at which the scheduler requests its own shutdown. Zero (the default)
// disables the automatic threshold; termination must then be driven
// externally via Shutdown.
func WithTerminationThreshold(n uint64) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.terminationThreshold = n
		return nil
	}}
}

// WithLogger sets the structured logger used for lifecycle and diagnostic
// events (stack drains, mask recomputation, watchdog warnings). Defaults
// to NoOpLogger.
func WithLogger(logger Logger) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime metrics collection (per-stack depth, task
// latency, frame rate). Adds minimal overhead; disable for zero-allocation
// hot paths.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithProfiling enables the per-worker profiling ring buffer (spec.md §6
// "Profiling") with the given fixed capacity per worker.
func WithProfiling(enabled bool, capacity int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.profilingEnabled = enabled
		opts.profilingCapacity = capacity
		return nil
	}}
}

// WithWatchdogInterval sets how often the watchdog checks for stalled
// stacks (spec.md §8 B2). Zero disables the watchdog.
func WithWatchdogInterval(d time.Duration) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.watchdogInterval = d
		return nil
	}}
}

// WithWorkerAffinity enables pinning each worker goroutine's underlying
// OS thread to a single CPU via sched_setaffinity (Linux only; a no-op
// elsewhere). Improves cache locality for the claim-protocol hot loop at
// the cost of losing the scheduler's ability to rebalance OS threads.
func WithWorkerAffinity(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.pinWorkers = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions, seeded
// with defaults.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		numActiveStacks:   NumStacks,
		workerCount:       0, // auto
		logger:            &NoOpLogger{},
		profilingCapacity: 0,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.numActiveStacks < 1 || cfg.numActiveStacks > NumStacks {
		return nil, ErrInvalidActiveStackCount
	}
	if cfg.workerCount <= 0 {
		cfg.workerCount = runtime.GOMAXPROCS(0)
	}
	if cfg.workerCount > MaxWorkers {
		cfg.workerCount = MaxWorkers
	}
	return cfg, nil
}
