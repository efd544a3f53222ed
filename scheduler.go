package frameScheduler

import (
	"context"
	"sync"
	"sync/atomic"
)

// Scheduler is the shared data structure accessed by every worker
// goroutine (spec.md §2). It owns NumStacks task stacks, the global
// checkpoint bitmap pair, the priority-mask/main-stack word, the
// per-stack iteration vector, and the lifecycle/shutdown state.
type Scheduler struct { // betteralign:ignore
	_ [0]func() // prevent copying

	stacks      [NumStacks]*taskStack
	iterations  [NumStacks]atomic.Uint32
	pri         priorityWord
	checkpoints checkpointBitmaps

	quitRequest   atomic.Bool
	totalExecuted atomic.Uint64

	state *runState

	numActiveStacks      int
	workerCount          int
	terminationThreshold uint64
	logger               Logger
	metrics              *Metrics
	profiling            *profiling
	watchdog             *watchdog
	pinWorkers           bool

	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Scheduler configured by opts. Every stack, active or not,
// is allocated up front (spec.md §3 "Stacks are created once at boot and
// never destroyed"); inactive stacks are seeded with inactiveIteration so
// the priority-mask reduction never selects them (I5).
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		state:                newRunState(),
		numActiveStacks:      cfg.numActiveStacks,
		workerCount:          cfg.workerCount,
		terminationThreshold: cfg.terminationThreshold,
		logger:               cfg.logger,
		pinWorkers:           cfg.pinWorkers,
		done:                 make(chan struct{}),
	}

	if cfg.metricsEnabled {
		s.metrics = NewMetrics()
	}
	if cfg.profilingEnabled {
		s.profiling = newProfiling(cfg.workerCount, cfg.profilingCapacity)
	}

	for i := 0; i < NumStacks; i++ {
		s.stacks[i] = newTaskStack(i)
		if i < cfg.numActiveStacks {
			s.iterations[i].Store(0)
		} else {
			s.iterations[i].Store(inactiveIteration)
		}
	}
	s.checkpoints.init()
	// main stack 0, every active stack allowed: at boot every active
	// stack ties the global minimum iteration (0), which is exactly what
	// recomputePriorityMask's own equality-mask rule would produce run
	// against the all-zero iteration vector (TaskScheduling.cpp's
	// init_scheduler: s_pri_mask_main_stack = (1<<NUM_ACTIVE_STACKS)-1).
	s.pri.Store(0, uint32(1<<uint(cfg.numActiveStacks))-1)

	if cfg.watchdogInterval > 0 {
		s.watchdog = newWatchdog(s, cfg.watchdogInterval)
	}

	return s, nil
}

// Stack returns the task stack at the given index, for use by a producer
// populating its subsystem's batch (spec.md §4.7). index must be in
// [0, NumStacks).
func (s *Scheduler) Stack(index int) *TaskStackHandle {
	return &TaskStackHandle{stack: s.stacks[index], iterations: &s.iterations[index]}
}

// NumActiveStacks returns the configured number of active stacks.
func (s *Scheduler) NumActiveStacks() int { return s.numActiveStacks }

// TotalExecuted returns the running count of completed task executions.
func (s *Scheduler) TotalExecuted() uint64 { return s.totalExecuted.Load() }

// Iteration returns the current iteration (frame number) of the given
// stack.
func (s *Scheduler) Iteration(stack int) uint32 { return s.iterations[stack].Load() }

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() RunState { return s.state.Load() }

// Metrics returns the scheduler's metrics collector, or nil if
// WithMetrics was not enabled.
func (s *Scheduler) Metrics() *Metrics { return s.metrics }

// ProfileSnapshot returns a copy of the given worker's profiling ring, or
// nil if WithProfiling was not enabled.
func (s *Scheduler) ProfileSnapshot(workerID int) []ProfileEntry {
	if s.profiling == nil {
		return nil
	}
	return s.profiling.snapshot(workerID)
}

// Run starts workerCount worker goroutines and blocks until every worker
// has exited, either because quit_request was set (spec.md §4.8) or ctx
// was canceled. It returns ErrSchedulerAlreadyRunning or
// ErrSchedulerTerminated if called more than once.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.TryTransition(StateAwake, StateRunning) {
		if s.state.Load() == StateTerminated {
			return ErrSchedulerTerminated
		}
		return ErrSchedulerAlreadyRunning
	}

	if s.watchdog != nil {
		s.watchdog.start(ctx)
		defer s.watchdog.stop()
	}

	stopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-ctx.Done():
			s.requestShutdown(0, "context canceled")
		case <-stopCtx.Done():
		}
	}()

	s.wg.Add(s.workerCount)
	for w := 0; w < s.workerCount; w++ {
		go s.runWorker(w)
	}
	s.wg.Wait()

	s.state.Store(StateTerminated)
	s.doneOnce.Do(func() { close(s.done) })

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Shutdown requests cooperative shutdown (spec.md §4.8) and waits for
// every worker to exit or ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	current := s.state.Load()
	if current == StateTerminated {
		return nil
	}
	if current == StateAwake {
		return ErrSchedulerNotRunning
	}

	s.requestShutdown(0, "Shutdown called")

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestShutdown sets quit_request exactly once and logs who triggered
// it.
func (s *Scheduler) requestShutdown(workerID int, reason string) {
	if s.quitRequest.CompareAndSwap(false, true) {
		s.state.TryTransition(StateRunning, StateTerminating)
		LogShutdownRequested(s.logger, workerID, reason)
	}
}

func (s *Scheduler) recordExecution(iteration uint64, fired uint64) {
	total := s.totalExecuted.Add(1)
	if fired != 0 {
		s.checkpoints.fire(iteration, fired)
	}
	if s.terminationThreshold > 0 && total >= s.terminationThreshold {
		s.requestShutdown(0, "termination threshold reached")
	}
}

func (s *Scheduler) loadIterations() [NumStacks]uint32 {
	var out [NumStacks]uint32
	for i := 0; i < NumStacks; i++ {
		out[i] = s.iterations[i].Load()
	}
	return out
}

// drainedStack bumps the stack's iteration counter and recomputes the
// priority mask (spec.md §4.4: "when a worker claims the last task...
// (a) bump that stack's iterations[s] and (b) recompute
// pri_mask_main_stack. Step (a) happens before (b)").
func (s *Scheduler) drainedStack(workerID, stackIndex int) {
	newIteration := s.iterations[stackIndex].Add(1)
	LogStackDrained(s.logger, workerID, stackIndex, newIteration)

	for {
		oldMain, oldMask := s.pri.Load()
		iterations := s.loadIterations()
		newMain, newMask := recomputePriorityMask(iterations, oldMain, s.numActiveStacks)
		if s.pri.CompareAndSwap(oldMain, oldMask, newMain, newMask) {
			LogMaskRecomputed(s.logger, workerID, oldMain, newMain, newMask)
			return
		}
		// A concurrent drain already updated the word; the reduction is a
		// pure function of (iterations, oldMainStack, numActiveStacks)
		// (spec.md §4.5), so simply retry against the latest word.
	}
}
