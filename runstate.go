package frameScheduler

import (
	"sync/atomic"
)

// RunState represents the lifecycle state of a Scheduler. It is distinct
// from the per-stack iteration/size word and the priority-mask/main-stack
// word (packed.go): this is the scheduler's own start/stop state machine,
// not part of the hot worker-selection path.
//
// State Machine:
//
//	StateAwake (0) → StateRunning (3)        [Run()]
//	StateRunning (3) → StateTerminating (4)  [Shutdown()]
//	StateTerminating (4) → StateTerminated (1) [all workers joined]
//	StateTerminated (1) → (terminal)
//
// Use TryTransition (CAS) for every transition except the final one into
// StateTerminated, which is only ever reached from StateTerminating and is
// safe to Store directly once joined.
type RunState uint64

const (
	// StateAwake indicates the scheduler has been created but Run has not
	// been called.
	StateAwake RunState = 0
	// StateTerminated indicates every worker has exited and Run has
	// returned.
	StateTerminated RunState = 1
	// StateRunning indicates workers are actively claiming and executing
	// tasks.
	StateRunning RunState = 3
	// StateTerminating indicates Shutdown has been requested; workers are
	// finishing their current task and observing quitRequest.
	StateTerminating RunState = 4
)

// String returns a human-readable representation of the state.
func (s RunState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// runState is a lock-free state machine with cache-line padding, preventing
// false sharing with whatever hot atomics are adjacent to it in Scheduler.
type runState struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte
	v atomic.Uint64
	_ [sizeOfCacheLine]byte
}

func newRunState() *runState {
	s := &runState{}
	s.v.Store(uint64(StateAwake))
	return s
}

func (s *runState) Load() RunState {
	return RunState(s.v.Load())
}

func (s *runState) Store(state RunState) {
	s.v.Store(uint64(state))
}

func (s *runState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

func (s *runState) IsTerminal() bool {
	return s.Load() == StateTerminated
}
