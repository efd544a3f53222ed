package frameScheduler

// These constants define the fixed capacity of the scheduler. None of them
// are dynamically resizable at runtime (see spec.md's Non-goals).
const (
	// NumStacks is the total number of task stacks the scheduler carries,
	// active or not.
	NumStacks = 16

	// StackSize is the fixed capacity of a single task stack, including the
	// reserved sentinel at slot 0.
	StackSize = 128

	// MaxWorkers is the hard cap on the number of worker goroutines a
	// Scheduler may run.
	MaxWorkers = 32

	// inactiveIteration is stored in Scheduler.iterations for any stack at
	// or beyond NumActiveStacks, guaranteeing it never ties the horizontal
	// minimum during priority-mask recomputation (§4.5).
	inactiveIteration = 0x7FFFFFFF

	// noCheckpoints is the value a task returns from Execute when it fired
	// nothing.
	noCheckpoints = 0
)

// NoCheckpoints is the zero checkpoint mask. Tasks that reach no checkpoint
// (e.g. submit_tasks, or any task run purely for its side effects) return
// this from Execute.
const NoCheckpoints uint64 = noCheckpoints

// Checkpoint is a named single-bit dependency predicate. At most 20 are
// meaningful per spec.md §3, but the bitmap itself carries 64.
type Checkpoint uint64

// Named checkpoints for the example subsystem domain described in spec.md §3.
// Consumers of this package are free to define their own Checkpoint values;
// these are provided so the tests, doc examples and subsystem contracts have
// something concrete to depend on.
const (
	CheckpointInput1 Checkpoint = 1 << iota
	CheckpointPhysics1
	CheckpointPhysics2
	CheckpointPhysics3
	CheckpointPhysics4
	CheckpointAnimation1
	CheckpointAnimation2
	CheckpointAnimation3
	CheckpointAI1
	CheckpointAI2
	CheckpointStreaming1
	CheckpointStreaming2
	CheckpointStreaming3
	CheckpointStreaming4
	CheckpointSound1
	CheckpointRendering1
	CheckpointRendering2
	CheckpointRendering3
	CheckpointRenderingWritePerfOverlay
	CheckpointRenderingPresent
)
