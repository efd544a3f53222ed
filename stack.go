package frameScheduler

import (
	"sync/atomic"
	"unsafe"
)

// Task is one unit of scheduled work (spec.md §3). It must stay trivially
// copyable: Execute and Args are the only indirection, and a Task is copied
// by value into a stack slot during recording.
type Task struct {
	// Execute runs the task, given its argument pointer (opaque, owned by
	// the producer's bump arena) and the claiming worker's id. It returns
	// the set of checkpoints reached by running it, or NoCheckpoints.
	Execute func(args unsafe.Pointer, workerID int) uint64

	// Args is an opaque pointer into the producing subsystem's argument
	// arena. Its lifetime ends when that subsystem's submit_tasks task
	// next clears the arena (spec.md §5 "Ownership").
	Args unsafe.Pointer

	// CheckpointsPreviousFrame must have all fired in the previous frame
	// before this task may run.
	CheckpointsPreviousFrame uint64

	// CheckpointsCurrentFrame must have all fired in the current frame
	// before this task may run.
	CheckpointsCurrentFrame uint64
}

// dontDoIt is the slot-0 sentinel every stack carries. Under the documented
// invariants (§9 open questions) it is never reachable: size never reaches
// 0 while a claim is outstanding, and the claim protocol only ever indexes
// tasks[size] for size >= 1. It is retained (rather than asserted
// unreachable) so a logic error that does reach it fails loudly instead of
// executing whatever stale Task happened to occupy the slot.
var dontDoIt = Task{
	Execute: func(unsafe.Pointer, int) uint64 {
		panic("frameScheduler: dont_do_it sentinel task was executed")
	},
}

// taskStack owns STACK_SIZE task slots for one subsystem (spec.md §3). Slot
// 0 is the sentinel; live tasks occupy slots [1, size]. Execution pops from
// the top (slot == size) down to slot 1, LIFO, so the first task recorded
// in a batch (conventionally submit_tasks) is the last one to execute that
// frame.
type taskStack struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte

	// iterationsSize packs (iteration, size) per packed.go's
	// packIterSize/unpackIterSize. Readers use Load (acquire); the claim
	// protocol uses CompareAndSwap (acq-rel); submit_recording uses Store
	// (release).
	iterationsSize packedWord

	// index is this stack's position in [0, NumStacks).
	index int

	// unpublishedSize is producer-only scratch used during recording
	// (begin_recording/record/submit_recording). It is never read by a
	// worker.
	unpublishedSize int

	tasks [StackSize]Task

	_ [sizeOfCacheLine]byte
}

// newTaskStack initializes a stack at the given index with dontDoIt seated
// in slot 0 and iteration/size both zero.
func newTaskStack(index int) *taskStack {
	s := &taskStack{index: index}
	s.tasks[0] = dontDoIt
	return s
}

// Load reads this stack's (iteration, size) word with acquire ordering.
func (s *taskStack) Load() (iteration, size uint32) {
	return unpackIterSize(s.iterationsSize.v.Load())
}

// CompareAndSwap attempts the claim-protocol CAS described in spec.md
// §4.4: decrementing size by one iff the observed (iteration, size) pair
// is still current.
func (s *taskStack) CompareAndSwap(iteration, size uint32) bool {
	old := packIterSize(iteration, size)
	next := packIterSize(iteration, size-1)
	return s.iterationsSize.v.CompareAndSwap(old, next)
}

// BeginRecording starts a new batch for this stack. Slot 0 is the
// sentinel, so unpublished_size starts at 1 (spec.md §4.7).
func (s *taskStack) BeginRecording() {
	s.unpublishedSize = 1
}

// Record appends task to the batch under construction. It panics on
// overflow: exceeding STACK_SIZE during recording is a programming error
// (spec.md §7), not a recoverable condition.
func (s *taskStack) Record(task Task) {
	if s.unpublishedSize >= StackSize {
		panic(&StackOverflowError{Stack: s.index, Size: StackSize})
	}
	s.tasks[s.unpublishedSize] = task
	s.unpublishedSize++
}

// SubmitRecording publishes the batch atomically: the stack's iteration
// counter (read from the shared iterations vector) paired with the new
// size, stored with release ordering so that a worker's subsequent acquire
// load observes every recorded task (spec.md §4.7).
func (s *taskStack) SubmitRecording(iteration uint32) {
	size := uint32(s.unpublishedSize - 1)
	s.iterationsSize.v.Store(packIterSize(iteration, size))
}

// TaskStackHandle is the producer-facing handle a subsystem uses to
// record a batch of tasks (spec.md §4.7, §6 "Producer API"). One handle
// per stack, owned by exactly one subsystem by construction (spec.md §5
// "Ownership").
type TaskStackHandle struct {
	stack      *taskStack
	iterations *atomic.Uint32
}

// BeginRecording starts a new batch (spec.md §4.7).
func (h *TaskStackHandle) BeginRecording() {
	h.stack.BeginRecording()
}

// Record appends task to the batch under construction.
func (h *TaskStackHandle) Record(task Task) {
	h.stack.Record(task)
}

// SubmitRecording publishes the batch, pairing it with the stack's
// current iteration as read from the shared iterations vector.
func (h *TaskStackHandle) SubmitRecording() {
	h.stack.SubmitRecording(h.iterations.Load())
}

// Index returns this stack's position in [0, NumStacks).
func (h *TaskStackHandle) Index() int {
	return h.stack.index
}
