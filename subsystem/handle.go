package subsystem

import (
	"unsafe"

	frameScheduler "github.com/joeycumines/go-frame-scheduler"
)

// Handle is the contract every per-frame producer implements (spec.md §6):
// a one-time Init binding it to its stack, and a SubmitTasks task body that
// every subsystem records as the first (and therefore last-executing, per
// stack.go's LIFO discipline) entry in its batch — the task that refills
// the stack for the next frame.
type Handle interface {
	// Init binds the subsystem to its task stack. Called once, before the
	// scheduler's Run.
	Init(stack *frameScheduler.TaskStackHandle)

	// SubmitTasks records this subsystem's next batch of tasks. It always
	// returns frameScheduler.NoCheckpoints: re-recording the batch is a
	// side effect, not something dependents wait on.
	SubmitTasks(args unsafe.Pointer, workerID int) uint64
}

// Base is embeddable by a concrete Handle implementation to get the stack
// binding and arena plumbing for free.
type Base struct {
	Stack *frameScheduler.TaskStackHandle
	Arena Arena
}

// Init implements the Stack-binding half of Handle, also claiming this
// subsystem's Arena block from the shared pool. Concrete subsystems
// embedding Base still implement SubmitTasks themselves.
func (b *Base) Init(stack *frameScheduler.TaskStackHandle) {
	b.Stack = stack
	b.Arena.Init()
}
