package frameScheduler

import (
	"runtime/debug"
	"time"
)

// runWorker is the worker main loop of spec.md §4.6. Each of the
// scheduler's workerCount goroutines runs one of these, cooperating
// purely through atomics: there are no suspension points within the
// scheduler itself (spec.md §5).
func (s *Scheduler) runWorker(workerID int) {
	defer s.wg.Done()

	if s.pinWorkers {
		unpin := pinWorker(workerID)
		defer unpin()
	}

	previousStack := -1
	var previousIteration uint32

	profiling := s.profiling != nil
	metrics := s.metrics != nil

	for !s.quitRequest.Load() {
		var schedStart time.Time
		if profiling {
			schedStart = time.Now()
		}

		mainStack, mask := s.pri.Load()

		prevBit, havePrevAffinity := s.previousStackAffinity(previousStack, previousIteration, mainStack)
		bit, remaining := selectCandidate(mask, prevBit, havePrevAffinity)

		stackIndex, iteration, size := s.claimTask(mainStack, &bit, &remaining, &mask, previousStack, previousIteration)

		var schedEnd time.Time
		if profiling || metrics {
			schedEnd = time.Now()
		}

		if size == 1 {
			s.drainedStack(workerID, stackIndex)
		}

		task := s.stacks[stackIndex].tasks[size]
		fired := s.safeExecute(workerID, stackIndex, task)
		s.recordExecution(uint64(iteration), fired)

		if metrics {
			s.metrics.StackDepth.Update(stackIndex, int(size-1))
			s.metrics.RecordTaskLatency(time.Since(schedEnd))
		}
		if profiling {
			s.profiling.record(workerID, ProfileEntry{
				SchedStart:               schedStart,
				SchedEnd:                 schedEnd,
				ExecEnd:                  time.Now(),
				Stack:                    stackIndex,
				CheckpointsPreviousFrame: task.CheckpointsPreviousFrame,
				CheckpointsCurrentFrame:  task.CheckpointsCurrentFrame,
				ReachedCheckpoints:       fired,
			})
		}

		previousStack = stackIndex
		previousIteration = iteration
	}
}

// previousStackAffinity reports whether the worker should still bias
// toward the stack it last ran a task from (spec.md §4.6: "the previous
// stack, if it's still on the same iteration the worker last saw it on").
func (s *Scheduler) previousStackAffinity(previousStack int, previousIteration, mainStack uint32) (bit uint32, have bool) {
	if previousStack < 0 {
		return 0, false
	}
	if s.iterations[previousStack].Load() != previousIteration {
		return 0, false
	}
	return relativeBit(mainStack, uint32(previousStack)), true
}

// claimTask runs the inner claim loop of spec.md §4.4/§4.6: try the
// current candidate bit, fall back to bsf across the remaining mask,
// reloading pri_mask_main_stack whenever the mask is exhausted, until a
// task is successfully claimed.
func (s *Scheduler) claimTask(mainStack uint32, bit, remaining, mask *uint32, previousStack int, previousIteration uint32) (stackIndex int, iteration, size uint32) {
	for {
		absStack := (mainStack + *bit) % NumStacks
		stack := s.stacks[absStack]

		iter, sz := stack.Load()
		if sz > 0 {
			task := stack.tasks[sz]
			blocked := s.checkpoints.Blocked(uint64(iter), task.CheckpointsCurrentFrame, task.CheckpointsPreviousFrame)
			if blocked == 0 && stack.CompareAndSwap(iter, sz) {
				return int(absStack), iter, sz
			}
		}

		if *remaining == 0 {
			mainStack, *mask = s.pri.Load()
			var havePrevAffinity bool
			*bit, havePrevAffinity = s.previousStackAffinity(previousStack, previousIteration, mainStack)
			*bit, *remaining = selectCandidate(*mask, *bit, havePrevAffinity)
			continue
		}
		*bit, *remaining = nextCandidate(*remaining)
	}
}

// safeExecute runs a claimed task with panic recovery (grounded on the
// teacher's safeExecute/safeExecuteFn), returning the checkpoints it
// reached, or NoCheckpoints if it panicked.
func (s *Scheduler) safeExecute(workerID, stackIndex int, task Task) (fired uint64) {
	defer func() {
		if r := recover(); r != nil {
			LogTaskPanicked(s.logger, workerID, stackIndex, r, debug.Stack())
			fired = NoCheckpoints
		}
	}()
	return task.Execute(task.Args, workerID)
}
