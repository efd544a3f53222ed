// Package frameScheduler provides a fixed-capacity, lock-free, frame-based
// task scheduler for soft-realtime interactive applications (game loops,
// simulation ticks, and similar convoys of cooperating subsystems).
//
// # Architecture
//
// Work is organized into NumStacks independent task stacks, each owned by
// exactly one subsystem. A subsystem records a batch of tasks onto its
// stack once per frame via a [TaskStackHandle] ([TaskStackHandle.BeginRecording],
// [TaskStackHandle.Record], [TaskStackHandle.SubmitRecording]), and a fixed
// pool of worker goroutines claims and runs tasks from whichever stacks are
// unblocked, biased toward a rotating main stack so that no stack starves.
//
// Cross-subsystem ordering is expressed with checkpoints rather than locks:
// a task can require that a bitmask of checkpoints fired in the current
// and/or previous frame before it becomes claimable, letting independent
// stacks fan in and out without a shared mutex.
//
// # Concurrency
//
// Every hot-path coordination point (task stacks, the checkpoint bitmaps,
// the priority mask) is a single atomic word; there are no mutexes and no
// suspension points inside a worker's claim loop. Two logical 32-bit values
// are frequently packed into one atomic.Uint64 to keep reads from tearing
// (see packed.go).
//
// # Usage
//
//	s, err := frameScheduler.New(
//	    frameScheduler.WithNumActiveStacks(4),
//	    frameScheduler.WithMetrics(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	input := s.Stack(0)
//	input.BeginRecording()
//	input.Record(frameScheduler.Task{
//	    Execute: func(args unsafe.Pointer, workerID int) uint64 {
//	        return uint64(frameScheduler.CheckpointInput1)
//	    },
//	})
//	input.SubmitRecording()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	go func() {
//	    if err := s.Run(ctx); err != nil {
//	        log.Println(err)
//	    }
//	}()
//	defer cancel()
//
// # Error Types
//
// [StackOverflowError] and [DeadlockError] report the scheduler's two fatal
// conditions: a producer overflowing its stack's fixed capacity, and the
// watchdog observing a stack stalled past its checkpoint dependencies.
package frameScheduler
