package frameScheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedStack records a single always-ready task into stack i and submits it
// at iteration 0, so a freshly created Scheduler has something to claim.
func seedStack(t *testing.T, s *Scheduler, i int, execute func(unsafe.Pointer, int) uint64) {
	t.Helper()
	h := s.Stack(i)
	h.BeginRecording()
	h.Record(Task{Execute: execute})
	h.SubmitRecording()
}

func TestNew_AllocatesAllStacksButMarksInactiveOnesUnselectable(t *testing.T) {
	s, err := New(WithNumActiveStacks(2))
	require.NoError(t, err)

	for i := 0; i < NumStacks; i++ {
		require.NotNil(t, s.stacks[i])
	}
	assert.Equal(t, uint32(0), s.iterations[0].Load())
	assert.Equal(t, uint32(0), s.iterations[1].Load())
	assert.Equal(t, uint32(inactiveIteration), s.iterations[2].Load())
}

func TestScheduler_RunExecutesRecordedTaskAndRespectsTerminationThreshold(t *testing.T) {
	s, err := New(
		WithNumActiveStacks(1),
		WithWorkerCount(1),
		WithTerminationThreshold(3),
	)
	require.NoError(t, err)

	var executed atomic.Int64
	var resubmit func(workerID int) uint64
	resubmit = func(workerID int) uint64 {
		n := executed.Add(1)
		if n < 10 {
			h := s.Stack(0)
			h.BeginRecording()
			h.Record(Task{Execute: func(unsafe.Pointer, int) uint64 { return resubmit(workerID) }})
			h.SubmitRecording()
		}
		return NoCheckpoints
	}

	h := s.Stack(0)
	h.BeginRecording()
	h.Record(Task{Execute: func(_ unsafe.Pointer, workerID int) uint64 { return resubmit(workerID) }})
	h.SubmitRecording()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, s.State())
	assert.GreaterOrEqual(t, s.TotalExecuted(), uint64(3))
}

func TestScheduler_RunReturnsErrSchedulerAlreadyRunningOnSecondCall(t *testing.T) {
	s, err := New(WithNumActiveStacks(1), WithWorkerCount(1))
	require.NoError(t, err)

	var resubmit func(int) uint64
	resubmit = func(workerID int) uint64 {
		h := s.Stack(0)
		h.BeginRecording()
		h.Record(Task{Execute: func(_ unsafe.Pointer, wID int) uint64 { return resubmit(wID) }})
		h.SubmitRecording()
		return NoCheckpoints
	}
	seedStack(t, s, 0, func(_ unsafe.Pointer, workerID int) uint64 { return resubmit(workerID) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for s.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}

	err2 := s.Run(context.Background())
	assert.ErrorIs(t, err2, ErrSchedulerAlreadyRunning)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first Run never returned")
	}
}

func TestScheduler_RunAfterTerminationReturnsErrSchedulerTerminated(t *testing.T) {
	s, err := New(WithNumActiveStacks(1), WithWorkerCount(1), WithTerminationThreshold(1))
	require.NoError(t, err)
	seedStack(t, s, 0, func(unsafe.Pointer, int) uint64 { return NoCheckpoints })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerTerminated)
}

func TestScheduler_ShutdownBeforeRunReturnsErrSchedulerNotRunning(t *testing.T) {
	s, err := New(WithNumActiveStacks(1))
	require.NoError(t, err)
	err = s.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_ShutdownStopsRunningWorkers(t *testing.T) {
	s, err := New(WithNumActiveStacks(1), WithWorkerCount(2))
	require.NoError(t, err)

	var resubmit func(workerID int) uint64
	resubmit = func(workerID int) uint64 {
		h := s.Stack(0)
		h.BeginRecording()
		h.Record(Task{Execute: func(_ unsafe.Pointer, wID int) uint64 { return resubmit(wID) }})
		h.SubmitRecording()
		return NoCheckpoints
	}
	seedStack(t, s, 0, func(_ unsafe.Pointer, workerID int) uint64 { return resubmit(workerID) })

	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(context.Background()) }()

	// Give the workers a moment to start spinning through the resubmission
	// loop before asking them to stop.
	time.Sleep(20 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(shutdownCtx))

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Equal(t, StateTerminated, s.State())
}

func TestScheduler_RunStopsWhenContextCanceled(t *testing.T) {
	s, err := New(WithNumActiveStacks(1), WithWorkerCount(1))
	require.NoError(t, err)

	var resubmit func(workerID int) uint64
	resubmit = func(workerID int) uint64 {
		h := s.Stack(0)
		h.BeginRecording()
		h.Record(Task{Execute: func(_ unsafe.Pointer, wID int) uint64 { return resubmit(wID) }})
		h.SubmitRecording()
		return NoCheckpoints
	}
	seedStack(t, s, 0, func(_ unsafe.Pointer, workerID int) uint64 { return resubmit(workerID) })

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

// TestScheduler_CrossStackCheckpointDependency exercises spec.md §8's
// cross-frame checkpoint dependency scenario directly: a task on stack 1
// requires CheckpointPhysics1 to have fired in the previous frame before it
// may run, and must not run before that dependency is satisfied. Frame 0's
// previous-frame requirement is already met by the boot value, so the check
// starts with the dependent's second run (frame 1 onward): its n-th run needs
// stack 0's frame n-2 task, i.e. at least n-1 physics runs, to have executed.
func TestScheduler_CrossStackCheckpointDependency(t *testing.T) {
	s, err := New(WithNumActiveStacks(2), WithWorkerCount(4), WithTerminationThreshold(40))
	require.NoError(t, err)

	var physicsRuns, dependentRuns atomic.Int64
	var dependentOrderViolation atomic.Bool

	var resubmitPhysics func(int) uint64
	resubmitPhysics = func(workerID int) uint64 {
		physicsRuns.Add(1)
		h := s.Stack(0)
		h.BeginRecording()
		h.Record(Task{Execute: func(_ unsafe.Pointer, wID int) uint64 { return resubmitPhysics(wID) }})
		h.SubmitRecording()
		return uint64(CheckpointPhysics1)
	}

	var resubmitDependent func(int) uint64
	resubmitDependent = func(workerID int) uint64 {
		n := dependentRuns.Add(1)
		if n > 1 && physicsRuns.Load() < n-1 {
			dependentOrderViolation.Store(true)
		}
		h := s.Stack(1)
		h.BeginRecording()
		h.Record(Task{
			Execute:                  func(_ unsafe.Pointer, wID int) uint64 { return resubmitDependent(wID) },
			CheckpointsPreviousFrame: uint64(CheckpointPhysics1),
		})
		h.SubmitRecording()
		return NoCheckpoints
	}

	ph := s.Stack(0)
	ph.BeginRecording()
	ph.Record(Task{Execute: func(_ unsafe.Pointer, wID int) uint64 { return resubmitPhysics(wID) }})
	ph.SubmitRecording()

	dep := s.Stack(1)
	dep.BeginRecording()
	dep.Record(Task{
		Execute:                  func(_ unsafe.Pointer, wID int) uint64 { return resubmitDependent(wID) },
		CheckpointsPreviousFrame: uint64(CheckpointPhysics1),
	})
	dep.SubmitRecording()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	assert.False(t, dependentOrderViolation.Load(), "dependent task ran in frame f before the physics task of frame f-1 had executed")
	assert.Greater(t, int64(dependentRuns.Load()), int64(0))
}

func TestScheduler_MetricsDisabledByDefault(t *testing.T) {
	s, err := New(WithNumActiveStacks(1))
	require.NoError(t, err)
	assert.Nil(t, s.Metrics())
}

func TestScheduler_MetricsEnabledReturnsCollector(t *testing.T) {
	s, err := New(WithNumActiveStacks(1), WithMetrics(true))
	require.NoError(t, err)
	assert.NotNil(t, s.Metrics())
}

func TestScheduler_ProfileSnapshotNilWhenDisabled(t *testing.T) {
	s, err := New(WithNumActiveStacks(1))
	require.NoError(t, err)
	assert.Nil(t, s.ProfileSnapshot(0))
}

func TestScheduler_DrainedStackBumpsIterationAndRecomputesMask(t *testing.T) {
	s, err := New(WithNumActiveStacks(4))
	require.NoError(t, err)

	before := s.Iteration(0)
	s.drainedStack(0, 0)
	assert.Equal(t, before+1, s.Iteration(0))

	_, mask := s.pri.Load()
	assert.NotEqual(t, uint32(0), mask)
}
