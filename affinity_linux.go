//go:build linux

package frameScheduler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorker locks the calling goroutine to its OS thread and pins that
// thread to a single CPU (workerID modulo the number of CPUs available to
// this process), improving cache locality for the claim-protocol hot loop
// (WithWorkerAffinity). The returned func undoes both.
func pinWorker(workerID int) (unpin func()) {
	runtime.LockOSThread()

	var cpus unix.CPUSet
	if err := unix.SchedGetaffinity(0, &cpus); err != nil || cpus.Count() == 0 {
		return runtime.UnlockOSThread
	}

	const maxCPUs = 4096
	ids := make([]int, 0, cpus.Count())
	for cpu := 0; cpu < maxCPUs; cpu++ {
		if cpus.IsSet(cpu) {
			ids = append(ids, cpu)
		}
	}
	if len(ids) == 0 {
		return runtime.UnlockOSThread
	}

	var mask unix.CPUSet
	mask.Set(ids[workerID%len(ids)])
	_ = unix.SchedSetaffinity(0, &mask)

	return runtime.UnlockOSThread
}
