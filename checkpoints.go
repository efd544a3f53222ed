package frameScheduler

import "sync/atomic"

// checkpointBitmaps holds the two parity-indexed checkpoint bitmaps
// described in spec.md §3/§4.2, cache-line padded the way the teacher pads
// its hot atomics (sizeof.go) to avoid false sharing with neighboring
// fields in Scheduler.
type checkpointBitmaps struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte
	bitmap [2]atomic.Uint64
	_ [sizeOfCacheLine]byte
}

// init sets the boot values described in spec.md §4.2: slot 0 and slot 1
// both start all-ones, encoding "nothing has fired yet in frame 0; everything
// fired in frame -1" so that tasks requiring no prior frame can start
// immediately.
func (c *checkpointBitmaps) init() {
	c.bitmap[0].Store(^uint64(0))
	c.bitmap[1].Store(^uint64(0))
}

// fire publishes the given checkpoints as fired in frame, with release
// ordering, by XOR-ing them into the frame's physical slot (spec.md §4.2).
// The XOR is correct only because each checkpoint fires at most once per
// frame, which producers must guarantee (spec.md §7).
func (c *checkpointBitmaps) fire(frame uint64, fired uint64) {
	if fired == 0 {
		return
	}
	slot := &c.bitmap[frame&1]
	for {
		old := slot.Load()
		if slot.CompareAndSwap(old, old^fired) {
			return
		}
	}
}

// load reads a frame's physical checkpoint slot with acquire ordering.
func (c *checkpointBitmaps) load(frame uint64) uint64 {
	return c.bitmap[frame&1].Load()
}

// effective returns the "fired" view of checkpoints[frame&1], correcting for
// polarity rotation (spec.md §4.2). A physical slot is reused every other
// time its index comes up (frame, frame+2, frame+4, ...), so the meaning of
// its bits must flip on each reuse for a stale "fired" bit left over from
// two frames ago to read back as "not fired" without the slot ever being
// cleared. That alternation tracks the parity of frame>>1, which increments
// by exactly one across each reuse of a given physical slot.
//
// mask_from_frame(frame) is all-ones when frame>>1 is even, matching the
// stated boot invariant: both physical slots start all-ones, and frame 0
// must read as "nothing has fired yet", not "everything has fired". (The
// "frame -1" lookup a frame-0 task's previous-frame requirement makes is
// handled in Blocked and reads the boot value as "everything fired".)
func effective(raw uint64, frame uint64) uint64 {
	if (frame>>1)&1 == 0 {
		return raw ^ ^uint64(0)
	}
	return raw
}

// blocked implements the constant-time, branch-free dependency test of
// spec.md §4.2: a task is blocked in frame f if any checkpoint it requires
// from the current frame hasn't fired, or any checkpoint it requires from
// the previous frame hadn't fired by then.
func blocked(reqCur, reqPrev uint64, effectiveCur, effectivePrev uint64) uint64 {
	return (reqCur &^ effectiveCur) | (reqPrev &^ effectivePrev)
}

// Blocked reports the subset of reqCur/reqPrev not yet satisfied for a task
// belonging to a stack at the given frame (its current iteration).
//
// Frame 0 is special: "frame -1" has no physical existence. Ground truth
// (TaskScheduling.cpp:113-118) computes previous_frame as current_frame - 1
// in unsigned 64-bit arithmetic, so at frame 0 it underflows to
// 0xFFFFFFFFFFFFFFFF: previous_frame&1 selects physical slot 1 (the same
// slot frame 1's own previous-frame lookup would reuse), and
// (previous_frame>>1)&1 is 1 (0xFFFFFFFFFFFFFFFF>>1 is odd), which is the
// "no inversion" parity — so the slot's untouched boot value (all-ones,
// "everything fired") is read directly, matching spec.md §3/§4.2's stated
// bootstrap invariant that a frame-0 task's previous-frame requirement is
// satisfied immediately. Substituting frame=3 for the "frame -1" lookup
// reproduces both of those: 3&1 selects the same physical slot 1, and
// (3>>1)&1 is 1, the same "no inversion" parity as the real underflowed
// value. (Substituting 1, rather than 3, selects slot 1 correctly but
// yields (1>>1)&1 == 0 — the inverting parity — which reads the boot value
// as "nothing fired", the opposite of the ground truth and the spec.)
func (c *checkpointBitmaps) Blocked(frame uint64, reqCur, reqPrev uint64) uint64 {
	cur := effective(c.load(frame), frame)
	prevFrame := frame - 1
	if frame == 0 {
		prevFrame = 3
	}
	prev := effective(c.bitmap[prevFrame&1].Load(), prevFrame)
	return blocked(reqCur, reqPrev, cur, prev)
}
