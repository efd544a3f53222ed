// Package subsystem provides the thin contracts a per-frame producer
// (physics, animation, AI, rendering, input) implements to drive a
// frameScheduler.Scheduler (spec.md §6). The subsystems themselves —
// Vulkan rendering, a GLFW input pump, an actual physics solver — stay out
// of scope; only the shape they plug into is specified here.
package subsystem

import (
	"math/bits"
	"sync/atomic"
	"unsafe"

	frameScheduler "github.com/joeycumines/go-frame-scheduler"
)

// ArenaSize is the fixed capacity of a single Arena block, reset once per
// frame (spec.md §7: allocator exhaustion is fatal, not recoverable, since
// the scheduler has no facility to grow a subsystem's per-frame argument
// storage at runtime).
const ArenaSize = 32 * 1024

// poolBlocks is the shared pool's total block count and poolSegments the
// number of 64-bit allocation bitmasks covering it, matching the original
// implementation's 512-block, 8-segment pool (Memory.cpp's _mem512x32kb /
// _mem512x32kb_allocmask).
const (
	poolBlocks   = 512
	poolSegments = poolBlocks / 64
)

// pool is the shared backing store every Arena carves its block from
// (spec.md §6 "fixed-size (32 KiB) arena carved from a larger pool"),
// grounded on Memory.cpp's single up-front std::malloc(512*32*1024): one
// fixed allocation for the process lifetime rather than a private buffer
// per subsystem.
var pool [poolBlocks * ArenaSize]byte

// poolAllocMask tracks free blocks, one bit per block, all-ones meaning
// free — the boot value Memory.cpp's init_memory stores into
// _mem512x32kb_allocmask.
var poolAllocMask [poolSegments]atomic.Uint64

func init() {
	for i := range poolAllocMask {
		poolAllocMask[i].Store(^uint64(0))
	}
}

// claimBlock reserves one free block from the shared pool, scanning
// segments in order and bsf-then-CAS claiming a bit within one, the same
// protocol as LinearAllocator32kb::Init. It panics with
// frameScheduler.ErrArenaExhausted if every block is taken: the original's
// own comment at this call site ("what to do if full?") only ever asserts,
// there is no recovery path.
func claimBlock() (segment, block int) {
	for segment = 0; segment < poolSegments; segment++ {
		for {
			old := poolAllocMask[segment].Load()
			if old == 0 {
				break
			}
			b := bits.TrailingZeros64(old)
			if poolAllocMask[segment].CompareAndSwap(old, old&^(uint64(1)<<uint(b))) {
				return segment, b
			}
		}
	}
	panic(frameScheduler.ErrArenaExhausted)
}

// releaseBlock returns a block to the pool (LinearAllocator32kb's
// destructor's fetch_or).
func releaseBlock(segment, block int) {
	poolAllocMask[segment].Or(uint64(1) << uint(block))
}

// Arena is a fixed-capacity bump allocator for a subsystem's per-frame task
// arguments, backed by one block claimed from the shared pool. A
// subsystem's submit_tasks task owns exactly one Arena; it Resets it at the
// start of recording and Allocs from it while building the batch, so
// argument pointers handed to Task.Args stay valid until the next Reset
// (spec.md §5 "Ownership").
type Arena struct {
	segment, block int
	base           uintptr
	offset         uintptr
	claimed        bool
}

// Init claims a free block from the shared pool for this Arena. Must be
// called once before any Alloc/Reset; Base.Init does this automatically for
// an embedding subsystem.
func (a *Arena) Init() {
	if a.claimed {
		return
	}
	a.segment, a.block = claimBlock()
	a.base = uintptr(unsafe.Pointer(&pool[0])) + uintptr(a.segment*64+a.block)*ArenaSize
	a.offset = 0
	a.claimed = true
}

// Release returns this Arena's block to the shared pool
// (LinearAllocator32kb's destructor). Every pointer previously returned by
// Alloc is invalid afterward.
func (a *Arena) Release() {
	if !a.claimed {
		return
	}
	releaseBlock(a.segment, a.block)
	a.claimed = false
}

// Alloc reserves size bytes aligned to align (which must be a power of two)
// and returns a pointer to them. It panics with ErrArenaExhausted if the
// arena has no room left; callers that can size their batch up front should
// prefer sizing conservatively over calling Alloc in a hot loop that might
// panic mid-batch.
func (a *Arena) Alloc(size, align uintptr) unsafe.Pointer {
	if !a.claimed {
		a.Init()
	}
	aligned := (a.base + a.offset + align - 1) &^ (align - 1)
	newOffset := aligned - a.base + size
	if newOffset > ArenaSize {
		panic(frameScheduler.ErrArenaExhausted)
	}
	a.offset = newOffset
	return unsafe.Pointer(aligned)
}

// Reset rewinds the arena to empty, invalidating every pointer previously
// returned by Alloc. Call this once per frame, before recording that
// frame's batch.
func (a *Arena) Reset() {
	a.offset = 0
}
