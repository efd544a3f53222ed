package frameScheduler

import "sync/atomic"

// packed.go implements the word-packing trick the scheduler's correctness
// rests on: fusing two logically distinct 32-bit halves into a single
// atomic.Uint64 so that readers never observe a torn pair (spec.md §4.1,
// §9). This is the same shape as the teacher's FastState (a single padded
// atomic.Uint64 with CAS-only transitions) generalized from an enum to two
// packed uint32 halves.

// packedWord is a cache-line padded atomic.Uint64, the common storage
// shape behind both taskStack.iterationsSize and Scheduler.priMaskMainStack.
// Padding on both sides prevents false sharing with whatever hot field is
// adjacent in the containing struct (sizeof.go).
type packedWord struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte
	v atomic.Uint64
	_ [sizeOfCacheLine]byte
}

// packIterSize packs a stack's (iteration, size) pair into the layout
// taskStack.iterationsSize uses: iteration in the high 32 bits, size in the
// low 32 bits.
func packIterSize(iteration, size uint32) uint64 {
	return uint64(iteration)<<32 | uint64(size)
}

// unpackIterSize reverses packIterSize.
func unpackIterSize(word uint64) (iteration, size uint32) {
	return uint32(word >> 32), uint32(word)
}

// packPriMask packs the (mainStack, priorityMask) pair into the layout
// Scheduler.priMaskMainStack uses: mainStack in the high 32 bits, the
// rotated priority mask in the low 32 bits (spec.md §4.3).
func packPriMask(mainStack, mask uint32) uint64 {
	return uint64(mainStack)<<32 | uint64(mask)
}

// unpackPriMask reverses packPriMask.
func unpackPriMask(word uint64) (mainStack, mask uint32) {
	return uint32(word >> 32), uint32(word)
}
