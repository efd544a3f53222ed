package frameScheduler

import "testing"

func TestSizeOfCacheLine_IsPositiveAndPowerOfTwo(t *testing.T) {
	if sizeOfCacheLine <= 0 || sizeOfCacheLine&(sizeOfCacheLine-1) != 0 {
		t.Fatalf("sizeOfCacheLine = %d, want a positive power of two", sizeOfCacheLine)
	}
}

func TestSizeOfAtomicUint64_MatchesEightBytes(t *testing.T) {
	if sizeOfAtomicUint64 != 8 {
		t.Fatalf("sizeOfAtomicUint64 = %d, want 8", sizeOfAtomicUint64)
	}
}
