package frameScheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackIterSize_RoundTrips(t *testing.T) {
	cases := []struct{ iteration, size uint32 }{
		{0, 0},
		{1, 127},
		{0xFFFFFFFF, 0},
		{0x12345678, 0x9ABCDEF0},
	}
	for _, c := range cases {
		word := packIterSize(c.iteration, c.size)
		gotIteration, gotSize := unpackIterSize(word)
		assert.Equal(t, c.iteration, gotIteration)
		assert.Equal(t, c.size, gotSize)
	}
}

func TestPackPriMask_RoundTrips(t *testing.T) {
	cases := []struct{ mainStack, mask uint32 }{
		{0, 0},
		{15, 0xFFFF},
		{3, 0b1010},
	}
	for _, c := range cases {
		word := packPriMask(c.mainStack, c.mask)
		gotMain, gotMask := unpackPriMask(word)
		assert.Equal(t, c.mainStack, gotMain)
		assert.Equal(t, c.mask, gotMask)
	}
}

func TestPackedWord_ZeroValueIsUsable(t *testing.T) {
	var w packedWord
	assert.Equal(t, uint64(0), w.v.Load())
	w.v.Store(42)
	assert.Equal(t, uint64(42), w.v.Load())
}
