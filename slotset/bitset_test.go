package slotset

import "testing"

import "github.com/stretchr/testify/assert"

func TestBitSetSetClearGet(t *testing.T) {
	var b BitSet
	assert.False(t, b.Get(3))
	b.Set(3)
	assert.True(t, b.Get(3))
	b.Clear(3)
	assert.False(t, b.Get(3))
}

func TestBitSetCountOnes(t *testing.T) {
	var b BitSet
	assert.Equal(t, 0, b.CountOnes())
	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(200)
	assert.Equal(t, 4, b.CountOnes())
}

func TestLowestFreeSkipsSlotZero(t *testing.T) {
	var b BitSet
	slot, ok := b.LowestFree(4)
	assert.True(t, ok)
	assert.Equal(t, uint8(1), slot)
}

func TestLowestFreePicksGap(t *testing.T) {
	var b BitSet
	b.Set(1)
	b.Set(2)
	slot, ok := b.LowestFree(4)
	assert.True(t, ok)
	assert.Equal(t, uint8(3), slot)
}

func TestLowestFreeFullReturnsFalse(t *testing.T) {
	var b BitSet
	for i := uint8(1); i < 4; i++ {
		b.Set(i)
	}
	_, ok := b.LowestFree(4)
	assert.False(t, ok)
}

func TestBitmapRoundTrip(t *testing.T) {
	var b BitSet
	b.Set(0)
	b.Set(3)
	b.Set(9)
	bitmap := b.Bitmap(10)
	assert.Len(t, bitmap, 2)

	restored := FromBitmap(bitmap, 10)
	assert.True(t, restored.Get(0))
	assert.True(t, restored.Get(3))
	assert.True(t, restored.Get(9))
	assert.False(t, restored.Get(1))
	assert.Equal(t, 3, restored.CountOnes())
}

func TestFromBitmapTruncatedInputStopsEarly(t *testing.T) {
	restored := FromBitmap([]byte{0xFF}, 16)
	assert.Equal(t, 8, restored.CountOnes())
}
