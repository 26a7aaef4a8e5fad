package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpillPool_AllocateAndReuse(t *testing.T) {
	p := NewSpillPool()

	a := p.AllocateSpill(SizeOfReferenceAddress, true)
	b := p.AllocateSpill(SizeOfReferenceAddress, false)
	require.NotEqual(t, a.Offset(), b.Offset())
	require.True(t, a.ContainsCollectedReference())
	require.False(t, b.ContainsCollectedReference())

	p.FreeSpill(a, SizeOfReferenceAddress, 0)
	c := p.AllocateSpill(SizeOfReferenceAddress, false)
	require.Equal(t, a, c)
	// recycling resets the slot's depth and GC tagging
	require.Equal(t, int32(SpillDepthReleased), c.MaxSpillDepth())
	require.False(t, c.ContainsCollectedReference())

	require.Equal(t, int64(2*SizeOfReferenceAddress), p.TotalSize())
}

func TestSpillPool_InternalPointerSpill(t *testing.T) {
	p := NewSpillPool()
	pin := &PinningArray{Name: "arr"}

	b := p.AllocateInternalPointerSpill(pin)
	require.Equal(t, pin, b.PinningArrayPointer())
}

func TestSpillPool_FreeListLock(t *testing.T) {
	p := NewSpillPool()
	require.False(t, p.IsFreeListLocked())
	p.LockFreeList()
	require.True(t, p.IsFreeListLocked())
	p.UnlockFreeList()
	require.False(t, p.IsFreeListLocked())
}
