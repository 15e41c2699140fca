package d3d12

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

func newTestDescriptorAllocator(t *testing.T) (*DescriptorAllocator, *fakeDevice) {
	t.Helper()
	device := newFakeDevice(nil)
	return NewDescriptorAllocator(device, native.DescriptorHeapTypeRTV, core.Discard()), device
}

func TestDescriptorAllocationsDoNotOverlap(t *testing.T) {
	alloc, _ := newTestDescriptorAllocator(t)
	defer alloc.Release()
	size := uint64(alloc.DescriptorSize())

	a, err := alloc.Allocate(1)
	require.NoError(t, err)
	b, err := alloc.Allocate(1)
	require.NoError(t, err)
	c, err := alloc.Allocate(4)
	require.NoError(t, err)
	d, err := alloc.Allocate(1)
	require.NoError(t, err)

	assert.Equal(t, a.Ptr+size, b.Ptr)
	assert.Equal(t, b.Ptr+size, c.Ptr)
	assert.Equal(t, c.Ptr+4*size, d.Ptr)
	assert.Equal(t, 1, alloc.HeapCount())
}

func TestDescriptorAllocationBounds(t *testing.T) {
	alloc, _ := newTestDescriptorAllocator(t)
	defer alloc.Release()

	_, err := alloc.Allocate(0)
	require.Error(t, err)
	_, err = alloc.Allocate(DescriptorHeapSize + 1)
	require.Error(t, err)
	_, err = alloc.Allocate(DescriptorHeapSize)
	require.NoError(t, err)
}

func TestDescriptorHeapRollover(t *testing.T) {
	alloc, device := newTestDescriptorAllocator(t)
	defer alloc.Release()
	size := uint64(alloc.DescriptorSize())

	_, err := alloc.Allocate(200)
	require.NoError(t, err)

	// 56 slots remain; a 100-slot request starts a fresh heap and the
	// abandoned tail is never reclaimed.
	b, err := alloc.Allocate(100)
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.HeapCount())
	assert.Equal(t, 2, device.heapsCreated)

	c, err := alloc.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, b.Ptr+100*size, c.Ptr)
}

func TestDescriptorSingleSlotExhaustion(t *testing.T) {
	alloc, device := newTestDescriptorAllocator(t)
	defer alloc.Release()

	var last native.CPUDescriptor
	for i := uint32(0); i < DescriptorHeapSize; i++ {
		h, err := alloc.Allocate(1)
		require.NoError(t, err)
		last = h
	}
	assert.Equal(t, 1, alloc.HeapCount())

	// Allocation 257 lands at slot 0 of a brand-new heap, not after the
	// exhausted one.
	next, err := alloc.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.HeapCount())
	require.Len(t, device.heapStarts, 2)
	assert.Equal(t, device.heapStarts[1], next.Ptr)
	assert.NotEqual(t, last.Ptr+uint64(alloc.DescriptorSize()), next.Ptr)
}

func TestDescriptorHeapCreationFailure(t *testing.T) {
	alloc, device := newTestDescriptorAllocator(t)
	defer alloc.Release()

	device.failHeap = true
	_, err := alloc.Allocate(1)
	require.Error(t, err)
	assert.Equal(t, 0, alloc.HeapCount())
}

func TestDescriptorReleaseDropsHeaps(t *testing.T) {
	alloc, device := newTestDescriptorAllocator(t)
	_, err := alloc.Allocate(10)
	require.NoError(t, err)

	alloc.Release()
	assert.Equal(t, 0, alloc.HeapCount())
	assert.Equal(t, 1, device.heapsCreated)
}
