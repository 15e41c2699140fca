package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// DescriptorHeapSize is the fixed capacity of each descriptor page. Small
// on purpose: the render core only allocates render-target and
// depth-stencil views, a handful per swapchain rebuild.
const DescriptorHeapSize uint32 = 256

type descriptorPage struct {
	ptr  ComPtr[native.DescriptorHeap]
	next native.CPUDescriptor
}

// DescriptorAllocator bump-allocates descriptor slots out of fixed-size
// native heaps, creating a fresh heap when the current one cannot satisfy a
// request. Returned handles stay valid for the allocator's lifetime;
// nothing is ever recycled. Space abandoned in a previous page on rollover
// is never reclaimed.
type DescriptorAllocator struct {
	device         native.Device
	heapType       native.DescriptorHeapType
	heaps          []*descriptorPage
	descriptorSize uint32
	freeCount      uint32
	log            core.Logger
}

func NewDescriptorAllocator(device native.Device, heapType native.DescriptorHeapType, log core.Logger) *DescriptorAllocator {
	return &DescriptorAllocator{
		device:         device,
		heapType:       heapType,
		descriptorSize: device.DescriptorSize(heapType),
		log:            log,
	}
}

// Allocate returns the first of count contiguous descriptor slots. Heap
// creation failure is fatal for the call.
func (d *DescriptorAllocator) Allocate(count uint32) (native.CPUDescriptor, error) {
	if count == 0 || count > DescriptorHeapSize {
		return native.CPUDescriptor{}, fmt.Errorf("descriptor allocation of %d slots outside heap capacity %d", count, DescriptorHeapSize)
	}

	if len(d.heaps) == 0 || count > d.freeCount {
		id := len(d.heaps)
		heap, status := d.device.CreateDescriptorHeap(d.heapType, DescriptorHeapSize, false)
		if status.Failed() {
			err := fmt.Errorf("failed to create descriptor heap %d: %w", id, native.Check("ID3D12Device::CreateDescriptorHeap", status))
			d.log.Errorf(err.Error())
			return native.CPUDescriptor{}, err
		}
		d.heaps = append(d.heaps, &descriptorPage{
			ptr:  Own(heap),
			next: heap.Start(),
		})
		d.freeCount = DescriptorHeapSize
		d.log.Debugf("descriptor allocator (type %d) grew to %d heaps", d.heapType, len(d.heaps))
	}

	page := d.heaps[len(d.heaps)-1]
	handle := page.next
	page.next = page.next.Offset(count, d.descriptorSize)
	d.freeCount -= count
	return handle, nil
}

// DescriptorSize returns the handle increment for this allocator's heap
// type.
func (d *DescriptorAllocator) DescriptorSize() uint32 {
	return d.descriptorSize
}

// HeapCount returns how many pages have been created.
func (d *DescriptorAllocator) HeapCount() int {
	return len(d.heaps)
}

// Release destroys all pages. Outstanding descriptor handles become
// invalid.
func (d *DescriptorAllocator) Release() {
	for _, h := range d.heaps {
		h.ptr.Release()
	}
	d.heaps = nil
	d.freeCount = 0
}
