package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// CommandAllocator is one pool entry: backing memory for recorded GPU
// commands plus its creation-order id.
type CommandAllocator struct {
	ptr ComPtr[native.CommandAllocator]
	id  int
}

func (a *CommandAllocator) ID() int {
	return a.id
}

// Reset reclaims the allocator's memory. Only safe once the fence value it
// was freed with has been reached; the pool's Request already guarantees
// this for recycled entries.
func (a *CommandAllocator) Reset() error {
	if status := a.ptr.Get().Reset(); status.Failed() {
		return native.Check("ID3D12CommandAllocator::Reset", status)
	}
	return nil
}

type allocatorFreeEntry struct {
	fenceValue uint64
	id         int
}

// CommandAllocatorPool lends out command allocators tagged with the fence
// value that must be reached before their memory can be reused. The pool
// never blocks; reuse safety is enforced purely through the fence tags.
// Mutated from the single frame-pipeline thread only.
type CommandAllocatorPool struct {
	device   native.Device
	listType native.CommandListType
	pool     []*CommandAllocator
	freeList []allocatorFreeEntry
	log      core.Logger
}

func NewCommandAllocatorPool(device native.Device, listType native.CommandListType, log core.Logger) *CommandAllocatorPool {
	return &CommandAllocatorPool{
		device:   device,
		listType: listType,
		log:      log,
	}
}

// Request returns an allocator that is safe to reset, preferring the most
// recently freed entry whose fence tag is already satisfied, and
// constructing a new allocator only when none qualifies. Construction
// failure is fatal to the caller's frame setup and is propagated.
func (p *CommandAllocatorPool) Request(completedFenceValue uint64) (*CommandAllocator, error) {
	if n := len(p.freeList); n > 0 {
		entry := p.freeList[n-1]
		if entry.fenceValue <= completedFenceValue {
			p.freeList = p.freeList[:n-1]
			return p.pool[entry.id], nil
		}
	}

	id := len(p.pool)
	allocator, status := p.device.CreateCommandAllocator(p.listType)
	if status.Failed() {
		err := fmt.Errorf("failed to create command allocator %d: %w", id, native.Check("ID3D12Device::CreateCommandAllocator", status))
		p.log.Errorf(err.Error())
		return nil, err
	}
	allocator.SetName(fmt.Sprintf("Adamant::CommandAllocator_%d", id))
	entry := &CommandAllocator{ptr: Own(allocator), id: id}
	p.pool = append(p.pool, entry)
	p.log.Debugf("command allocator pool grew to %d entries", len(p.pool))
	return entry, nil
}

// Free returns an allocator to the pool. fenceValue is the value that will
// be signaled once the last command list recorded against this allocator
// has finished executing; the entry stays ineligible for Request until the
// GPU reaches it.
func (p *CommandAllocatorPool) Free(fenceValue uint64, allocator *CommandAllocator) {
	p.freeList = append(p.freeList, allocatorFreeEntry{fenceValue: fenceValue, id: allocator.id})
}

// Size returns how many allocators the pool has ever constructed.
func (p *CommandAllocatorPool) Size() int {
	return len(p.pool)
}

// Release destroys every pooled allocator. Callers must have drained the
// GPU first.
func (p *CommandAllocatorPool) Release() {
	for _, a := range p.pool {
		a.ptr.Release()
	}
	p.pool = nil
	p.freeList = nil
}
