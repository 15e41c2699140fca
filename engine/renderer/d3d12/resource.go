package d3d12

import (
	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// GpuResource pairs a native resource with its CPU-tracked usage state.
// Tracking is optimistic: the state is updated when a transition barrier is
// recorded, not when the GPU executes it, which is sound for a single
// command queue where program order equals execution order.
type GpuResource struct {
	ptr        ComPtr[native.Resource]
	usageState native.ResourceState
	id         string
}

// NewGpuResource takes ownership of one reference to resource, tracked in
// initialState.
func NewGpuResource(resource native.Resource, initialState native.ResourceState, debugName string) *GpuResource {
	id := core.IdentifierAcquire()
	if debugName != "" {
		resource.SetName(debugName)
	}
	return &GpuResource{
		ptr:        Own(resource),
		usageState: initialState,
		id:         id,
	}
}

func (r *GpuResource) Native() native.Resource {
	return r.ptr.Get()
}

// State returns the CPU-tracked usage state.
func (r *GpuResource) State() native.ResourceState {
	return r.usageState
}

// ID returns the debug identity assigned at creation.
func (r *GpuResource) ID() string {
	return r.id
}

func (r *GpuResource) Release() {
	r.ptr.Release()
}
