package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// CommandContext wraps a graphics command list and accumulates
// resource-state transition barriers so they reach the driver in one
// batched ResourceBarrier call instead of one call per transition.
type CommandContext struct {
	ptr      ComPtr[native.CommandList]
	barriers []native.ResourceBarrier
	log      core.Logger
}

// NewCommandContext creates a command list bound to allocator and
// immediately closes it, so that every frame begins with Reset.
func NewCommandContext(device native.Device, allocator *CommandAllocator, log core.Logger) (*CommandContext, error) {
	list, status := device.CreateCommandList(native.CommandListTypeDirect, allocator.ptr.Get())
	if status.Failed() {
		err := fmt.Errorf("failed to create command list: %w", native.Check("ID3D12Device::CreateCommandList", status))
		log.Errorf(err.Error())
		return nil, err
	}
	if status := list.Close(); status.Failed() {
		list.Release()
		err := fmt.Errorf("failed to close freshly created command list: %w", native.Check("ID3D12GraphicsCommandList::Close", status))
		log.Errorf(err.Error())
		return nil, err
	}
	return &CommandContext{ptr: Own(list), log: log}, nil
}

// Reset opens the list for recording against allocator. Any barriers left
// from an abandoned frame are dropped.
func (c *CommandContext) Reset(allocator *CommandAllocator) error {
	c.barriers = c.barriers[:0]
	if status := c.ptr.Get().Reset(allocator.ptr.Get()); status.Failed() {
		return native.Check("ID3D12GraphicsCommandList::Reset", status)
	}
	return nil
}

// TransitionResource records a usage-state change for resource. No barrier
// is emitted when the tracked state already matches newState. The tracked
// state updates immediately on insertion. With flush set, all pending
// barriers are submitted to the command list before returning.
func (c *CommandContext) TransitionResource(resource *GpuResource, newState native.ResourceState, flush bool) {
	oldState := resource.usageState
	if oldState != newState {
		c.barriers = append(c.barriers, native.ResourceBarrier{
			Resource: resource.Native(),
			Before:   oldState,
			After:    newState,
		})
		resource.usageState = newState
	}
	if flush {
		c.FlushResourceBarriers()
	}
}

// FlushResourceBarriers submits all accumulated barriers in a single call.
// No-op when none are pending.
func (c *CommandContext) FlushResourceBarriers() {
	if len(c.barriers) == 0 {
		return
	}
	c.ptr.Get().ResourceBarrier(c.barriers)
	c.barriers = c.barriers[:0]
}

// PendingBarriers returns how many transitions have been recorded but not
// yet flushed.
func (c *CommandContext) PendingBarriers() int {
	return len(c.barriers)
}

func (c *CommandContext) SetRenderTargets(rtv native.CPUDescriptor, dsv native.CPUDescriptor) {
	c.ptr.Get().SetRenderTargets(rtv, dsv)
}

func (c *CommandContext) ClearRenderTarget(rtv native.CPUDescriptor, color [4]float32) {
	c.ptr.Get().ClearRenderTargetView(rtv, color)
}

func (c *CommandContext) ClearDepthStencil(dsv native.CPUDescriptor, depth float32, stencil uint8) {
	c.ptr.Get().ClearDepthStencilView(dsv, depth, stencil)
}

func (c *CommandContext) SetViewports(viewport native.Viewport) {
	c.ptr.Get().SetViewports(viewport)
}

func (c *CommandContext) SetScissorRects(rect native.Rect) {
	c.ptr.Get().SetScissorRects(rect)
}

// Close ends recording. Pending barriers must have been flushed by the
// caller; closing with unflushed barriers is a programming error and is
// logged.
func (c *CommandContext) Close() error {
	if len(c.barriers) > 0 {
		c.log.Warnf("closing command list with %d unflushed resource barriers", len(c.barriers))
		c.FlushResourceBarriers()
	}
	if status := c.ptr.Get().Close(); status.Failed() {
		return native.Check("ID3D12GraphicsCommandList::Close", status)
	}
	return nil
}

// Native returns the wrapped list for queue submission.
func (c *CommandContext) Native() native.CommandList {
	return c.ptr.Get()
}

func (c *CommandContext) Release() {
	c.ptr.Release()
}
