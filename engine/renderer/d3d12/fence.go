package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// WaitResult is the outcome of a fence wait. Timing out is a legitimate
// outcome, distinct from failure; callers may poll with short timeouts.
type WaitResult int

const (
	WaitReached WaitResult = iota
	WaitTimedOut
	WaitError
)

// FrameFence pairs a native fence with an OS event used to block the CPU
// until the GPU reaches a target value. Target values are owned by the
// submitter (the frame pipeline keeps one per back buffer), not by the
// fence itself.
type FrameFence struct {
	ptr   ComPtr[native.Fence]
	event native.Event
	log   core.Logger
}

func NewFrameFence(device native.Device, interop native.Interop, initialValue uint64, log core.Logger) (*FrameFence, error) {
	fence, status := device.CreateFence(initialValue)
	if status.Failed() {
		err := fmt.Errorf("failed to create fence: %w", native.Check("ID3D12Device::CreateFence", status))
		log.Errorf(err.Error())
		return nil, err
	}
	event, status := interop.NewEvent()
	if status.Failed() {
		fence.Release()
		err := fmt.Errorf("failed to create fence event: %w", native.Check("CreateEventEx", status))
		log.Errorf(err.Error())
		return nil, err
	}
	return &FrameFence{ptr: Own(fence), event: event, log: log}, nil
}

// Signal asks queue to set the fence to value once all work submitted
// before this call has completed. Values must be strictly increasing per
// queue.
func (f *FrameFence) Signal(queue native.CommandQueue, value uint64) error {
	if status := queue.Signal(f.ptr.Get(), value); status.Failed() {
		return native.Check("ID3D12CommandQueue::Signal", status)
	}
	return nil
}

// Value returns the last fence value the GPU has confirmed reaching.
// Never blocks.
func (f *FrameFence) Value() uint64 {
	return f.ptr.Get().CompletedValue()
}

// Wait blocks until the fence reaches value or timeoutMS elapses. Returns
// immediately without registering the event when the value has already been
// reached.
func (f *FrameFence) Wait(value uint64, timeoutMS uint32) (WaitResult, error) {
	if f.ptr.Get().CompletedValue() >= value {
		return WaitReached, nil
	}
	if status := f.ptr.Get().SetEventOnCompletion(value, f.event); status.Failed() {
		err := native.Check("ID3D12Fence::SetEventOnCompletion", status)
		f.log.Errorf("fence wait setup failed: %s", err)
		return WaitError, err
	}
	switch f.event.Wait(timeoutMS) {
	case native.WaitSignaled:
		return WaitReached, nil
	case native.WaitTimedOut:
		return WaitTimedOut, nil
	default:
		err := fmt.Errorf("fence event wait failed")
		f.log.Errorf(err.Error())
		return WaitError, err
	}
}

// Release destroys the fence and its event.
func (f *FrameFence) Release() {
	f.ptr.Release()
	if f.event != nil {
		f.event.Close()
		f.event = nil
	}
}
