package d3d12

import (
	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// Backend adapts the frame pipeline to the renderer facade contract:
// BeginFrame opens and clears the frame, EndFrame submits and presents.
type Backend struct {
	interop  native.Interop
	params   Params
	graphics *GraphicsCore
}

// NewBackend captures the native boundary and construction parameters; the
// device graph itself is built in Initialize.
func NewBackend(interop native.Interop, params Params) *Backend {
	return &Backend{interop: interop, params: params}
}

func (b *Backend) Initialize(appName string, appWidth, appHeight uint32) error {
	core.LogInfo("Initializing renderer for %s.", appName)
	b.params.Width = appWidth
	b.params.Height = appHeight
	graphics, err := New(b.interop, b.params)
	if err != nil {
		return err
	}
	b.graphics = graphics
	return nil
}

func (b *Backend) Shutdown() error {
	if b.graphics != nil {
		b.graphics.Release()
		b.graphics = nil
	}
	return nil
}

func (b *Backend) Resized(width, height uint32) (bool, error) {
	return b.graphics.OnWindowSizeChanged(width, height)
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if b.graphics.State() != StateReady {
		return core.ErrFrameSkipped
	}
	if err := b.graphics.Prepare(); err != nil {
		return err
	}
	return b.graphics.Clear()
}

func (b *Backend) EndFrame(deltaTime float64) error {
	resets := b.graphics.DeviceResets()
	if err := b.graphics.Present(); err != nil {
		return err
	}
	if b.graphics.DeviceResets() != resets {
		core.EventFire(core.EVENT_CODE_DEVICE_RESTORED, b, core.EventContext{})
	}
	return nil
}

func (b *Backend) SetClearColor(color [4]float32) {
	b.graphics.SetClearColor(color)
}

// WaitIdle drains all submitted GPU work.
func (b *Backend) WaitIdle() error {
	return b.graphics.WaitForGPU()
}
