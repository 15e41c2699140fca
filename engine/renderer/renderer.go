package renderer

import (
	"errors"
	"sync"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/platform"
)

type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	// Resized reports whether the swapchain was actually rebuilt.
	Resized(width, height uint32) (bool, error)
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	SetClearColor(color [4]float32)
	WaitIdle() error
}

type RendererType uint8

const (
	DirectX12 RendererType = iota
	Vulkan
	Metal
)

// Config carries the renderer options the application layer controls.
type Config struct {
	AppName          string
	Width            uint32
	Height           uint32
	BackBufferCount  uint32
	AllowTearing     bool
	EnableHDR        bool
	EnableValidation bool
}

// RenderPacket is the per-frame input to DrawFrame. Record, when set, runs
// between BeginFrame and EndFrame with the command list open.
type RenderPacket struct {
	DeltaTime float64
	Record    func() error
}

type Renderer struct {
	backend RendererBackend
}

var initRenderer sync.Once
var renderer *Renderer

func Initialize(config Config, platform *platform.Platform) error {
	var err error
	initRenderer.Do(func() {
		var backend RendererBackend
		backend, err = newBackend(config, platform)
		if err != nil {
			return
		}
		renderer = &Renderer{
			backend: backend,
		}
	})
	if err != nil {
		return err
	}
	if renderer == nil {
		return core.ErrUnsupportedOS
	}
	return renderer.backend.Initialize(config.AppName, config.Width, config.Height)
}

func Shutdown() error {
	if renderer == nil {
		return nil
	}
	return renderer.backend.Shutdown()
}

func BeginFrame(deltaTime float64) error {
	return renderer.backend.BeginFrame(deltaTime)
}

func EndFrame(deltaTime float64) error {
	return renderer.backend.EndFrame(deltaTime)
}

func OnResize(width, height uint32) (bool, error) {
	return renderer.backend.Resized(width, height)
}

func SetClearColor(color [4]float32) {
	renderer.backend.SetClearColor(color)
}

// WaitIdle blocks until the GPU has drained all submitted work.
func WaitIdle() error {
	return renderer.backend.WaitIdle()
}

// DrawFrame runs one whole frame. A skipped frame (renderer mid-recovery)
// is not an error; everything else aborts the frame and propagates.
func DrawFrame(renderPacket *RenderPacket) error {
	if err := BeginFrame(renderPacket.DeltaTime); err != nil {
		if errors.Is(err, core.ErrFrameSkipped) {
			return nil
		}
		core.LogError(err.Error())
		return err
	}
	if renderPacket.Record != nil {
		if err := renderPacket.Record(); err != nil {
			core.LogError("frame recording failed: %s", err)
			return err
		}
	}
	if err := EndFrame(renderPacket.DeltaTime); err != nil {
		core.LogError("RendererEndFrame failed. Application shutting down...")
		return err
	}
	return nil
}
