package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// InitFlags select optional presentation features. Flags the hardware does
// not support are cleared during initialization.
type InitFlags uint32

const (
	InitFlagAllowTearing InitFlags = 1 << iota
	InitFlagEnableHDR
)

// State is the frame pipeline's lifecycle stage.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRecording
	StateSubmitted
	StatePresented
	StateResizing
	StateLost
)

// Params configures GraphicsCore construction. Zero fields take defaults.
type Params struct {
	WindowHandle      uintptr
	Width             uint32
	Height            uint32
	BackBufferFormat  native.Format
	DepthBufferFormat native.Format
	BackBufferCount   uint32
	MinFeatureLevel   native.FeatureLevel
	Flags             InitFlags
	EnableDebugLayer  bool
	Logger            core.Logger
}

func (p *Params) fillDefaults() {
	if p.Width == 0 {
		p.Width = 1
	}
	if p.Height == 0 {
		p.Height = 1
	}
	if p.BackBufferFormat == native.FormatUnknown {
		p.BackBufferFormat = native.FormatB8G8R8A8Unorm
	}
	if p.DepthBufferFormat == native.FormatUnknown {
		p.DepthBufferFormat = native.FormatD32Float
	}
	if p.BackBufferCount < 2 {
		p.BackBufferCount = 2
	}
	if p.BackBufferCount > 3 {
		p.BackBufferCount = 3
	}
	if p.MinFeatureLevel == 0 {
		p.MinFeatureLevel = native.FeatureLevel11_0
	}
	if p.Logger == nil {
		p.Logger = core.Default()
	}
}

// GraphicsCore owns the whole device graph and drives the per-frame
// Prepare → record → Present sequence, pacing the CPU so it never runs more
// than backBufferCount-1 frames ahead of the GPU. Single-threaded: one
// goroutine drives the pipeline, the GPU progresses asynchronously and is
// observed only through the fence.
type GraphicsCore struct {
	interop native.Interop
	log     core.Logger

	factory          ComPtr[native.Factory]
	device           ComPtr[native.Device]
	commandQueue     ComPtr[native.CommandQueue]
	commandContext   *CommandContext
	allocatorPool    *CommandAllocatorPool
	currentAllocator *CommandAllocator
	swapchain        *SwapChain
	renderTargets    []*GpuResource
	depthStencil     *GpuResource
	fence            *FrameFence
	fenceValues      []uint64
	rtvAllocator     *DescriptorAllocator
	dsvAllocator     *DescriptorAllocator
	rtvDescriptors   []native.CPUDescriptor
	dsvDescriptor    native.CPUDescriptor

	screenViewport native.Viewport
	scissorRect    native.Rect
	clearColor     [4]float32

	backBufferFormat  native.Format
	depthBufferFormat native.Format
	backBufferCount   uint32
	minFeatureLevel   native.FeatureLevel
	featureLevel      native.FeatureLevel

	windowHandle     uintptr
	backBufferWidth  uint32
	backBufferHeight uint32
	flags            InitFlags
	debug            bool

	backBufferIndex uint32
	state           State
	deviceResets    int
}

// New builds the full device graph: factory, adapter selection, device,
// queue, descriptor allocators, command allocator pool, fence, swapchain
// and the window-size-dependent resources. Every native failure along the
// way is returned as a typed error; nothing aborts the process.
func New(interop native.Interop, params Params) (*GraphicsCore, error) {
	params.fillDefaults()

	s := &GraphicsCore{
		interop:           interop,
		log:               params.Logger,
		backBufferFormat:  params.BackBufferFormat,
		depthBufferFormat: params.DepthBufferFormat,
		backBufferCount:   params.BackBufferCount,
		minFeatureLevel:   params.MinFeatureLevel,
		windowHandle:      params.WindowHandle,
		backBufferWidth:   params.Width,
		backBufferHeight:  params.Height,
		flags:             params.Flags,
		debug:             params.EnableDebugLayer,
		fenceValues:       make([]uint64, params.BackBufferCount),
		clearColor:        [4]float32{0.392, 0.584, 0.929, 1.0},
		state:             StateUninitialized,
	}

	if err := s.initialize(); err != nil {
		return nil, err
	}
	if err := s.createWindowSizeDependentResources(); err != nil {
		return nil, err
	}
	s.state = StateReady
	s.log.Infof("Direct3D 12 layer initialized successfully.")
	return s, nil
}

func (s *GraphicsCore) initialize() error {
	s.log.Debugf("Initializing Direct3D 12 layer.")

	factoryDebug := false
	if s.debug {
		if s.interop.EnableDebugLayer() {
			factoryDebug = true
			s.log.Debugf("Direct3D 12 debug layer enabled.")
		} else {
			s.log.Warnf("Direct3D 12 debug layer unavailable, continuing without it.")
		}
	}

	factory, status := s.interop.CreateFactory(factoryDebug)
	if status.Failed() {
		err := fmt.Errorf("failed to create DXGI factory: %w", native.Check("CreateDXGIFactory2", status))
		s.log.Errorf(err.Error())
		return err
	}
	s.factory = Own(factory)

	if s.flags&InitFlagAllowTearing != 0 {
		s.log.Debugf("Checking variable refresh rate display support.")
		if !checkTearingSupport(&s.factory, s.log) {
			s.flags &^= InitFlagAllowTearing
		}
	}

	device, err := createDevice(s.interop, s.factory.Get(), s.minFeatureLevel, s.log)
	if err != nil {
		return err
	}
	s.device = device

	if s.debug {
		configureDebugDevice(&s.device, s.log)
	}

	s.featureLevel = s.device.Get().MaxSupportedFeatureLevel(featureLevelLadder)
	if s.featureLevel == 0 {
		s.featureLevel = s.minFeatureLevel
	}

	queue, status := s.device.Get().CreateCommandQueue(native.CommandListTypeDirect)
	if status.Failed() {
		err := fmt.Errorf("failed to create command queue: %w", native.Check("ID3D12Device::CreateCommandQueue", status))
		s.log.Errorf(err.Error())
		return err
	}
	s.commandQueue = Own(queue)

	s.rtvAllocator = NewDescriptorAllocator(s.device.Get(), native.DescriptorHeapTypeRTV, s.log)
	s.dsvAllocator = NewDescriptorAllocator(s.device.Get(), native.DescriptorHeapTypeDSV, s.log)
	s.allocatorPool = NewCommandAllocatorPool(s.device.Get(), native.CommandListTypeDirect, s.log)

	bootstrap, err := s.allocatorPool.Request(0)
	if err != nil {
		return err
	}
	s.commandContext, err = NewCommandContext(s.device.Get(), bootstrap, s.log)
	if err != nil {
		return err
	}
	s.allocatorPool.Free(0, bootstrap)

	s.fence, err = NewFrameFence(s.device.Get(), s.interop, s.fenceValues[s.backBufferIndex], s.log)
	if err != nil {
		return err
	}
	// The first signaled value must exceed the fence's creation value, or a
	// completed value equal to it could not tell frame zero's retirement
	// apart from a GPU that has executed nothing.
	s.fenceValues[s.backBufferIndex]++

	s.swapchain, err = newSwapChain(s.factory.Get(), s.commandQueue.Get(), s.windowHandle, native.SwapChainDesc{
		Width:        s.backBufferWidth,
		Height:       s.backBufferHeight,
		Format:       s.backBufferFormat.NoSRGB(),
		BufferCount:  s.backBufferCount,
		AllowTearing: s.flags&InitFlagAllowTearing != 0,
	}, s.log)
	if err != nil {
		return err
	}
	s.swapchain.ComputeColorSpace(s.backBufferFormat.NoSRGB(), s.flags&InitFlagEnableHDR != 0)
	return nil
}

// createWindowSizeDependentResources builds render targets and views for
// every back buffer, the depth/stencil surface, and resets the viewport and
// scissor to the client area. Descriptor slots are taken fresh each time;
// the allocator never recycles.
func (s *GraphicsCore) createWindowSizeDependentResources() error {
	rtvBase, err := s.rtvAllocator.Allocate(s.backBufferCount)
	if err != nil {
		return err
	}
	s.rtvDescriptors = make([]native.CPUDescriptor, s.backBufferCount)
	s.renderTargets = make([]*GpuResource, s.backBufferCount)
	for i := uint32(0); i < s.backBufferCount; i++ {
		buffer, err := s.swapchain.Buffer(i)
		if err != nil {
			s.log.Errorf("failed to obtain back buffer %d: %s", i, err)
			return err
		}
		s.renderTargets[i] = NewGpuResource(buffer, native.ResourceStatePresent, fmt.Sprintf("Adamant::RenderTarget_%d", i))
		s.rtvDescriptors[i] = rtvBase.Offset(i, s.rtvAllocator.DescriptorSize())
		s.device.Get().CreateRenderTargetView(buffer, s.backBufferFormat.NoSRGB(), s.rtvDescriptors[i])
	}

	s.backBufferIndex = s.swapchain.CurrentBackBufferIndex()

	s.dsvDescriptor, err = s.dsvAllocator.Allocate(1)
	if err != nil {
		return err
	}
	depth, status := s.device.Get().CreateDepthStencil(s.depthBufferFormat, s.backBufferWidth, s.backBufferHeight)
	if status.Failed() {
		err := fmt.Errorf("failed to create depth/stencil buffer: %w", native.Check("ID3D12Device::CreateCommittedResource", status))
		s.log.Errorf(err.Error())
		return err
	}
	s.depthStencil = NewGpuResource(depth, native.ResourceStateDepthWrite, "Adamant::DepthStencil")
	s.device.Get().CreateDepthStencilView(depth, s.depthBufferFormat, s.dsvDescriptor)

	s.screenViewport = native.Viewport{
		Width:    float32(s.backBufferWidth),
		Height:   float32(s.backBufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	s.scissorRect = native.Rect{
		Right:  int32(s.backBufferWidth),
		Bottom: int32(s.backBufferHeight),
	}
	return nil
}

// Prepare opens the frame: obtains a command allocator that is provably
// safe to reset (via the pool's fence-tag check against the completed fence
// value), resets the command list against it, and transitions the current
// back buffer into the render-target state.
func (s *GraphicsCore) Prepare() error {
	if s.state != StateReady {
		return fmt.Errorf("prepare called in state %d", s.state)
	}

	allocator, err := s.allocatorPool.Request(s.fence.Value())
	if err != nil {
		return err
	}
	if err := allocator.Reset(); err != nil {
		s.log.Errorf("failed to reset command allocator for back buffer %d: %s", s.backBufferIndex, err)
		return err
	}
	if err := s.commandContext.Reset(allocator); err != nil {
		s.log.Errorf("failed to reset command list: %s", err)
		return err
	}
	s.currentAllocator = allocator

	s.commandContext.TransitionResource(s.renderTargets[s.backBufferIndex], native.ResourceStateRenderTarget, true)
	s.state = StateRecording
	return nil
}

// Clear binds the current render target and depth/stencil view, clears
// both, and resets viewport and scissor. Part of the record stage.
func (s *GraphicsCore) Clear() error {
	if s.state != StateRecording {
		return fmt.Errorf("clear called in state %d", s.state)
	}
	rtv := s.rtvDescriptors[s.backBufferIndex]
	s.commandContext.SetRenderTargets(rtv, s.dsvDescriptor)
	s.commandContext.ClearRenderTarget(rtv, s.clearColor)
	s.commandContext.ClearDepthStencil(s.dsvDescriptor, 1.0, 0)
	s.commandContext.SetViewports(s.screenViewport)
	s.commandContext.SetScissorRects(s.scissorRect)
	return nil
}

// SetClearColor overrides the clear color for subsequent frames.
func (s *GraphicsCore) SetClearColor(color [4]float32) {
	s.clearColor = color
}

// Command exposes the recording context so the application layer can issue
// draw commands between Prepare and Present.
func (s *GraphicsCore) Command() *CommandContext {
	return s.commandContext
}

// Present transitions the back buffer to the presentable state, submits the
// recorded commands, presents with the policy-selected sync interval, and
// advances frame pacing. A device-removed or device-reset status triggers a
// full rebuild of the device graph and returns nil: recovery is silent
// beyond a stall and log lines.
func (s *GraphicsCore) Present() error {
	if s.state != StateRecording {
		return fmt.Errorf("present called in state %d", s.state)
	}

	s.commandContext.TransitionResource(s.renderTargets[s.backBufferIndex], native.ResourceStatePresent, false)
	// Accumulated barriers reach the driver in exactly one batched call.
	s.commandContext.FlushResourceBarriers()

	if err := s.commandContext.Close(); err != nil {
		s.log.Errorf("failed to close command list: %s", err)
		s.reclaimCurrentAllocator()
		s.state = StateReady
		return err
	}
	s.commandQueue.Get().ExecuteCommandLists([]native.CommandList{s.commandContext.Native()})
	s.state = StateSubmitted

	var status native.Status
	if s.flags&InitFlagAllowTearing != 0 {
		// Sync interval 0 with tearing allowed; fails in true fullscreen.
		status = s.swapchain.Present(0, native.PresentAllowTearing)
	} else {
		// Block until vsync, sleeping until the next one.
		status = s.swapchain.Present(1, 0)
	}

	if status.DeviceLost() {
		reason := status
		if status == native.StatusDeviceRemoved {
			reason = s.device.Get().RemovedReason()
		}
		s.log.Warnf("Device lost on Present. Reason code: %s", reason)
		return s.handleDeviceLost()
	}
	if status.Failed() {
		s.reclaimCurrentAllocator()
		s.state = StateReady
		err := native.Check("IDXGISwapChain::Present", status)
		s.log.Errorf("failed to present: %s", err)
		return err
	}
	s.state = StatePresented

	if err := s.moveToNextFrame(); err != nil {
		return err
	}

	// Output information is cached on the factory; a stale factory must be
	// recreated before the next tearing/colorspace query.
	if !s.factory.Get().IsCurrent() {
		s.log.Debugf("DXGI factory is stale, recreating.")
		s.factory.Release()
		factory, status := s.interop.CreateFactory(s.debug)
		if status.Failed() {
			err := fmt.Errorf("failed to recreate DXGI factory: %w", native.Check("CreateDXGIFactory2", status))
			s.log.Errorf(err.Error())
			return err
		}
		s.factory = Own(factory)
	}

	s.state = StateReady
	return nil
}

// reclaimCurrentAllocator returns the in-flight allocator to the pool after
// a failed submit or present, tagged with the frame's fence value so it
// stays ineligible until that value is eventually signaled.
func (s *GraphicsCore) reclaimCurrentAllocator() {
	if s.currentAllocator != nil {
		s.allocatorPool.Free(s.fenceValues[s.backBufferIndex], s.currentAllocator)
		s.currentAllocator = nil
	}
}

// moveToNextFrame implements the bounded-lead pacing policy: signal the
// fence for the frame just submitted, return its allocator to the pool
// tagged with that value, advance to the swapchain's next back buffer, and
// block only when that buffer's previous frame has not completed. The CPU
// lead is therefore bounded at backBufferCount-1 frames.
func (s *GraphicsCore) moveToNextFrame() error {
	currentFenceValue := s.fenceValues[s.backBufferIndex]
	if err := s.fence.Signal(s.commandQueue.Get(), currentFenceValue); err != nil {
		s.log.Errorf("failed to signal fence value %d: %s", currentFenceValue, err)
		return err
	}
	if s.currentAllocator != nil {
		s.allocatorPool.Free(currentFenceValue, s.currentAllocator)
		s.currentAllocator = nil
	}

	s.backBufferIndex = s.swapchain.CurrentBackBufferIndex()

	if s.fence.Value() < s.fenceValues[s.backBufferIndex] {
		result, err := s.fence.Wait(s.fenceValues[s.backBufferIndex], native.WaitInfinite)
		if err != nil {
			return err
		}
		if result != WaitReached {
			return fmt.Errorf("frame fence wait did not complete (result %d)", result)
		}
	}

	s.fenceValues[s.backBufferIndex] = currentFenceValue + 1
	return nil
}

// OnWindowSizeChanged reacts to a client-area size change. Equal dimensions
// only refresh the colorspace (the window may have moved to another
// display) and return false; otherwise the swapchain and all
// size-dependent resources are rebuilt and true is returned. Must not be
// called between Prepare and Present.
func (s *GraphicsCore) OnWindowSizeChanged(width, height uint32) (bool, error) {
	if s.state == StateRecording || s.state == StateSubmitted {
		return false, fmt.Errorf("resize requested while a frame is mid-flight")
	}
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	if s.backBufferWidth == width && s.backBufferHeight == height {
		s.swapchain.ComputeColorSpace(s.backBufferFormat.NoSRGB(), s.flags&InitFlagEnableHDR != 0)
		return false, nil
	}

	s.log.Debugf("Window size has changed, updating resources.")
	s.backBufferWidth = width
	s.backBufferHeight = height
	if err := s.updateWindowSizeDependentResources(); err != nil {
		return false, err
	}
	s.log.Infof("Swapchain resized to %dx%d.", width, height)
	return true, nil
}

func (s *GraphicsCore) updateWindowSizeDependentResources() error {
	s.state = StateResizing

	// The GPU must not be referencing anything about to be released.
	if err := s.WaitForGPU(); err != nil {
		s.log.Warnf("flush before resize failed: %s", err)
	}

	for i := range s.renderTargets {
		s.renderTargets[i].Release()
		s.fenceValues[i] = s.fenceValues[s.backBufferIndex]
	}
	s.renderTargets = nil
	if s.depthStencil != nil {
		s.depthStencil.Release()
		s.depthStencil = nil
	}

	var flags uint32
	if s.flags&InitFlagAllowTearing != 0 {
		flags = native.SwapChainFlagAllowTearing
	}
	status := s.swapchain.ResizeBuffers(s.backBufferCount, s.backBufferWidth, s.backBufferHeight, s.backBufferFormat.NoSRGB(), flags)
	if status.DeviceLost() {
		reason := status
		if status == native.StatusDeviceRemoved {
			reason = s.device.Get().RemovedReason()
		}
		s.log.Warnf("Device lost on ResizeBuffers. Reason code: %s", reason)
		// handleDeviceLost rebuilds the swapchain and all window size
		// dependent resources; nothing further to do here.
		return s.handleDeviceLost()
	}
	if status.Failed() {
		err := native.Check("IDXGISwapChain::ResizeBuffers", status)
		s.log.Errorf("failed to resize swapchain buffers: %s", err)
		return err
	}

	s.swapchain.ComputeColorSpace(s.backBufferFormat.NoSRGB(), s.flags&InitFlagEnableHDR != 0)
	if err := s.createWindowSizeDependentResources(); err != nil {
		return err
	}
	s.state = StateReady
	return nil
}

// handleDeviceLost tears down the entire device-dependent object graph and
// recreates it from scratch. In-flight frame state is discarded: fence
// values reset to zero, back-buffer index taken from the fresh swapchain.
func (s *GraphicsCore) handleDeviceLost() error {
	s.log.Warnf("Reinitializing the Direct3D 12 layer after device loss.")
	s.state = StateLost

	s.releaseDeviceObjects()
	s.fenceValues = make([]uint64, s.backBufferCount)
	s.backBufferIndex = 0

	if err := s.initialize(); err != nil {
		return fmt.Errorf("device recreation failed: %w", err)
	}
	if err := s.createWindowSizeDependentResources(); err != nil {
		return fmt.Errorf("device recreation failed: %w", err)
	}
	s.state = StateReady
	s.deviceResets++
	s.log.Infof("Direct3D 12 layer reinitialized successfully.")
	return nil
}

// DeviceResets counts how many times the device graph has been rebuilt
// after device loss.
func (s *GraphicsCore) DeviceResets() int {
	return s.deviceResets
}

// WaitForGPU blocks until the GPU has drained all submitted work, then
// bumps the current back buffer's fence value.
func (s *GraphicsCore) WaitForGPU() error {
	if s.fence == nil {
		return nil
	}
	fenceValue := s.fenceValues[s.backBufferIndex]
	if err := s.fence.Signal(s.commandQueue.Get(), fenceValue); err != nil {
		return err
	}
	result, err := s.fence.Wait(fenceValue, native.WaitInfinite)
	if err != nil {
		return err
	}
	if result != WaitReached {
		return fmt.Errorf("flush fence wait did not complete (result %d)", result)
	}
	s.fenceValues[s.backBufferIndex]++
	return nil
}

// Release drains the GPU and destroys the device graph in reverse creation
// order. Safe to call more than once.
func (s *GraphicsCore) Release() {
	if s.state == StateUninitialized {
		return
	}
	if err := s.WaitForGPU(); err != nil {
		s.log.Warnf("flush on shutdown failed: %s", err)
	}
	s.releaseDeviceObjects()
	s.state = StateUninitialized
}

func (s *GraphicsCore) releaseDeviceObjects() {
	if s.depthStencil != nil {
		s.depthStencil.Release()
		s.depthStencil = nil
	}
	for _, rt := range s.renderTargets {
		rt.Release()
	}
	s.renderTargets = nil
	s.currentAllocator = nil
	if s.commandContext != nil {
		s.commandContext.Release()
		s.commandContext = nil
	}
	if s.allocatorPool != nil {
		s.allocatorPool.Release()
		s.allocatorPool = nil
	}
	if s.rtvAllocator != nil {
		s.rtvAllocator.Release()
		s.rtvAllocator = nil
	}
	if s.dsvAllocator != nil {
		s.dsvAllocator.Release()
		s.dsvAllocator = nil
	}
	if s.fence != nil {
		s.fence.Release()
		s.fence = nil
	}
	if s.swapchain != nil {
		s.swapchain.Release()
		s.swapchain = nil
	}
	s.commandQueue.Release()
	s.device.Release()
	s.factory.Release()
}

// BackBufferIndex returns which swapchain image the next frame renders to.
func (s *GraphicsCore) BackBufferIndex() uint32 {
	return s.backBufferIndex
}

// State returns the pipeline's current lifecycle stage.
func (s *GraphicsCore) State() State {
	return s.state
}

// FeatureLevel returns the maximum feature level the device supports.
func (s *GraphicsCore) FeatureLevel() native.FeatureLevel {
	return s.featureLevel
}

// Flags returns the effective init flags after capability checks.
func (s *GraphicsCore) Flags() InitFlags {
	return s.flags
}

// Size returns the current back-buffer dimensions.
func (s *GraphicsCore) Size() (uint32, uint32) {
	return s.backBufferWidth, s.backBufferHeight
}
