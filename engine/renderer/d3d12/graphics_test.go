package d3d12

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

func newTestGraphics(t *testing.T, interop *fakeInterop, params Params) *GraphicsCore {
	t.Helper()
	params.Logger = core.Discard()
	if params.WindowHandle == 0 {
		params.WindowHandle = 0xBADD
	}
	if params.Width == 0 {
		params.Width = 1280
		params.Height = 720
	}
	gc, err := New(interop, params)
	require.NoError(t, err)
	return gc
}

func runFrame(t *testing.T, gc *GraphicsCore) {
	t.Helper()
	require.NoError(t, gc.Prepare())
	require.NoError(t, gc.Clear())
	require.NoError(t, gc.Present())
}

func assertNoLeaks(t *testing.T, interop *fakeInterop) {
	t.Helper()
	for _, obj := range interop.tracked {
		assert.Zerof(t, obj.refCount(), "leaked reference to %s", obj.label())
	}
	for _, e := range interop.events {
		assert.True(t, e.closed, "fence event left open")
	}
}

func TestGraphicsInitialization(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})

	assert.Equal(t, StateReady, gc.State())
	assert.Equal(t, uint32(0), gc.BackBufferIndex())
	assert.Equal(t, native.FeatureLevel12_1, gc.FeatureLevel())
	require.Len(t, interop.devices, 1)
	assert.Equal(t, 2, interop.devices[0].rtvsCreated)
	assert.Equal(t, 1, interop.devices[0].dsvsCreated)

	gc.Release()
	assertNoLeaks(t, interop)
}

func TestGraphicsFramePacingCyclesBackBuffers(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()
	queue := interop.devices[0].queues[0]

	// Three frames on two back buffers: 0, 1, 0, and no wait ever stalls,
	// since every fence wait on the fake GPU resolves immediately or fails
	// the frame.
	for _, want := range []uint32{0, 1, 0} {
		assert.Equal(t, want, gc.BackBufferIndex())
		runFrame(t, gc)
		assert.Equal(t, StateReady, gc.State())
	}

	assert.Len(t, queue.executed, 3)
	// Signaled values start above the fence's creation value of zero and
	// increase strictly.
	assert.Equal(t, []uint64{1, 2, 3}, queue.signals)
	// Instant GPU completion lets a single allocator serve every frame.
	assert.Equal(t, 1, gc.allocatorPool.Size())
}

func TestGraphicsStalledGPUForcesNewAllocator(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	queue := interop.devices[0].queues[0]
	queue.stallSignals = true

	runFrame(t, gc)
	require.Len(t, queue.signals, 1)
	// Frame zero signals a value above the fence's creation value, so an
	// idle completed value can never satisfy its allocator's free tag.
	assert.Greater(t, queue.signals[0], uint64(0))

	first := interop.devices[0].allocators[0]
	resetsBefore := first.resets
	require.NoError(t, gc.Prepare())
	// With the GPU stalled the pool must grow instead of resetting frame
	// zero's allocator out from under in-flight commands.
	assert.Equal(t, 2, gc.allocatorPool.Size())
	assert.Equal(t, resetsBefore, first.resets)

	require.NoError(t, gc.Clear())
	queue.stallSignals = false
	require.NoError(t, gc.Present())
	gc.Release()
}

func TestGraphicsClearUsesClearColor(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()

	red := [4]float32{1, 0, 0, 1}
	gc.SetClearColor(red)
	runFrame(t, gc)

	list := interop.devices[0].lists[0]
	require.NotEmpty(t, list.clearColors)
	assert.Equal(t, red, list.clearColors[len(list.clearColors)-1])
	assert.NotZero(t, list.depthClears)
	require.NotEmpty(t, list.viewports)
	assert.Equal(t, float32(1280), list.viewports[0].Width)
	assert.Equal(t, float32(720), list.viewports[0].Height)
}

func TestGraphicsPrepareRequiresReadyState(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()

	require.NoError(t, gc.Prepare())
	assert.Error(t, gc.Prepare())

	require.NoError(t, gc.Clear())
	require.NoError(t, gc.Present())
	assert.Error(t, gc.Present())
}

func TestGraphicsDeviceLostOnPresentRecovers(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()
	runFrame(t, gc)

	interop.devices[0].removedReason = native.StatusDeviceHung
	interop.factories[0].swapchains[0].injectPresentStatus(native.StatusDeviceRemoved)

	require.NoError(t, gc.Prepare())
	require.NoError(t, gc.Clear())
	// Recovery is silent: the frame is dropped, the device graph rebuilt.
	require.NoError(t, gc.Present())

	assert.Equal(t, StateReady, gc.State())
	require.Len(t, interop.devices, 2)
	require.Len(t, interop.factories, 2)
	assert.Equal(t, uint32(0), gc.BackBufferIndex())
	// Pacing restarts from scratch: a fresh fence at zero with the first
	// frame's slot already primed to signal above it.
	assert.Equal(t, []uint64{1, 0}, gc.fenceValues)

	// The rebuilt pipeline renders again.
	runFrame(t, gc)
	assert.Equal(t, 1, interop.factories[1].swapchains[0].presents)

	gc.Release()
	assertNoLeaks(t, interop)
}

func TestGraphicsPresentFailureSurfaces(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()

	interop.factories[0].swapchains[0].injectPresentStatus(native.StatusFail)
	require.NoError(t, gc.Prepare())
	require.NoError(t, gc.Clear())
	require.Error(t, gc.Present())

	// A plain failure is not device loss: no rebuild happened.
	assert.Len(t, interop.devices, 1)
	assert.Equal(t, StateReady, gc.State())

	// The in-flight allocator went back to the pool instead of leaking.
	assert.Nil(t, gc.currentAllocator)
	assert.Len(t, gc.allocatorPool.freeList, 1)

	// The next frame still paces normally.
	runFrame(t, gc)
}

func TestGraphicsResizeRebuildsResources(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{Width: 800, Height: 600, BackBufferCount: 2})
	defer gc.Release()
	runFrame(t, gc)

	resized, err := gc.OnWindowSizeChanged(1024, 768)
	require.NoError(t, err)
	assert.True(t, resized)
	assert.Equal(t, StateReady, gc.State())

	sc := interop.factories[0].swapchains[0]
	assert.Equal(t, 1, sc.resizes)
	assert.Equal(t, uint32(1024), sc.width)
	assert.Equal(t, uint32(768), sc.height)
	width, height := gc.Size()
	assert.Equal(t, uint32(1024), width)
	assert.Equal(t, uint32(768), height)
	assert.Equal(t, uint32(0), gc.BackBufferIndex())

	runFrame(t, gc)
}

func TestGraphicsResizeSameSizeIsNoOp(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{Width: 800, Height: 600, BackBufferCount: 2})
	defer gc.Release()

	resized, err := gc.OnWindowSizeChanged(800, 600)
	require.NoError(t, err)
	assert.False(t, resized)
	assert.Zero(t, interop.factories[0].swapchains[0].resizes)
}

func TestGraphicsResizeClampsToMinimum(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{Width: 800, Height: 600, BackBufferCount: 2})
	defer gc.Release()

	resized, err := gc.OnWindowSizeChanged(0, 0)
	require.NoError(t, err)
	assert.True(t, resized)
	width, height := gc.Size()
	assert.Equal(t, uint32(1), width)
	assert.Equal(t, uint32(1), height)
}

func TestGraphicsResizeRejectedMidFrame(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()

	require.NoError(t, gc.Prepare())
	_, err := gc.OnWindowSizeChanged(640, 480)
	require.Error(t, err)

	require.NoError(t, gc.Clear())
	require.NoError(t, gc.Present())
}

func TestGraphicsDeviceLostOnResizeRecovers(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{Width: 800, Height: 600, BackBufferCount: 2})
	defer gc.Release()
	runFrame(t, gc)

	interop.factories[0].swapchains[0].resizeStatus = native.StatusDeviceReset
	_, err := gc.OnWindowSizeChanged(1024, 768)
	require.NoError(t, err)

	assert.Equal(t, StateReady, gc.State())
	require.Len(t, interop.devices, 2)
	width, height := gc.Size()
	assert.Equal(t, uint32(1024), width)
	assert.Equal(t, uint32(768), height)
	runFrame(t, gc)
}

func TestGraphicsTearingFlagRequiresSupport(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2, Flags: InitFlagAllowTearing})
	assert.Zero(t, gc.Flags()&InitFlagAllowTearing)
	runFrame(t, gc)
	sc := interop.factories[0].swapchains[0]
	assert.Equal(t, uint32(1), sc.lastSync)
	assert.Equal(t, uint32(0), sc.lastFlags)
	gc.Release()

	interop = newFakeInterop()
	interop.tearing = true
	gc = newTestGraphics(t, interop, Params{BackBufferCount: 2, Flags: InitFlagAllowTearing})
	defer gc.Release()
	assert.NotZero(t, gc.Flags()&InitFlagAllowTearing)
	runFrame(t, gc)
	sc = interop.factories[0].swapchains[0]
	assert.Equal(t, uint32(0), sc.lastSync)
	assert.Equal(t, native.PresentAllowTearing, sc.lastFlags)
}

func TestGraphicsHDRColorSpaceSelection(t *testing.T) {
	interop := newFakeInterop()
	interop.hdr = map[native.ColorSpace]bool{native.ColorSpaceRGBFullG2084NoneP2020: true}
	gc := newTestGraphics(t, interop, Params{
		BackBufferCount:  2,
		BackBufferFormat: native.FormatR10G10B10A2Unorm,
		Flags:            InitFlagEnableHDR,
	})
	defer gc.Release()

	sc := interop.factories[0].swapchains[0]
	assert.Equal(t, native.ColorSpaceRGBFullG2084NoneP2020, sc.colorSpace)
	assert.Equal(t, native.ColorSpaceRGBFullG2084NoneP2020, gc.swapchain.ColorSpace())
}

func TestGraphicsHDRFallsBackWithoutSupport(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{
		BackBufferCount:  2,
		BackBufferFormat: native.FormatR16G16B16A16Float,
		Flags:            InitFlagEnableHDR,
	})
	defer gc.Release()
	assert.Equal(t, native.ColorSpaceRGBFullG22NoneP709, gc.swapchain.ColorSpace())
}

func TestGraphicsWarpFallback(t *testing.T) {
	interop := newFakeInterop()
	interop.softwareOnly = true
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	require.Len(t, interop.devices, 1)
	runFrame(t, gc)
	gc.Release()
	assertNoLeaks(t, interop)
}

func TestGraphicsWaitForGPUAdvancesFence(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 2})
	defer gc.Release()

	before := gc.fenceValues[gc.backBufferIndex]
	require.NoError(t, gc.WaitForGPU())
	assert.Equal(t, before+1, gc.fenceValues[gc.backBufferIndex])
}

func TestGraphicsReleaseIsIdempotent(t *testing.T) {
	interop := newFakeInterop()
	gc := newTestGraphics(t, interop, Params{BackBufferCount: 3})
	runFrame(t, gc)
	gc.Release()
	gc.Release()
	assertNoLeaks(t, interop)
}
