//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// IDXGIFactory4 vtable slots past IUnknown/IDXGIObject.
const (
	slotFactoryMakeWindowAssociation  = 8
	slotFactoryEnumAdapters1          = 12
	slotFactoryIsCurrent              = 13
	slotFactoryCreateSwapChainForHwnd = 15
	slotFactoryEnumWarpAdapter        = 27
	slotFactory5CheckFeatureSupport   = 28
)

// IDXGISwapChain3 vtable slots.
const (
	slotSwapChainPresent                = 8
	slotSwapChainGetBuffer              = 9
	slotSwapChainResizeBuffers          = 13
	slotSwapChainCurrentBackBufferIndex = 36
	slotSwapChainCheckColorSpaceSupport = 37
	slotSwapChainSetColorSpace1         = 38
)

const (
	dxgiAdapterFlagSoftware uint32 = 0x2

	dxgiUsageRenderTargetOutput uint32 = 0x20
	dxgiSwapEffectFlipDiscard   uint32 = 4
	dxgiAlphaModeIgnore         uint32 = 3

	dxgiFeaturePresentAllowTearing uint32 = 0
)

type factory struct {
	comObject
}

type dxgiAdapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLUID           [2]uint32
	Flags                 uint32
}

type dxgiSwapChainDesc1 struct {
	Width         uint32
	Height        uint32
	Format        uint32
	Stereo        int32
	SampleCount   uint32
	SampleQuality uint32
	BufferUsage   uint32
	BufferCount   uint32
	Scaling       uint32
	SwapEffect    uint32
	AlphaMode     uint32
	Flags         uint32
}

func (f *factory) EnumAdapter(index uint32) (native.Adapter, native.Status) {
	var out uintptr
	status := native.Status(f.call(slotFactoryEnumAdapters1, uintptr(index), uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &adapter{comObject{ptr: out}}, native.StatusOK
}

func (f *factory) EnumWarpAdapter() (native.Adapter, native.Status) {
	var out uintptr
	status := native.Status(f.call(slotFactoryEnumWarpAdapter,
		uintptr(unsafe.Pointer(&iidDXGIAdapter1)), uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &adapter{comObject{ptr: out}}, native.StatusOK
}

func (f *factory) CreateSwapChain(queue native.CommandQueue, windowHandle uintptr, desc native.SwapChainDesc) (native.SwapChain, native.Status) {
	nd := dxgiSwapChainDesc1{
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      uint32(desc.Format),
		SampleCount: 1,
		BufferUsage: dxgiUsageRenderTargetOutput,
		BufferCount: desc.BufferCount,
		SwapEffect:  dxgiSwapEffectFlipDiscard,
		AlphaMode:   dxgiAlphaModeIgnore,
	}
	if desc.AllowTearing {
		nd.Flags = native.SwapChainFlagAllowTearing
	}
	var out uintptr
	status := native.Status(f.call(slotFactoryCreateSwapChainForHwnd,
		queue.Ptr(),
		windowHandle,
		uintptr(unsafe.Pointer(&nd)),
		0, // fullscreen desc: windowed
		0, // no output restriction
		uintptr(unsafe.Pointer(&out)),
	))
	if status.Failed() {
		return nil, status
	}
	// The render loop needs GetCurrentBackBufferIndex; promote the
	// IDXGISwapChain1 to IDXGISwapChain3 right away.
	sc1 := comObject{ptr: out}
	promoted, qi := sc1.QueryInterface(native.IIDSwapChain3)
	sc1.Release()
	if qi.Failed() {
		return nil, qi
	}
	return &swapChain{comObject{ptr: promoted.Ptr()}}, native.StatusOK
}

func (f *factory) MakeWindowAssociation(windowHandle uintptr, flags uint32) native.Status {
	return native.Status(f.call(slotFactoryMakeWindowAssociation, windowHandle, uintptr(flags)))
}

func (f *factory) IsCurrent() bool {
	return f.call(slotFactoryIsCurrent) != 0
}

// factory5 wraps IDXGIFactory5 for the tearing-support probe.
type factory5 struct {
	comObject
}

func (f *factory5) SupportsTearing() bool {
	var allowTearing int32
	status := native.Status(f.call(slotFactory5CheckFeatureSupport,
		uintptr(dxgiFeaturePresentAllowTearing),
		uintptr(unsafe.Pointer(&allowTearing)),
		unsafe.Sizeof(allowTearing),
	))
	return status.Succeeded() && allowTearing != 0
}

type adapter struct {
	comObject
}

func (a *adapter) Desc() native.AdapterDesc {
	var nd dxgiAdapterDesc1
	a.call(10, uintptr(unsafe.Pointer(&nd))) // IDXGIAdapter1::GetDesc1
	return native.AdapterDesc{
		Description:          windows.UTF16ToString(nd.Description[:]),
		VendorID:             nd.VendorID,
		DeviceID:             nd.DeviceID,
		DedicatedVideoMemory: uint64(nd.DedicatedVideoMemory),
		Software:             nd.Flags&dxgiAdapterFlagSoftware != 0,
	}
}

// swapChain holds an IDXGISwapChain3 pointer.
type swapChain struct {
	comObject
}

func (s *swapChain) Present(syncInterval uint32, flags uint32) native.Status {
	return native.Status(s.call(slotSwapChainPresent, uintptr(syncInterval), uintptr(flags)))
}

func (s *swapChain) ResizeBuffers(bufferCount, width, height uint32, format native.Format, flags uint32) native.Status {
	return native.Status(s.call(slotSwapChainResizeBuffers,
		uintptr(bufferCount), uintptr(width), uintptr(height), uintptr(format), uintptr(flags)))
}

func (s *swapChain) CurrentBackBufferIndex() uint32 {
	return uint32(s.call(slotSwapChainCurrentBackBufferIndex))
}

func (s *swapChain) Buffer(index uint32) (native.Resource, native.Status) {
	var out uintptr
	status := native.Status(s.call(slotSwapChainGetBuffer,
		uintptr(index), uintptr(unsafe.Pointer(&iidD3D12Resource)), uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &resource{comObject{ptr: out}}, native.StatusOK
}

// swapChain3 is the capability view returned by QueryInterface; the
// colorspace methods live here.
type swapChain3 struct {
	comObject
}

func (s *swapChain3) CheckColorSpaceSupport(colorSpace native.ColorSpace) (bool, native.Status) {
	var support uint32
	status := native.Status(s.call(slotSwapChainCheckColorSpaceSupport,
		uintptr(colorSpace), uintptr(unsafe.Pointer(&support))))
	if status.Failed() {
		return false, status
	}
	// DXGI_SWAP_CHAIN_COLOR_SPACE_SUPPORT_FLAG_PRESENT
	return support&0x1 != 0, native.StatusOK
}

func (s *swapChain3) SetColorSpace(colorSpace native.ColorSpace) native.Status {
	return native.Status(s.call(slotSwapChainSetColorSpace1, uintptr(colorSpace)))
}
