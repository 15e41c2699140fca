// Package native defines the boundary with the Direct3D 12 / DXGI runtime.
//
// Everything the render core calls on the native API goes through the
// interfaces in this package. The win32 subpackage implements them with
// vtable-dispatch syscalls on Windows; tests implement them with in-memory
// fakes. All objects except Event are COM reference-counted and expose the
// Unknown contract.
package native

// GUID is a COM interface identifier.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// Interface identifiers for the optional interfaces the core queries at
// runtime. Querying any of these may legitimately fail with
// StatusNoInterface, in which case the caller falls back to baseline
// behavior.
var (
	// IDXGIFactory5, used to probe tearing support.
	IIDFactory5 = GUID{0x7632e1f5, 0xee65, 0x4dca, [8]byte{0x87, 0xfd, 0x84, 0xcd, 0x75, 0xf8, 0x83, 0x8d}}
	// IDXGISwapChain3, used for colorspace selection.
	IIDSwapChain3 = GUID{0x94d99bdb, 0xf1f8, 0x4ab0, [8]byte{0xb2, 0x36, 0x7d, 0xa0, 0x17, 0x0e, 0xda, 0xb1}}
	// ID3D12InfoQueue, used to configure the debug layer.
	IIDInfoQueue = GUID{0x0742a90b, 0xc387, 0x483f, [8]byte{0xb9, 0x46, 0x30, 0xa7, 0xe4, 0xe6, 0x14, 0x58}}
)

// Unknown is the base contract of every reference-counted native object.
// AddRef and Release return the updated reference count where the native
// runtime reports it (fakes always do).
type Unknown interface {
	AddRef() uint32
	Release() uint32
	// QueryInterface returns a new owning reference to the requested
	// interface, or StatusNoInterface when the object does not implement
	// it. The returned value carries its own reference count.
	QueryInterface(iid GUID) (Unknown, Status)
	// Ptr identifies the underlying native object. Two wrappers alias the
	// same object iff their Ptr values are equal.
	Ptr() uintptr
}

// Interop bundles the module entry points of the native runtime
// (CreateDXGIFactory2, D3D12CreateDevice, CreateEventEx). A single Interop
// is threaded through construction so the whole device graph can be rebuilt
// after device loss, or faked in tests.
type Interop interface {
	// EnableDebugLayer turns on the D3D12 debug layer. Returns false when
	// the debug runtime is not installed.
	EnableDebugLayer() bool
	CreateFactory(debug bool) (Factory, Status)
	CreateDevice(adapter Adapter, minFeatureLevel FeatureLevel) (Device, Status)
	NewEvent() (Event, Status)
}

type Factory interface {
	Unknown
	// EnumAdapter returns the adapter at index, or StatusNotFound past the
	// last one.
	EnumAdapter(index uint32) (Adapter, Status)
	// EnumWarpAdapter returns the software rasterizer adapter.
	EnumWarpAdapter() (Adapter, Status)
	CreateSwapChain(queue CommandQueue, windowHandle uintptr, desc SwapChainDesc) (SwapChain, Status)
	MakeWindowAssociation(windowHandle uintptr, flags uint32) Status
	// IsCurrent reports whether cached output information is still valid.
	IsCurrent() bool
}

// Factory5 reports variable-refresh-rate display support. Obtained by
// casting a Factory with IIDFactory5.
type Factory5 interface {
	Unknown
	SupportsTearing() bool
}

type Adapter interface {
	Unknown
	Desc() AdapterDesc
}

type AdapterDesc struct {
	Description          string
	VendorID             uint32
	DeviceID             uint32
	DedicatedVideoMemory uint64
	Software             bool
}

type Device interface {
	Unknown
	CreateCommandQueue(listType CommandListType) (CommandQueue, Status)
	CreateCommandAllocator(listType CommandListType) (CommandAllocator, Status)
	// CreateCommandList returns a list in the recording state, bound to
	// allocator.
	CreateCommandList(listType CommandListType, allocator CommandAllocator) (CommandList, Status)
	CreateFence(initialValue uint64) (Fence, Status)
	CreateDescriptorHeap(heapType DescriptorHeapType, capacity uint32, shaderVisible bool) (DescriptorHeap, Status)
	// DescriptorSize returns the handle increment for heapType.
	DescriptorSize(heapType DescriptorHeapType) uint32
	CreateRenderTargetView(resource Resource, format Format, dest CPUDescriptor)
	CreateDepthStencilView(resource Resource, format Format, dest CPUDescriptor)
	// CreateDepthStencil allocates a committed 2D depth/stencil surface in
	// the depth-write state.
	CreateDepthStencil(format Format, width, height uint32) (Resource, Status)
	// MaxSupportedFeatureLevel probes the requested levels and returns the
	// highest one the device supports.
	MaxSupportedFeatureLevel(requested []FeatureLevel) FeatureLevel
	// RemovedReason returns the device-removal status after a device-lost
	// signal.
	RemovedReason() Status
}

// InfoQueue configures the debug-layer message queue. Obtained by casting a
// Device with IIDInfoQueue; only present when the debug layer is enabled.
type InfoQueue interface {
	Unknown
	SetBreakOnSeverity(severity MessageSeverity, enabled bool)
	// HideMessages installs a storage filter denying the given message ids.
	HideMessages(ids []uint32)
}

type CommandQueue interface {
	Unknown
	ExecuteCommandLists(lists []CommandList)
	// Signal asks the GPU to set fence to value once all previously
	// submitted work on this queue has completed.
	Signal(fence Fence, value uint64) Status
}

type CommandAllocator interface {
	Unknown
	Reset() Status
	SetName(name string)
}

type CommandList interface {
	Unknown
	Reset(allocator CommandAllocator) Status
	Close() Status
	ResourceBarrier(barriers []ResourceBarrier)
	ClearRenderTargetView(view CPUDescriptor, color [4]float32)
	ClearDepthStencilView(view CPUDescriptor, depth float32, stencil uint8)
	SetRenderTargets(rtv CPUDescriptor, dsv CPUDescriptor)
	SetViewports(viewport Viewport)
	SetScissorRects(rect Rect)
}

type Fence interface {
	Unknown
	// CompletedValue returns the last value the GPU has reached. Never
	// blocks. Monotonically non-decreasing.
	CompletedValue() uint64
	// SetEventOnCompletion arranges for event to be signaled once the fence
	// reaches value.
	SetEventOnCompletion(value uint64, event Event) Status
}

// Event wraps an OS waitable handle. Not reference counted; Close releases
// the handle.
type Event interface {
	Wait(timeoutMS uint32) WaitStatus
	Close()
}

type WaitStatus int

const (
	WaitSignaled WaitStatus = iota
	WaitTimedOut
	WaitFailed
)

// WaitInfinite blocks without timeout.
const WaitInfinite uint32 = 0xFFFFFFFF

type SwapChain interface {
	Unknown
	Present(syncInterval uint32, flags uint32) Status
	ResizeBuffers(bufferCount, width, height uint32, format Format, flags uint32) Status
	CurrentBackBufferIndex() uint32
	Buffer(index uint32) (Resource, Status)
}

// SwapChain3 selects the presentation colorspace. Obtained by casting a
// SwapChain with IIDSwapChain3.
type SwapChain3 interface {
	Unknown
	CheckColorSpaceSupport(colorSpace ColorSpace) (bool, Status)
	SetColorSpace(colorSpace ColorSpace) Status
}

type Resource interface {
	Unknown
	SetName(name string)
}

type DescriptorHeap interface {
	Unknown
	// Start returns the CPU handle of slot 0.
	Start() CPUDescriptor
}

// CPUDescriptor addresses one descriptor slot in a heap.
type CPUDescriptor struct {
	Ptr uint64
}

// Offset returns the descriptor count slots past d, given the heap's handle
// increment.
func (d CPUDescriptor) Offset(count uint32, incrementSize uint32) CPUDescriptor {
	return CPUDescriptor{Ptr: d.Ptr + uint64(count)*uint64(incrementSize)}
}
