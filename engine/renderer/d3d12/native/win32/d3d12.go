//go:build windows

package win32

import (
	"math"
	"unsafe"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// ID3D12Device vtable slots past IUnknown/ID3D12Object.
const (
	slotDeviceCreateCommandQueue       = 8
	slotDeviceCreateCommandAllocator   = 9
	slotDeviceCreateCommandList        = 12
	slotDeviceCheckFeatureSupport      = 13
	slotDeviceCreateDescriptorHeap     = 14
	slotDeviceDescriptorIncrementSize  = 15
	slotDeviceCreateRenderTargetView   = 20
	slotDeviceCreateDepthStencilView   = 21
	slotDeviceCreateCommittedResource  = 27
	slotDeviceCreateFence              = 36
	slotDeviceGetDeviceRemovedReason   = 37
	slotQueueExecuteCommandLists       = 10
	slotQueueSignal                    = 14
	slotAllocatorReset                 = 8
	slotListClose                      = 9
	slotListReset                      = 10
	slotListRSSetViewports             = 21
	slotListRSSetScissorRects          = 22
	slotListResourceBarrier            = 26
	slotListOMSetRenderTargets         = 46
	slotListClearDepthStencilView      = 47
	slotListClearRenderTargetView      = 48
	slotFenceGetCompletedValue         = 8
	slotFenceSetEventOnCompletion      = 9
	slotHeapCPUDescriptorHandleForHeap = 9
	slotInfoQueueAddStorageFilter      = 11
	slotInfoQueueSetBreakOnSeverity    = 30
)

const (
	heapTypeDefault uint32 = 1

	resourceDimensionTexture2D uint32 = 3
	resourceFlagAllowDepth     uint32 = 0x40
	resourceFlagDenyShader     uint32 = 0x80

	descriptorHeapFlagShaderVisible uint32 = 0x1

	featureFeatureLevels uint32 = 2

	barrierTypeTransition uint32 = 0
	subresourceAll        uint32 = 0xFFFFFFFF

	clearFlagDepth   uint32 = 0x1
	clearFlagStencil uint32 = 0x2
)

type commandQueueDesc struct {
	Type     int32
	Priority int32
	Flags    uint32
	NodeMask uint32
}

type descriptorHeapDesc struct {
	Type           uint32
	NumDescriptors uint32
	Flags          uint32
	NodeMask       uint32
}

type heapProperties struct {
	Type                 uint32
	CPUPageProperty      uint32
	MemoryPoolPreference uint32
	CreationNodeMask     uint32
	VisibleNodeMask      uint32
}

type resourceDesc struct {
	Dimension        uint32
	_                uint32
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           uint32
	SampleCount      uint32
	SampleQuality    uint32
	Layout           uint32
	Flags            uint32
}

type depthClearValue struct {
	Format  uint32
	Depth   float32
	Stencil uint8
	_       [3]byte
	_       [8]byte
}

type resourceBarrier struct {
	Type        uint32
	Flags       uint32
	Resource    uintptr
	Subresource uint32
	StateBefore uint32
	StateAfter  uint32
	_           uint32
}

type featureDataFeatureLevels struct {
	NumFeatureLevels        uint32
	_                       uint32
	FeatureLevelsRequested  uintptr
	MaxSupportedLevel       uint32
	_                       uint32
}

type infoQueueFilterDesc struct {
	NumCategories uint32
	CategoryList  uintptr
	NumSeverities uint32
	SeverityList  uintptr
	NumIDs        uint32
	IDList        uintptr
}

type infoQueueFilter struct {
	AllowList infoQueueFilterDesc
	DenyList  infoQueueFilterDesc
}

type device struct {
	comObject
}

func (d *device) CreateCommandQueue(listType native.CommandListType) (native.CommandQueue, native.Status) {
	desc := commandQueueDesc{Type: int32(listType)}
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateCommandQueue,
		uintptr(unsafe.Pointer(&desc)),
		uintptr(unsafe.Pointer(&iidD3D12CommandQueue)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &commandQueue{comObject{ptr: out}}, native.StatusOK
}

func (d *device) CreateCommandAllocator(listType native.CommandListType) (native.CommandAllocator, native.Status) {
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateCommandAllocator,
		uintptr(listType),
		uintptr(unsafe.Pointer(&iidD3D12CommandAllocator)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &commandAllocator{comObject{ptr: out}}, native.StatusOK
}

func (d *device) CreateCommandList(listType native.CommandListType, allocator native.CommandAllocator) (native.CommandList, native.Status) {
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateCommandList,
		0, // single-GPU node mask
		uintptr(listType),
		allocator.Ptr(),
		0, // no initial pipeline state
		uintptr(unsafe.Pointer(&iidD3D12GraphicsCommandLst)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &commandList{comObject{ptr: out}}, native.StatusOK
}

func (d *device) CreateFence(initialValue uint64) (native.Fence, native.Status) {
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateFence,
		uintptr(initialValue),
		0, // D3D12_FENCE_FLAG_NONE
		uintptr(unsafe.Pointer(&iidD3D12Fence)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &fence{comObject{ptr: out}}, native.StatusOK
}

func (d *device) CreateDescriptorHeap(heapType native.DescriptorHeapType, capacity uint32, shaderVisible bool) (native.DescriptorHeap, native.Status) {
	desc := descriptorHeapDesc{
		Type:           uint32(heapType),
		NumDescriptors: capacity,
	}
	if shaderVisible {
		desc.Flags = descriptorHeapFlagShaderVisible
	}
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateDescriptorHeap,
		uintptr(unsafe.Pointer(&desc)),
		uintptr(unsafe.Pointer(&iidD3D12DescriptorHeap)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &descriptorHeap{comObject{ptr: out}}, native.StatusOK
}

func (d *device) DescriptorSize(heapType native.DescriptorHeapType) uint32 {
	return uint32(d.call(slotDeviceDescriptorIncrementSize, uintptr(heapType)))
}

func (d *device) CreateRenderTargetView(res native.Resource, format native.Format, dest native.CPUDescriptor) {
	// nil view desc: inherit the resource's format and dimension. The
	// swapchain buffer was created with the linear format already.
	_ = format
	d.call(slotDeviceCreateRenderTargetView, res.Ptr(), 0, uintptr(dest.Ptr))
}

func (d *device) CreateDepthStencilView(res native.Resource, format native.Format, dest native.CPUDescriptor) {
	_ = format
	d.call(slotDeviceCreateDepthStencilView, res.Ptr(), 0, uintptr(dest.Ptr))
}

func (d *device) CreateDepthStencil(format native.Format, width, height uint32) (native.Resource, native.Status) {
	props := heapProperties{Type: heapTypeDefault, CreationNodeMask: 1, VisibleNodeMask: 1}
	desc := resourceDesc{
		Dimension:        resourceDimensionTexture2D,
		Width:            uint64(width),
		Height:           height,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           uint32(format),
		SampleCount:      1,
		Flags:            resourceFlagAllowDepth | resourceFlagDenyShader,
	}
	clear := depthClearValue{Format: uint32(format), Depth: 1.0}
	var out uintptr
	status := native.Status(d.call(slotDeviceCreateCommittedResource,
		uintptr(unsafe.Pointer(&props)),
		0, // D3D12_HEAP_FLAG_NONE
		uintptr(unsafe.Pointer(&desc)),
		uintptr(native.ResourceStateDepthWrite),
		uintptr(unsafe.Pointer(&clear)),
		uintptr(unsafe.Pointer(&iidD3D12Resource)),
		uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	return &resource{comObject{ptr: out}}, native.StatusOK
}

func (d *device) MaxSupportedFeatureLevel(requested []native.FeatureLevel) native.FeatureLevel {
	if len(requested) == 0 {
		return 0
	}
	data := featureDataFeatureLevels{
		NumFeatureLevels:       uint32(len(requested)),
		FeatureLevelsRequested: uintptr(unsafe.Pointer(&requested[0])),
	}
	status := native.Status(d.call(slotDeviceCheckFeatureSupport,
		uintptr(featureFeatureLevels),
		uintptr(unsafe.Pointer(&data)),
		unsafe.Sizeof(data)))
	if status.Failed() {
		return 0
	}
	return native.FeatureLevel(data.MaxSupportedLevel)
}

func (d *device) RemovedReason() native.Status {
	return native.Status(d.call(slotDeviceGetDeviceRemovedReason))
}

type commandQueue struct {
	comObject
}

func (q *commandQueue) ExecuteCommandLists(lists []native.CommandList) {
	if len(lists) == 0 {
		return
	}
	ptrs := make([]uintptr, len(lists))
	for i, l := range lists {
		ptrs[i] = l.Ptr()
	}
	q.call(slotQueueExecuteCommandLists, uintptr(len(ptrs)), uintptr(unsafe.Pointer(&ptrs[0])))
}

func (q *commandQueue) Signal(f native.Fence, value uint64) native.Status {
	return native.Status(q.call(slotQueueSignal, f.Ptr(), uintptr(value)))
}

type commandAllocator struct {
	comObject
}

func (a *commandAllocator) Reset() native.Status {
	return native.Status(a.call(slotAllocatorReset))
}

func (a *commandAllocator) SetName(name string) {
	a.setName(name)
}

type commandList struct {
	comObject
}

func (l *commandList) Reset(allocator native.CommandAllocator) native.Status {
	return native.Status(l.call(slotListReset, allocator.Ptr(), 0))
}

func (l *commandList) Close() native.Status {
	return native.Status(l.call(slotListClose))
}

func (l *commandList) ResourceBarrier(barriers []native.ResourceBarrier) {
	if len(barriers) == 0 {
		return
	}
	nb := make([]resourceBarrier, len(barriers))
	for i, b := range barriers {
		nb[i] = resourceBarrier{
			Type:        barrierTypeTransition,
			Resource:    b.Resource.Ptr(),
			Subresource: subresourceAll,
			StateBefore: uint32(b.Before),
			StateAfter:  uint32(b.After),
		}
	}
	l.call(slotListResourceBarrier, uintptr(len(nb)), uintptr(unsafe.Pointer(&nb[0])))
}

func (l *commandList) ClearRenderTargetView(view native.CPUDescriptor, color [4]float32) {
	l.call(slotListClearRenderTargetView,
		uintptr(view.Ptr), uintptr(unsafe.Pointer(&color)), 0, 0)
}

func (l *commandList) ClearDepthStencilView(view native.CPUDescriptor, depth float32, stencil uint8) {
	// Depth is the 4th argument; the runtime mirrors it into XMM3 where the
	// ABI wants FLOATs.
	l.call(slotListClearDepthStencilView,
		uintptr(view.Ptr),
		uintptr(clearFlagDepth|clearFlagStencil),
		uintptr(math.Float32bits(depth)),
		uintptr(stencil),
		0, 0)
}

func (l *commandList) SetRenderTargets(rtv native.CPUDescriptor, dsv native.CPUDescriptor) {
	l.call(slotListOMSetRenderTargets,
		1,
		uintptr(unsafe.Pointer(&rtv)),
		0, // handles are not a contiguous range
		uintptr(unsafe.Pointer(&dsv)))
}

func (l *commandList) SetViewports(viewport native.Viewport) {
	l.call(slotListRSSetViewports, 1, uintptr(unsafe.Pointer(&viewport)))
}

func (l *commandList) SetScissorRects(rect native.Rect) {
	l.call(slotListRSSetScissorRects, 1, uintptr(unsafe.Pointer(&rect)))
}

type fence struct {
	comObject
}

func (f *fence) CompletedValue() uint64 {
	return uint64(f.call(slotFenceGetCompletedValue))
}

func (f *fence) SetEventOnCompletion(value uint64, ev native.Event) native.Status {
	e, ok := ev.(*event)
	if !ok {
		return native.StatusInvalidArg
	}
	return native.Status(f.call(slotFenceSetEventOnCompletion, uintptr(value), uintptr(e.handle)))
}

type descriptorHeap struct {
	comObject
}

func (h *descriptorHeap) Start() native.CPUDescriptor {
	// Returned by hidden pointer, matching the C-interface declaration of
	// GetCPUDescriptorHandleForHeapStart.
	var handle native.CPUDescriptor
	h.call(slotHeapCPUDescriptorHandleForHeap, uintptr(unsafe.Pointer(&handle)))
	return handle
}

type resource struct {
	comObject
}

func (r *resource) SetName(name string) {
	r.setName(name)
}

type infoQueue struct {
	comObject
}

func (q *infoQueue) SetBreakOnSeverity(severity native.MessageSeverity, enabled bool) {
	var b uintptr
	if enabled {
		b = 1
	}
	q.call(slotInfoQueueSetBreakOnSeverity, uintptr(severity), b)
}

func (q *infoQueue) HideMessages(ids []uint32) {
	if len(ids) == 0 {
		return
	}
	filter := infoQueueFilter{
		DenyList: infoQueueFilterDesc{
			NumIDs: uint32(len(ids)),
			IDList: uintptr(unsafe.Pointer(&ids[0])),
		},
	}
	q.call(slotInfoQueueAddStorageFilter, uintptr(unsafe.Pointer(&filter)))
}
