package d3d12

import (
	"sync/atomic"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// In-memory stand-ins for the native runtime. The fake GPU completes fence
// signals instantly, so frame pacing never blocks in tests; the fence and
// event fakes still expose manual knobs for exercising the wait paths.

var fakePtrCounter uintptr

type fakeObject struct {
	refs int
	ptr  uintptr
	name string
}

func newFakeObject(name string) fakeObject {
	return fakeObject{
		refs: 1,
		ptr:  atomic.AddUintptr(&fakePtrCounter, 1),
		name: name,
	}
}

func (o *fakeObject) AddRef() uint32 {
	o.refs++
	return uint32(o.refs)
}

func (o *fakeObject) Release() uint32 {
	if o.refs <= 0 {
		panic("release past zero on " + o.name)
	}
	o.refs--
	return uint32(o.refs)
}

func (o *fakeObject) Ptr() uintptr {
	return o.ptr
}

func (o *fakeObject) QueryInterface(iid native.GUID) (native.Unknown, native.Status) {
	return nil, native.StatusNoInterface
}

func (o *fakeObject) refCount() int {
	return o.refs
}

func (o *fakeObject) label() string {
	return o.name
}

type trackedObject interface {
	refCount() int
	label() string
}

type fakeInterop struct {
	debugRuntime bool
	tearing      bool
	softwareOnly bool
	hdr          map[native.ColorSpace]bool

	factories []*fakeFactory
	devices   []*fakeDevice
	events    []*fakeEvent
	tracked   []trackedObject
}

func newFakeInterop() *fakeInterop {
	return &fakeInterop{}
}

func (i *fakeInterop) track(obj trackedObject) {
	i.tracked = append(i.tracked, obj)
}

func (i *fakeInterop) EnableDebugLayer() bool {
	return i.debugRuntime
}

func (i *fakeInterop) CreateFactory(debug bool) (native.Factory, native.Status) {
	f := newFakeFactory(i)
	i.factories = append(i.factories, f)
	i.track(f)
	return f, native.StatusOK
}

func (i *fakeInterop) CreateDevice(adapter native.Adapter, minFeatureLevel native.FeatureLevel) (native.Device, native.Status) {
	d := newFakeDevice(i)
	i.devices = append(i.devices, d)
	i.track(d)
	return d, native.StatusOK
}

func (i *fakeInterop) NewEvent() (native.Event, native.Status) {
	e := &fakeEvent{}
	i.events = append(i.events, e)
	return e, native.StatusOK
}

type fakeEvent struct {
	signaled bool
	closed   bool
	// onWait runs once before the signaled check, standing in for GPU
	// progress made while the CPU blocks.
	onWait func()
}

func (e *fakeEvent) signal() {
	e.signaled = true
}

func (e *fakeEvent) Wait(timeoutMS uint32) native.WaitStatus {
	if e.onWait != nil {
		hook := e.onWait
		e.onWait = nil
		hook()
	}
	if e.signaled {
		e.signaled = false
		return native.WaitSignaled
	}
	if timeoutMS != native.WaitInfinite {
		return native.WaitTimedOut
	}
	// A real infinite wait would deadlock the test; surface it as failure.
	return native.WaitFailed
}

func (e *fakeEvent) Close() {
	e.closed = true
}

type fakeFactory struct {
	fakeObject
	interop    *fakeInterop
	adapters   []*fakeAdapter
	warp       *fakeAdapter
	swapchains []*fakeSwapChain
	current    bool
}

func newFakeFactory(interop *fakeInterop) *fakeFactory {
	f := &fakeFactory{
		fakeObject: newFakeObject("factory"),
		interop:    interop,
		current:    true,
	}
	hw := &fakeAdapter{
		fakeObject: newFakeObject("adapter"),
		desc: native.AdapterDesc{
			Description:          "Fake Discrete GPU",
			VendorID:             0x10DE,
			DeviceID:             0x1234,
			DedicatedVideoMemory: 4 << 30,
		},
	}
	if interop != nil && interop.softwareOnly {
		hw.desc.Software = true
	}
	f.adapters = append(f.adapters, hw)
	f.warp = &fakeAdapter{
		fakeObject: newFakeObject("warp adapter"),
		desc:       native.AdapterDesc{Description: "Fake WARP", Software: true},
	}
	if interop != nil {
		interop.track(hw)
		interop.track(f.warp)
	}
	return f
}

// Release drops the factory's own adapter references once the last
// external reference goes away.
func (f *fakeFactory) Release() uint32 {
	refs := f.fakeObject.Release()
	if refs == 0 {
		for _, a := range f.adapters {
			a.fakeObject.Release()
		}
		f.warp.fakeObject.Release()
	}
	return refs
}

func (f *fakeFactory) EnumAdapter(index uint32) (native.Adapter, native.Status) {
	if int(index) >= len(f.adapters) {
		return nil, native.StatusNotFound
	}
	a := f.adapters[index]
	a.AddRef()
	return a, native.StatusOK
}

func (f *fakeFactory) EnumWarpAdapter() (native.Adapter, native.Status) {
	f.warp.AddRef()
	return f.warp, native.StatusOK
}

func (f *fakeFactory) CreateSwapChain(queue native.CommandQueue, windowHandle uintptr, desc native.SwapChainDesc) (native.SwapChain, native.Status) {
	sc := newFakeSwapChain(desc)
	if f.interop != nil {
		sc.hdrSupport = f.interop.hdr
	}
	f.swapchains = append(f.swapchains, sc)
	if f.interop != nil {
		f.interop.track(sc)
		for _, b := range sc.buffers {
			f.interop.track(b)
		}
	}
	return sc, native.StatusOK
}

func (f *fakeFactory) MakeWindowAssociation(windowHandle uintptr, flags uint32) native.Status {
	return native.StatusOK
}

func (f *fakeFactory) IsCurrent() bool {
	return f.current
}

func (f *fakeFactory) QueryInterface(iid native.GUID) (native.Unknown, native.Status) {
	if iid == native.IIDFactory5 {
		tearing := f.interop != nil && f.interop.tearing
		return &fakeFactory5{fakeObject: newFakeObject("factory5"), tearing: tearing}, native.StatusOK
	}
	return nil, native.StatusNoInterface
}

type fakeFactory5 struct {
	fakeObject
	tearing bool
}

func (f *fakeFactory5) SupportsTearing() bool {
	return f.tearing
}

type fakeAdapter struct {
	fakeObject
	desc native.AdapterDesc
}

func (a *fakeAdapter) Desc() native.AdapterDesc {
	return a.desc
}

type fakeDevice struct {
	fakeObject
	interop *fakeInterop

	queues        []*fakeQueue
	fences        []*fakeFence
	lists         []*fakeCommandList
	allocators    []*fakeAllocator
	nextHeapBase  uint64
	heapStarts    []uint64
	heapsCreated  int
	rtvsCreated   int
	dsvsCreated   int
	removedReason native.Status

	failAllocator bool
	failHeap      bool
}

func newFakeDevice(interop *fakeInterop) *fakeDevice {
	return &fakeDevice{
		fakeObject:   newFakeObject("device"),
		interop:      interop,
		nextHeapBase: 0x1000,
	}
}

func (d *fakeDevice) track(obj trackedObject) {
	if d.interop != nil {
		d.interop.track(obj)
	}
}

func (d *fakeDevice) CreateCommandQueue(listType native.CommandListType) (native.CommandQueue, native.Status) {
	q := &fakeQueue{fakeObject: newFakeObject("queue")}
	d.queues = append(d.queues, q)
	d.track(q)
	return q, native.StatusOK
}

func (d *fakeDevice) CreateCommandAllocator(listType native.CommandListType) (native.CommandAllocator, native.Status) {
	if d.failAllocator {
		return nil, native.StatusOutOfMemory
	}
	a := &fakeAllocator{fakeObject: newFakeObject("allocator")}
	d.allocators = append(d.allocators, a)
	d.track(a)
	return a, native.StatusOK
}

func (d *fakeDevice) CreateCommandList(listType native.CommandListType, allocator native.CommandAllocator) (native.CommandList, native.Status) {
	l := &fakeCommandList{fakeObject: newFakeObject("command list")}
	d.lists = append(d.lists, l)
	d.track(l)
	return l, native.StatusOK
}

func (d *fakeDevice) CreateFence(initialValue uint64) (native.Fence, native.Status) {
	f := &fakeFence{fakeObject: newFakeObject("fence"), completed: initialValue}
	d.fences = append(d.fences, f)
	d.track(f)
	return f, native.StatusOK
}

func (d *fakeDevice) CreateDescriptorHeap(heapType native.DescriptorHeapType, capacity uint32, shaderVisible bool) (native.DescriptorHeap, native.Status) {
	if d.failHeap {
		return nil, native.StatusOutOfMemory
	}
	h := &fakeDescriptorHeap{fakeObject: newFakeObject("descriptor heap"), start: d.nextHeapBase}
	d.heapStarts = append(d.heapStarts, d.nextHeapBase)
	d.nextHeapBase += 1 << 20
	d.heapsCreated++
	d.track(h)
	return h, native.StatusOK
}

func (d *fakeDevice) DescriptorSize(heapType native.DescriptorHeapType) uint32 {
	return 32
}

func (d *fakeDevice) CreateRenderTargetView(resource native.Resource, format native.Format, dest native.CPUDescriptor) {
	d.rtvsCreated++
}

func (d *fakeDevice) CreateDepthStencilView(resource native.Resource, format native.Format, dest native.CPUDescriptor) {
	d.dsvsCreated++
}

func (d *fakeDevice) CreateDepthStencil(format native.Format, width, height uint32) (native.Resource, native.Status) {
	r := &fakeResource{fakeObject: newFakeObject("depth stencil")}
	d.track(r)
	return r, native.StatusOK
}

func (d *fakeDevice) MaxSupportedFeatureLevel(requested []native.FeatureLevel) native.FeatureLevel {
	return native.FeatureLevel12_1
}

func (d *fakeDevice) RemovedReason() native.Status {
	return d.removedReason
}

type fakeQueue struct {
	fakeObject
	executed   [][]native.CommandList
	signals    []uint64
	failSignal bool
	// stallSignals records signals without completing them: a GPU that
	// accepts work but makes no observable progress.
	stallSignals bool
}

func (q *fakeQueue) ExecuteCommandLists(lists []native.CommandList) {
	batch := make([]native.CommandList, len(lists))
	copy(batch, lists)
	q.executed = append(q.executed, batch)
}

// Signal completes instantly unless stalled: the fake GPU has no latency.
func (q *fakeQueue) Signal(f native.Fence, value uint64) native.Status {
	if q.failSignal {
		return native.StatusDeviceRemoved
	}
	q.signals = append(q.signals, value)
	if !q.stallSignals {
		f.(*fakeFence).complete(value)
	}
	return native.StatusOK
}

type pendingWait struct {
	value uint64
	event *fakeEvent
}

type fakeFence struct {
	fakeObject
	completed uint64
	pending   []pendingWait
}

func (f *fakeFence) CompletedValue() uint64 {
	return f.completed
}

func (f *fakeFence) SetEventOnCompletion(value uint64, event native.Event) native.Status {
	e := event.(*fakeEvent)
	if f.completed >= value {
		e.signal()
		return native.StatusOK
	}
	f.pending = append(f.pending, pendingWait{value: value, event: e})
	return native.StatusOK
}

func (f *fakeFence) complete(value uint64) {
	if value > f.completed {
		f.completed = value
	}
	remaining := f.pending[:0]
	for _, p := range f.pending {
		if p.value <= f.completed {
			p.event.signal()
		} else {
			remaining = append(remaining, p)
		}
	}
	f.pending = remaining
}

type fakeAllocator struct {
	fakeObject
	resets    int
	debugName string
}

func (a *fakeAllocator) Reset() native.Status {
	a.resets++
	return native.StatusOK
}

func (a *fakeAllocator) SetName(name string) {
	a.debugName = name
}

type fakeCommandList struct {
	fakeObject
	closed         bool
	resets         int
	barrierBatches [][]native.ResourceBarrier
	clearColors    [][4]float32
	depthClears    int
	targetSets     int
	viewports      []native.Viewport
	scissors       []native.Rect
}

func (l *fakeCommandList) Reset(allocator native.CommandAllocator) native.Status {
	l.closed = false
	l.resets++
	return native.StatusOK
}

func (l *fakeCommandList) Close() native.Status {
	if l.closed {
		return native.StatusFail
	}
	l.closed = true
	return native.StatusOK
}

func (l *fakeCommandList) ResourceBarrier(barriers []native.ResourceBarrier) {
	batch := make([]native.ResourceBarrier, len(barriers))
	copy(batch, barriers)
	l.barrierBatches = append(l.barrierBatches, batch)
}

func (l *fakeCommandList) ClearRenderTargetView(view native.CPUDescriptor, color [4]float32) {
	l.clearColors = append(l.clearColors, color)
}

func (l *fakeCommandList) ClearDepthStencilView(view native.CPUDescriptor, depth float32, stencil uint8) {
	l.depthClears++
}

func (l *fakeCommandList) SetRenderTargets(rtv native.CPUDescriptor, dsv native.CPUDescriptor) {
	l.targetSets++
}

func (l *fakeCommandList) SetViewports(viewport native.Viewport) {
	l.viewports = append(l.viewports, viewport)
}

func (l *fakeCommandList) SetScissorRects(rect native.Rect) {
	l.scissors = append(l.scissors, rect)
}

type fakeDescriptorHeap struct {
	fakeObject
	start uint64
}

func (h *fakeDescriptorHeap) Start() native.CPUDescriptor {
	return native.CPUDescriptor{Ptr: h.start}
}

type fakeResource struct {
	fakeObject
	debugName string
}

func (r *fakeResource) SetName(name string) {
	r.debugName = name
}

type fakeSwapChain struct {
	fakeObject
	bufferCount uint32
	width       uint32
	height      uint32
	index       uint32
	buffers     []*fakeResource
	presents    int
	resizes     int

	// presentStatuses are consumed front-first by Present before the
	// default success.
	presentStatuses []native.Status
	resizeStatus    native.Status
	lastSync        uint32
	lastFlags       uint32

	hdrSupport map[native.ColorSpace]bool
	colorSpace native.ColorSpace
}

func newFakeSwapChain(desc native.SwapChainDesc) *fakeSwapChain {
	sc := &fakeSwapChain{
		fakeObject:  newFakeObject("swapchain"),
		bufferCount: desc.BufferCount,
		width:       desc.Width,
		height:      desc.Height,
	}
	sc.buffers = makeFakeBuffers(desc.BufferCount)
	return sc
}

func makeFakeBuffers(count uint32) []*fakeResource {
	buffers := make([]*fakeResource, count)
	for i := range buffers {
		buffers[i] = &fakeResource{fakeObject: newFakeObject("back buffer")}
	}
	return buffers
}

// Release drops the swapchain's own reference to its buffers once the last
// external reference goes away, like the real DXGI object does.
func (s *fakeSwapChain) Release() uint32 {
	refs := s.fakeObject.Release()
	if refs == 0 {
		for _, b := range s.buffers {
			b.fakeObject.Release()
		}
	}
	return refs
}

func (s *fakeSwapChain) injectPresentStatus(status native.Status) {
	s.presentStatuses = append(s.presentStatuses, status)
}

func (s *fakeSwapChain) Present(syncInterval uint32, flags uint32) native.Status {
	s.lastSync = syncInterval
	s.lastFlags = flags
	if len(s.presentStatuses) > 0 {
		status := s.presentStatuses[0]
		s.presentStatuses = s.presentStatuses[1:]
		if status.Failed() {
			return status
		}
	}
	s.presents++
	s.index = (s.index + 1) % s.bufferCount
	return native.StatusOK
}

func (s *fakeSwapChain) ResizeBuffers(bufferCount, width, height uint32, format native.Format, flags uint32) native.Status {
	if s.resizeStatus.Failed() {
		return s.resizeStatus
	}
	// DXGI refuses to resize while back-buffer references are outstanding.
	for _, b := range s.buffers {
		if b.refs != 1 {
			return native.StatusInvalidArg
		}
		b.fakeObject.Release()
	}
	s.bufferCount = bufferCount
	s.width = width
	s.height = height
	s.buffers = makeFakeBuffers(bufferCount)
	s.index = 0
	s.resizes++
	return native.StatusOK
}

func (s *fakeSwapChain) CurrentBackBufferIndex() uint32 {
	return s.index
}

func (s *fakeSwapChain) Buffer(index uint32) (native.Resource, native.Status) {
	if int(index) >= len(s.buffers) {
		return nil, native.StatusInvalidArg
	}
	b := s.buffers[index]
	b.AddRef()
	return b, native.StatusOK
}

func (s *fakeSwapChain) QueryInterface(iid native.GUID) (native.Unknown, native.Status) {
	if iid == native.IIDSwapChain3 {
		return &fakeSwapChain3{fakeObject: newFakeObject("swapchain3"), parent: s}, native.StatusOK
	}
	return nil, native.StatusNoInterface
}

type fakeSwapChain3 struct {
	fakeObject
	parent *fakeSwapChain
}

func (s *fakeSwapChain3) CheckColorSpaceSupport(colorSpace native.ColorSpace) (bool, native.Status) {
	return s.parent.hdrSupport[colorSpace], native.StatusOK
}

func (s *fakeSwapChain3) SetColorSpace(colorSpace native.ColorSpace) native.Status {
	s.parent.colorSpace = colorSpace
	return native.StatusOK
}
