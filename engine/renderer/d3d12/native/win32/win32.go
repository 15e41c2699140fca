//go:build windows

// Package win32 implements the native boundary with vtable-dispatch
// syscalls against d3d12.dll and dxgi.dll. No cgo; COM methods are invoked
// through raw vtable slots, with the Go runtime mirroring the first four
// arguments into XMM registers so FLOAT parameters land where the win64
// ABI expects them.
package win32

import (
	"syscall"
	"unsafe"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

var (
	modD3D12 = syscall.NewLazyDLL("d3d12.dll")
	modDXGI  = syscall.NewLazyDLL("dxgi.dll")

	procD3D12CreateDevice      = modD3D12.NewProc("D3D12CreateDevice")
	procD3D12GetDebugInterface = modD3D12.NewProc("D3D12GetDebugInterface")
	procCreateDXGIFactory2     = modDXGI.NewProc("CreateDXGIFactory2")
)

// Interface identifiers the implementation creates objects with. The
// optional-capability identifiers live in the native package.
var (
	iidDXGIFactory4            = native.GUID{Data1: 0x1bc6ea02, Data2: 0xef36, Data3: 0x464f, Data4: [8]byte{0xbf, 0x0c, 0x21, 0xca, 0x39, 0xe5, 0x16, 0x8a}}
	iidDXGIAdapter1            = native.GUID{Data1: 0x29038f61, Data2: 0x3839, Data3: 0x4626, Data4: [8]byte{0x91, 0xfd, 0x08, 0x68, 0x79, 0x01, 0x1a, 0x05}}
	iidD3D12Device             = native.GUID{Data1: 0x189819f1, Data2: 0x1db6, Data3: 0x4b57, Data4: [8]byte{0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7}}
	iidD3D12Resource           = native.GUID{Data1: 0x696442be, Data2: 0xa72e, Data3: 0x4059, Data4: [8]byte{0xbc, 0x79, 0x5b, 0x5c, 0x98, 0x04, 0x0f, 0xad}}
	iidD3D12Fence              = native.GUID{Data1: 0x0a753dcf, Data2: 0xc4d8, Data3: 0x4b91, Data4: [8]byte{0xad, 0xf6, 0xbe, 0x5a, 0x60, 0xd9, 0x5a, 0x76}}
	iidD3D12CommandQueue       = native.GUID{Data1: 0x0ec870a6, Data2: 0x5d7e, Data3: 0x4c22, Data4: [8]byte{0x8c, 0xfc, 0x5b, 0xaa, 0xe0, 0x76, 0x16, 0xed}}
	iidD3D12CommandAllocator   = native.GUID{Data1: 0x6102dee4, Data2: 0xaf59, Data3: 0x4b09, Data4: [8]byte{0xb9, 0x99, 0xb4, 0x4d, 0x73, 0xf0, 0x9b, 0x24}}
	iidD3D12GraphicsCommandLst = native.GUID{Data1: 0x5b160d0f, Data2: 0xac1b, Data3: 0x4185, Data4: [8]byte{0x8b, 0xa8, 0xb3, 0xae, 0x42, 0xa5, 0xa4, 0x55}}
	iidD3D12DescriptorHeap     = native.GUID{Data1: 0x8efb471d, Data2: 0x616c, Data3: 0x4f49, Data4: [8]byte{0x90, 0xf7, 0x12, 0x7b, 0xb7, 0x63, 0xfa, 0x51}}
	iidD3D12Debug              = native.GUID{Data1: 0x344488b7, Data2: 0x6846, Data3: 0x474b, Data4: [8]byte{0xb9, 0x89, 0xf0, 0x27, 0x44, 0x82, 0x45, 0xe0}}
)

const createFactoryDebugFlag uint32 = 0x1

// Interop exposes the module entry points of d3d12.dll and dxgi.dll.
type Interop struct{}

// NewInterop returns the live runtime boundary. The DLLs load lazily on
// first use.
func NewInterop() *Interop {
	return &Interop{}
}

// EnableDebugLayer obtains ID3D12Debug and turns the debug layer on.
// Returns false when the debug runtime (graphics tools) is not installed.
func (i *Interop) EnableDebugLayer() bool {
	var debug uintptr
	hr, _, _ := procD3D12GetDebugInterface.Call(
		uintptr(unsafe.Pointer(&iidD3D12Debug)),
		uintptr(unsafe.Pointer(&debug)),
	)
	if native.Status(hr).Failed() {
		return false
	}
	obj := comObject{ptr: debug}
	obj.call(3) // ID3D12Debug::EnableDebugLayer
	obj.Release()
	return true
}

func (i *Interop) CreateFactory(debug bool) (native.Factory, native.Status) {
	var flags uint32
	if debug {
		flags = createFactoryDebugFlag
	}
	var out uintptr
	hr, _, _ := procCreateDXGIFactory2.Call(
		uintptr(flags),
		uintptr(unsafe.Pointer(&iidDXGIFactory4)),
		uintptr(unsafe.Pointer(&out)),
	)
	if status := native.Status(hr); status.Failed() {
		return nil, status
	}
	return &factory{comObject{ptr: out}}, native.StatusOK
}

func (i *Interop) CreateDevice(adapter native.Adapter, minFeatureLevel native.FeatureLevel) (native.Device, native.Status) {
	var out uintptr
	hr, _, _ := procD3D12CreateDevice.Call(
		adapter.Ptr(),
		uintptr(minFeatureLevel),
		uintptr(unsafe.Pointer(&iidD3D12Device)),
		uintptr(unsafe.Pointer(&out)),
	)
	if status := native.Status(hr); status.Failed() {
		return nil, status
	}
	return &device{comObject{ptr: out}}, native.StatusOK
}
