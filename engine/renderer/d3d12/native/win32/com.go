//go:build windows

package win32

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// comObject is the base of every wrapper: a raw interface pointer plus
// vtable dispatch. IUnknown occupies slots 0..2.
type comObject struct {
	ptr uintptr
}

func (o comObject) call(slot uintptr, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(o.ptr))
	proc := *(*uintptr)(unsafe.Pointer(vtbl + slot*unsafe.Sizeof(uintptr(0))))
	full := make([]uintptr, 0, len(args)+1)
	full = append(full, o.ptr)
	full = append(full, args...)
	r, _, _ := syscall.SyscallN(proc, full...)
	return r
}

func (o comObject) Ptr() uintptr {
	return o.ptr
}

func (o comObject) AddRef() uint32 {
	return uint32(o.call(1))
}

func (o comObject) Release() uint32 {
	return uint32(o.call(2))
}

// QueryInterface performs the native QI and wraps the result for the
// identifiers the engine knows. An interface the runtime supports but the
// engine has no wrapper for is released again and reported as
// StatusNoInterface.
func (o comObject) QueryInterface(iid native.GUID) (native.Unknown, native.Status) {
	var out uintptr
	status := native.Status(o.call(0, uintptr(unsafe.Pointer(&iid)), uintptr(unsafe.Pointer(&out))))
	if status.Failed() {
		return nil, status
	}
	wrapped := wrapForIID(iid, out)
	if wrapped == nil {
		comObject{ptr: out}.Release()
		return nil, native.StatusNoInterface
	}
	return wrapped, native.StatusOK
}

func wrapForIID(iid native.GUID, ptr uintptr) native.Unknown {
	switch iid {
	case native.IIDFactory5:
		return &factory5{comObject{ptr: ptr}}
	case native.IIDSwapChain3:
		return &swapChain3{comObject{ptr: ptr}}
	case native.IIDInfoQueue:
		return &infoQueue{comObject{ptr: ptr}}
	case iidDXGIFactory4:
		return &factory{comObject{ptr: ptr}}
	case iidD3D12Device:
		return &device{comObject{ptr: ptr}}
	case iidD3D12Resource:
		return &resource{comObject{ptr: ptr}}
	default:
		return nil
	}
}

// setName assigns the D3D12 debug name on any ID3D12Object (slot 6).
func (o comObject) setName(name string) {
	wide, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return
	}
	o.call(6, uintptr(unsafe.Pointer(wide)))
}
