//go:build windows

package win32

import (
	"golang.org/x/sys/windows"

	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// event wraps a Win32 auto-reset event handle for fence waits.
type event struct {
	handle windows.Handle
}

func (i *Interop) NewEvent() (native.Event, native.Status) {
	handle, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, native.StatusFail
	}
	return &event{handle: handle}, native.StatusOK
}

func (e *event) Wait(timeoutMS uint32) native.WaitStatus {
	result, err := windows.WaitForSingleObject(e.handle, timeoutMS)
	switch {
	case err == nil && result == windows.WAIT_OBJECT_0:
		return native.WaitSignaled
	case result == uint32(windows.WAIT_TIMEOUT):
		return native.WaitTimedOut
	default:
		return native.WaitFailed
	}
}

func (e *event) Close() {
	windows.CloseHandle(e.handle)
}
