//go:build windows

package platform

import "unsafe"

// WindowHandle returns the Win32 HWND backing the GLFW window, for
// swapchain creation.
func (p *Platform) WindowHandle() uintptr {
	if p.Window == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(p.Window.GetWin32Window()))
}
