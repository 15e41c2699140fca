//go:build !windows

package platform

// WindowHandle is only meaningful on Windows, where the renderer needs the
// HWND for swapchain creation.
func (p *Platform) WindowHandle() uintptr {
	return 0
}
