//go:build windows

package renderer

import (
	"github.com/matteomeli/adamant/engine/platform"
	"github.com/matteomeli/adamant/engine/renderer/d3d12"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native/win32"
)

func newBackend(config Config, platform *platform.Platform) (RendererBackend, error) {
	params := d3d12.Params{
		WindowHandle:     platform.WindowHandle(),
		BackBufferCount:  config.BackBufferCount,
		EnableDebugLayer: config.EnableValidation,
	}
	if config.AllowTearing {
		params.Flags |= d3d12.InitFlagAllowTearing
	}
	if config.EnableHDR {
		params.Flags |= d3d12.InitFlagEnableHDR
		params.BackBufferFormat = native.FormatR10G10B10A2Unorm
	}
	return d3d12.NewBackend(win32.NewInterop(), params), nil
}
