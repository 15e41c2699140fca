package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// checkTearingSupport queries the factory for variable-refresh-rate display
// support. A factory without the capability interface simply means no
// tearing.
func checkTearingSupport(factory *ComPtr[native.Factory], log core.Logger) bool {
	factory5, err := Cast[native.Factory5](factory, native.IIDFactory5)
	if err != nil {
		log.Warnf("Variable refresh rate displays not supported: %s", err)
		return false
	}
	defer factory5.Release()

	if !factory5.Get().SupportsTearing() {
		log.Warnf("Variable refresh rate displays not supported.")
		return false
	}
	log.Infof("Variable refresh rate displays supported.")
	return true
}

// SwapChain wraps the native swapchain plus the negotiated output
// colorspace.
type SwapChain struct {
	ptr        ComPtr[native.SwapChain]
	colorSpace native.ColorSpace
	log        core.Logger
}

func newSwapChain(factory native.Factory, queue native.CommandQueue, windowHandle uintptr, desc native.SwapChainDesc, log core.Logger) (*SwapChain, error) {
	sc, status := factory.CreateSwapChain(queue, windowHandle, desc)
	if status.Failed() {
		err := fmt.Errorf("failed to create swapchain: %w", native.Check("IDXGIFactory2::CreateSwapChainForHwnd", status))
		log.Errorf(err.Error())
		return nil, err
	}
	// The engine handles fullscreen transitions itself.
	if status := factory.MakeWindowAssociation(windowHandle, native.MakeWindowAssociationNoAltEnter); status.Failed() {
		log.Warnf("MakeWindowAssociation failed with status %s", status)
	}
	return &SwapChain{
		ptr:        Own(sc),
		colorSpace: native.ColorSpaceRGBFullG22NoneP709,
		log:        log,
	}, nil
}

// ComputeColorSpace picks the output colorspace for the back-buffer format
// and applies it to the swapchain. HDR is only engaged when requested and
// the format carries the precision for it; a swapchain without the
// colorspace interface, or without support for the candidate, falls back to
// sRGB.
func (s *SwapChain) ComputeColorSpace(format native.Format, enableHDR bool) native.ColorSpace {
	colorSpace := native.ColorSpaceRGBFullG22NoneP709
	if enableHDR {
		switch format {
		case native.FormatR16G16B16A16Float:
			// FP16 scRGB.
			colorSpace = native.ColorSpaceRGBFullG10NoneP709
		case native.FormatR10G10B10A2Unorm:
			// HDR10 ST.2084.
			colorSpace = native.ColorSpaceRGBFullG2084NoneP2020
		}
	}

	s.colorSpace = native.ColorSpaceRGBFullG22NoneP709
	if colorSpace == native.ColorSpaceRGBFullG22NoneP709 {
		return s.colorSpace
	}

	sc3, err := Cast[native.SwapChain3](&s.ptr, native.IIDSwapChain3)
	if err != nil {
		s.log.Warnf("HDR output requested but colorspace selection is unavailable: %s", err)
		return s.colorSpace
	}
	defer sc3.Release()

	supported, status := sc3.Get().CheckColorSpaceSupport(colorSpace)
	if status.Failed() || !supported {
		s.log.Warnf("Colorspace %d not supported by the swapchain, staying on sRGB.", colorSpace)
		return s.colorSpace
	}
	if status := sc3.Get().SetColorSpace(colorSpace); status.Failed() {
		s.log.Warnf("SetColorSpace1 failed with status %s, staying on sRGB.", status)
		return s.colorSpace
	}
	s.colorSpace = colorSpace
	s.log.Infof("Swapchain colorspace set to %d.", colorSpace)
	return s.colorSpace
}

func (s *SwapChain) Present(syncInterval uint32, flags uint32) native.Status {
	return s.ptr.Get().Present(syncInterval, flags)
}

func (s *SwapChain) ResizeBuffers(bufferCount, width, height uint32, format native.Format, flags uint32) native.Status {
	return s.ptr.Get().ResizeBuffers(bufferCount, width, height, format, flags)
}

func (s *SwapChain) CurrentBackBufferIndex() uint32 {
	return s.ptr.Get().CurrentBackBufferIndex()
}

// Buffer returns an owning reference to back buffer index.
func (s *SwapChain) Buffer(index uint32) (native.Resource, error) {
	resource, status := s.ptr.Get().Buffer(index)
	if status.Failed() {
		return nil, native.Check("IDXGISwapChain::GetBuffer", status)
	}
	return resource, nil
}

// ColorSpace returns the colorspace applied by the last ComputeColorSpace.
func (s *SwapChain) ColorSpace() native.ColorSpace {
	return s.colorSpace
}

func (s *SwapChain) Release() {
	s.ptr.Release()
}
