package d3d12

import (
	"fmt"

	"github.com/matteomeli/adamant/engine/core"
	"github.com/matteomeli/adamant/engine/renderer/d3d12/native"
)

// featureLevelLadder is probed highest-first after device creation.
var featureLevelLadder = []native.FeatureLevel{
	native.FeatureLevel12_1,
	native.FeatureLevel12_0,
	native.FeatureLevel11_1,
	native.FeatureLevel11_0,
}

// createDevice walks the factory's hardware adapters, skipping software
// rasterizers, and creates a device on the first adapter that supports
// minFeatureLevel. When no hardware adapter qualifies it falls back to the
// WARP software adapter before giving up, so callers get a typed error
// rather than an abort.
func createDevice(interop native.Interop, factory native.Factory, minFeatureLevel native.FeatureLevel, log core.Logger) (ComPtr[native.Device], error) {
	for index := uint32(0); ; index++ {
		adapter, status := factory.EnumAdapter(index)
		if status == native.StatusNotFound {
			break
		}
		if status.Failed() {
			return ComPtr[native.Device]{}, native.Check("IDXGIFactory4::EnumAdapters1", status)
		}

		desc := adapter.Desc()
		if desc.Software {
			// Skip the basic render driver; WARP is requested explicitly below.
			adapter.Release()
			continue
		}

		device, status := interop.CreateDevice(adapter, minFeatureLevel)
		adapter.Release()
		if status.Succeeded() {
			log.Infof("Direct3D adapter found: %s (vendor %04X, device %04X, %d MB dedicated)",
				desc.Description, desc.VendorID, desc.DeviceID, desc.DedicatedVideoMemory/(1024*1024))
			return Own(device), nil
		}
	}

	log.Warnf("No hardware adapter supports the minimum feature level, falling back to WARP.")
	adapter, status := factory.EnumWarpAdapter()
	if status.Failed() {
		err := fmt.Errorf("no compatible adapter found: %w", native.Check("IDXGIFactory4::EnumWarpAdapter", status))
		log.Errorf(err.Error())
		return ComPtr[native.Device]{}, err
	}
	device, status := interop.CreateDevice(adapter, minFeatureLevel)
	adapter.Release()
	if status.Failed() {
		err := fmt.Errorf("failed to create device on WARP adapter: %w", native.Check("D3D12CreateDevice", status))
		log.Errorf(err.Error())
		return ComPtr[native.Device]{}, err
	}
	return Own(device), nil
}

// configureDebugDevice tightens the debug-layer info queue: break on
// corruption and error severities, hide a fixed set of benign messages.
// Devices without the interface (debug layer absent) are left untouched.
func configureDebugDevice(device *ComPtr[native.Device], log core.Logger) {
	infoQueue, err := Cast[native.InfoQueue](device, native.IIDInfoQueue)
	if err != nil {
		log.Debugf("info queue unavailable, skipping debug device configuration: %s", err)
		return
	}
	defer infoQueue.Release()

	infoQueue.Get().SetBreakOnSeverity(native.MessageSeverityCorruption, true)
	infoQueue.Get().SetBreakOnSeverity(native.MessageSeverityError, true)
	infoQueue.Get().HideMessages([]uint32{
		native.MessageIDExecuteWrongSwapchainBufferReference,
		native.MessageIDClearRenderTargetMismatchingClearValue,
		native.MessageIDMapInvalidNullRange,
		native.MessageIDUnmapInvalidNullRange,
	})
}
