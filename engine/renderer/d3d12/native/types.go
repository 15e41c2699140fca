package native

// Format mirrors DXGI_FORMAT for the pixel formats the engine recognizes.
type Format uint32

const (
	FormatUnknown           Format = 0
	FormatR16G16B16A16Float Format = 10
	FormatR10G10B10A2Unorm  Format = 24
	FormatR8G8B8A8Unorm     Format = 28
	FormatR8G8B8A8UnormSRGB Format = 29
	FormatD32Float          Format = 40
	FormatD24UnormS8Uint    Format = 45
	FormatB8G8R8A8Unorm     Format = 87
	FormatB8G8R8A8UnormSRGB Format = 91
)

// NoSRGB maps an sRGB back-buffer format to its linear equivalent; flip-model
// swapchains reject sRGB formats at creation.
func (f Format) NoSRGB() Format {
	switch f {
	case FormatR8G8B8A8UnormSRGB:
		return FormatR8G8B8A8Unorm
	case FormatB8G8R8A8UnormSRGB:
		return FormatB8G8R8A8Unorm
	default:
		return f
	}
}

// FeatureLevel mirrors D3D_FEATURE_LEVEL.
type FeatureLevel uint32

const (
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
	FeatureLevel12_0 FeatureLevel = 0xc000
	FeatureLevel12_1 FeatureLevel = 0xc100
)

type CommandListType uint32

const (
	CommandListTypeDirect  CommandListType = 0
	CommandListTypeBundle  CommandListType = 1
	CommandListTypeCompute CommandListType = 2
	CommandListTypeCopy    CommandListType = 3
)

type DescriptorHeapType uint32

const (
	DescriptorHeapTypeCBVSRVUAV DescriptorHeapType = 0
	DescriptorHeapTypeSampler   DescriptorHeapType = 1
	DescriptorHeapTypeRTV       DescriptorHeapType = 2
	DescriptorHeapTypeDSV       DescriptorHeapType = 3
)

// ResourceState mirrors D3D12_RESOURCE_STATES for the states the core
// tracks.
type ResourceState uint32

const (
	ResourceStateCommon       ResourceState = 0
	ResourceStatePresent      ResourceState = 0
	ResourceStateRenderTarget ResourceState = 0x4
	ResourceStateDepthWrite   ResourceState = 0x10
	ResourceStateCopyDest     ResourceState = 0x400
	ResourceStateCopySource   ResourceState = 0x800
	ResourceStateGenericRead  ResourceState = 0xAC3
)

// ColorSpace mirrors DXGI_COLOR_SPACE_TYPE for the colorspaces the engine
// negotiates.
type ColorSpace uint32

const (
	// sRGB, the baseline.
	ColorSpaceRGBFullG22NoneP709 ColorSpace = 0
	// scRGB, linear FP16 HDR.
	ColorSpaceRGBFullG10NoneP709 ColorSpace = 1
	// HDR10 ST.2084.
	ColorSpaceRGBFullG2084NoneP2020 ColorSpace = 12
)

// Present and swapchain flags.
const (
	PresentAllowTearing       uint32 = 0x200
	SwapChainFlagAllowTearing uint32 = 0x800

	// MWA_NO_ALT_ENTER; the engine handles fullscreen transitions itself.
	MakeWindowAssociationNoAltEnter uint32 = 0x2
)

type MessageSeverity uint32

const (
	MessageSeverityCorruption MessageSeverity = 0
	MessageSeverityError      MessageSeverity = 1
	MessageSeverityWarning    MessageSeverity = 2
	MessageSeverityInfo       MessageSeverity = 3
)

// Debug-layer message ids the engine hides; all four are benign artifacts of
// clearing swapchain buffers.
const (
	MessageIDClearRenderTargetMismatchingClearValue uint32 = 820
	MessageIDMapInvalidNullRange                    uint32 = 485
	MessageIDUnmapInvalidNullRange                  uint32 = 486
	MessageIDExecuteWrongSwapchainBufferReference   uint32 = 974
)

// ResourceBarrier declares a usage-state transition for one resource.
type ResourceBarrier struct {
	Resource Resource
	Before   ResourceState
	After    ResourceState
}

type Viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type SwapChainDesc struct {
	Width        uint32
	Height       uint32
	Format       Format
	BufferCount  uint32
	AllowTearing bool
}
