package gpu

import (
	"fmt"

	"github.com/google/uuid"
)

// Handle identifies an object owned by a backend. The zero Handle is the
// null handle.
type Handle uint64

type (
	DebugMessenger Handle
	Surface        Handle
	PhysicalDevice Handle
	Queue          Handle
	Swapchain      Handle
	Image          Handle
	ImageView      Handle
	ShaderModule   Handle
	RenderPass     Handle
	PipelineLayout Handle
	Pipeline       Handle
	Framebuffer    Handle
	CommandPool    Handle
	CommandBuffer  Handle
	Semaphore      Handle
	Fence          Handle
)

// Format values match VkFormat so backends can convert by cast.
type Format int32

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8UNorm Format = 37
	FormatR8G8B8A8SRGB  Format = 43
	FormatB8G8R8A8UNorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "Undefined"
	case FormatR8G8B8A8UNorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8UNorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8SRGB:
		return "B8G8R8A8_SRGB"
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// ColorSpace values match VkColorSpaceKHR.
type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear         ColorSpace = 0
	ColorSpaceExtendedSRGBLinear    ColorSpace = 1000104002
	ColorSpaceDisplayP3Nonlinear    ColorSpace = 1000104001
	ColorSpaceExtendedSRGBNonlinear ColorSpace = 1000104014
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGBNonlinear:
		return "SRGB_NONLINEAR"
	case ColorSpaceExtendedSRGBLinear:
		return "EXTENDED_SRGB_LINEAR"
	case ColorSpaceDisplayP3Nonlinear:
		return "DISPLAY_P3_NONLINEAR"
	case ColorSpaceExtendedSRGBNonlinear:
		return "EXTENDED_SRGB_NONLINEAR"
	}
	return fmt.Sprintf("ColorSpace(%d)", int32(c))
}

// PresentMode values match VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFORelaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

type SharingMode int

const (
	SharingModeExclusive SharingMode = iota
	SharingModeConcurrent
)

func (m SharingMode) String() string {
	if m == SharingModeConcurrent {
		return "Concurrent"
	}
	return "Exclusive"
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

type QueueFamilyProperties struct {
	QueueFlags QueueFlags
	QueueCount int
}

type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "IntegratedGPU"
	case DeviceTypeDiscreteGPU:
		return "DiscreteGPU"
	case DeviceTypeVirtualGPU:
		return "VirtualGPU"
	case DeviceTypeCPU:
		return "CPU"
	}
	return "Other"
}

type PhysicalDeviceProperties struct {
	DeviceName        string
	DeviceType        DeviceType
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID
}

// ExtentUndefined in SurfaceCapabilities.CurrentExtent means the surface
// size is determined by the swapchain extent.
const ExtentUndefined = -1

type Extent2D struct {
	Width  int
	Height int
}

func (e Extent2D) Defined() bool {
	return e.Width != ExtentUndefined
}

type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
	// CurrentTransform is passed through to swapchain creation untouched.
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

func (f SurfaceFormat) String() string {
	return fmt.Sprintf("%s/%s", f.Format, f.ColorSpace)
}
