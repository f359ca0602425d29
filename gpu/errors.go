package gpu

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfDate is returned by AcquireNextImage and QueuePresent when the
	// swapchain no longer matches its surface and must be rebuilt.
	ErrOutOfDate = errors.New("swapchain out of date")
	// ErrSuboptimal is returned by AcquireNextImage and QueuePresent when the
	// operation succeeded but the swapchain no longer matches the surface
	// exactly.
	ErrSuboptimal = errors.New("swapchain suboptimal")
	ErrDeviceLost = errors.New("device lost")
)

const (
	ExtensionSwapchain            = "VK_KHR_swapchain"
	ExtensionDebugUtils           = "VK_EXT_debug_utils"
	ExtensionPortabilityEnumerate = "VK_KHR_portability_enumeration"
	ExtensionPortabilitySubset    = "VK_KHR_portability_subset"
	LayerKhronosValidation        = "VK_LAYER_KHRONOS_validation"
)
