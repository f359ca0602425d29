package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sagitario/engine/gpu"
)

// MaxFramesInFlight is the default frame-pipelining depth.
const MaxFramesInFlight = 2

type Config struct {
	ApplicationName string
	EngineName      string

	// Validation enables the validation layers and the diagnostics sink.
	Validation       bool
	ValidationLayers []string

	// DeviceExtensions must all be present for a device to be selected.
	DeviceExtensions []string

	// FramesInFlight is the number of frames the CPU may submit before
	// waiting for the GPU. It sizes the per-frame synchronization sets.
	FramesInFlight int

	ClearColor mgl32.Vec4
}

func DefaultConfig() Config {
	return Config{
		ApplicationName:  "Sagitario Engine",
		EngineName:       "SagitarioEngine",
		ValidationLayers: []string{gpu.LayerKhronosValidation},
		DeviceExtensions: []string{gpu.ExtensionSwapchain},
		FramesInFlight:   MaxFramesInFlight,
		ClearColor:       mgl32.Vec4{0, 0, 0, 1},
	}
}

func (c Config) Validate() error {
	if c.FramesInFlight < 1 {
		return errors.Wrapf(ErrInvalidConfig, "frames in flight must be at least 1, got %d", c.FramesInFlight)
	}

	hasSwapchain := false
	for _, ext := range c.DeviceExtensions {
		if ext == gpu.ExtensionSwapchain {
			hasSwapchain = true
		}
	}
	if !hasSwapchain {
		return errors.Wrapf(ErrInvalidConfig, "device extensions must include %s", gpu.ExtensionSwapchain)
	}

	if c.Validation && len(c.ValidationLayers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "validation enabled without any validation layers")
	}

	for i, component := range c.ClearColor {
		if component < 0 || component > 1 {
			return errors.Wrapf(ErrInvalidConfig, "clear color component %d out of range: %v", i, component)
		}
	}

	return nil
}
