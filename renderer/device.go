package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// SwapchainSupport is what a surface reports for one physical device.
type SwapchainSupport struct {
	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode
}

// DeviceSelection is the chosen physical device and what was learned about
// it while checking suitability.
type DeviceSelection struct {
	PhysicalDevice gpu.PhysicalDevice
	Properties     gpu.PhysicalDeviceProperties
	Queues         QueueFamilyIndices
	Extensions     map[string]struct{}
	Support        SwapchainSupport
}

// QuerySwapchainSupport asks the surface what it supports on device.
func (c *Context) QuerySwapchainSupport(device gpu.PhysicalDevice) (SwapchainSupport, error) {
	var support SwapchainSupport
	var err error

	support.Capabilities, err = c.Instance.SurfaceCapabilities(device, c.Surface)
	if err != nil {
		return support, errors.Wrap(err, "query surface capabilities")
	}

	support.Formats, err = c.Instance.SurfaceFormats(device, c.Surface)
	if err != nil {
		return support, errors.Wrap(err, "query surface formats")
	}

	support.PresentModes, err = c.Instance.SurfacePresentModes(device, c.Surface)
	if err != nil {
		return support, errors.Wrap(err, "query surface present modes")
	}

	return support, nil
}

// SelectDevice enumerates physical devices and returns the first one that
// passes every suitability check. Rejected devices are logged with the
// reason they were skipped.
func (c *Context) SelectDevice(requiredExtensions []string) (*DeviceSelection, error) {
	devices, err := c.Instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range devices {
		props, err := c.Instance.PhysicalDeviceProperties(device)
		if err != nil {
			c.log.Warn("skipping physical device",
				slog.Uint64("handle", uint64(device)),
				slog.String("reason", errors.Wrap(err, "query physical device properties").Error()))
			continue
		}

		// Any failed check, including a failed query, only rules out this
		// device.
		selection, err := c.checkDevice(device, props, requiredExtensions)
		if err != nil {
			c.log.Warn("skipping physical device",
				slog.String("device", props.DeviceName),
				slog.String("reason", err.Error()))
			continue
		}

		c.log.Info("selected physical device",
			slog.String("device", props.DeviceName),
			slog.String("type", props.DeviceType.String()),
			slog.String("pipeline_cache_uuid", props.PipelineCacheUUID.String()))
		return selection, nil
	}

	return nil, errors.Wrapf(ErrNoSuitableDevice, "checked %d devices", len(devices))
}

func (c *Context) checkDevice(device gpu.PhysicalDevice, props gpu.PhysicalDeviceProperties, requiredExtensions []string) (*DeviceSelection, error) {
	queues, err := c.FindQueueFamilies(device)
	if err != nil {
		return nil, err
	}

	extensions, err := c.Instance.DeviceExtensions(device)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	for _, ext := range requiredExtensions {
		if _, ok := extensions[ext]; !ok {
			return nil, errors.Wrapf(ErrMissingExtension, "%s", ext)
		}
	}

	support, err := c.QuerySwapchainSupport(device)
	if err != nil {
		return nil, err
	}

	if len(support.Formats) == 0 {
		return nil, ErrNoSurfaceFormats
	}
	if len(support.PresentModes) == 0 {
		return nil, ErrNoPresentModes
	}

	return &DeviceSelection{
		PhysicalDevice: device,
		Properties:     props,
		Queues:         queues,
		Extensions:     extensions,
		Support:        support,
	}, nil
}
