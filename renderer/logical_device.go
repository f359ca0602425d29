package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

type LogicalDevice struct {
	Device        gpu.Device
	GraphicsQueue gpu.Queue
	PresentQueue  gpu.Queue
	Queues        QueueFamilyIndices
}

func queueCreateInfos(queues QueueFamilyIndices) []gpu.DeviceQueueCreateInfo {
	var infos []gpu.DeviceQueueCreateInfo
	for _, family := range queues.Unique() {
		infos = append(infos, gpu.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}
	return infos
}

// CreateLogicalDevice opens one queue per distinct family of the selection
// and enables cfg.DeviceExtensions. Devices that advertise the portability
// subset get it enabled as well.
func CreateLogicalDevice(ctx *Context, sel *DeviceSelection, cfg Config, t *Teardown) (*LogicalDevice, error) {
	info := gpu.DeviceCreateInfo{
		QueueCreateInfos:      queueCreateInfos(sel.Queues),
		EnabledExtensionNames: append([]string(nil), cfg.DeviceExtensions...),
	}

	if _, ok := sel.Extensions[gpu.ExtensionPortabilitySubset]; ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, gpu.ExtensionPortabilitySubset)
	}

	// Device layers are deprecated but older loaders still read them.
	if ctx.ValidationEnabled() {
		info.EnabledLayerNames = append([]string(nil), ctx.validationLayers...)
	}

	device, err := ctx.Instance.CreateDevice(sel.PhysicalDevice, info)
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	ld := &LogicalDevice{
		Device: device,
		Queues: sel.Queues,
	}
	t.Defer("logical device", func() {
		ld.Device.Destroy()
	})

	ld.GraphicsQueue = device.GetQueue(sel.Queues.Graphics, 0)
	ld.PresentQueue = device.GetQueue(sel.Queues.Present, 0)

	ctx.log.Debug("logical device created",
		slog.Int("graphics_family", sel.Queues.Graphics),
		slog.Int("present_family", sel.Queues.Present),
		slog.Any("extensions", info.EnabledExtensionNames))
	return ld, nil
}
