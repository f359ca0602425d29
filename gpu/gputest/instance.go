package gputest

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

type instance struct {
	b *Backend
	h gpu.Handle
}

func (i *instance) CreateDebugMessenger(info gpu.DebugMessengerCreateInfo) (gpu.DebugMessenger, error) {
	h, err := i.b.create("CreateDebugMessenger", "messenger")
	if err != nil {
		return 0, err
	}
	if info.Callback != nil {
		i.b.callbacks = append(i.b.callbacks, info.Callback)
	}
	return gpu.DebugMessenger(h), nil
}

func (i *instance) DestroyDebugMessenger(messenger gpu.DebugMessenger) {
	if messenger != 0 {
		i.b.callbacks = nil
	}
	i.b.destroy("DestroyDebugMessenger", "messenger", gpu.Handle(messenger))
}

func (i *instance) CreateSurface(window gpu.Window) (gpu.Surface, error) {
	if window == nil {
		return 0, errors.New("gputest: nil window")
	}
	h, err := i.b.create("CreateSurface", "surface")
	return gpu.Surface(h), err
}

func (i *instance) DestroySurface(surface gpu.Surface) {
	i.b.destroy("DestroySurface", "surface", gpu.Handle(surface))
}

func (i *instance) EnumeratePhysicalDevices() ([]gpu.PhysicalDevice, error) {
	i.b.record("EnumeratePhysicalDevices", 0)
	if err := i.b.Fail["EnumeratePhysicalDevices"]; err != nil {
		return nil, err
	}
	devices := make([]gpu.PhysicalDevice, 0, len(i.b.PhysicalDevices))
	for idx := range i.b.PhysicalDevices {
		// Physical devices are not owned objects, so they stay out of the
		// live table.
		h := gpu.PhysicalDevice(1000000 + idx)
		i.b.physical[h] = idx
		devices = append(devices, h)
	}
	return devices, nil
}

func (i *instance) lookup(device gpu.PhysicalDevice) (*PhysicalDevice, error) {
	idx, ok := i.b.physical[device]
	if !ok {
		return nil, errors.Newf("gputest: unknown physical device %d", device)
	}
	return &i.b.PhysicalDevices[idx], nil
}

func (i *instance) PhysicalDeviceProperties(device gpu.PhysicalDevice) (gpu.PhysicalDeviceProperties, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return gpu.PhysicalDeviceProperties{}, err
	}
	return pd.Properties, nil
}

func (i *instance) QueueFamilyProperties(device gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	pd, err := i.lookup(device)
	if err != nil {
		return nil
	}
	return pd.QueueFamilies
}

func (i *instance) DeviceExtensions(device gpu.PhysicalDevice) (map[string]struct{}, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return nil, err
	}
	if pd.QueryErr != nil {
		return nil, pd.QueryErr
	}
	return set(pd.Extensions), nil
}

func (i *instance) SurfaceSupport(device gpu.PhysicalDevice, surface gpu.Surface, queueFamily int) (bool, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return false, err
	}
	if pd.QueryErr != nil {
		return false, pd.QueryErr
	}
	if _, ok := i.b.live[gpu.Handle(surface)]; !ok {
		return false, errors.Newf("gputest: surface %d is not alive", surface)
	}
	for _, family := range pd.PresentFamilies {
		if family == queueFamily {
			return true, nil
		}
	}
	return false, nil
}

func (i *instance) SurfaceCapabilities(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	if pd.QueryErr != nil {
		return gpu.SurfaceCapabilities{}, pd.QueryErr
	}
	return pd.Capabilities, nil
}

func (i *instance) SurfaceFormats(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return nil, err
	}
	if pd.QueryErr != nil {
		return nil, pd.QueryErr
	}
	return pd.Formats, nil
}

func (i *instance) SurfacePresentModes(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	pd, err := i.lookup(device)
	if err != nil {
		return nil, err
	}
	if pd.QueryErr != nil {
		return nil, pd.QueryErr
	}
	return pd.PresentModes, nil
}

func (i *instance) CreateDevice(physicalDevice gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	if _, err := i.lookup(physicalDevice); err != nil {
		return nil, err
	}
	h, err := i.b.create("CreateDevice", "device")
	if err != nil {
		return nil, err
	}
	i.b.DeviceInfo = info
	return &device{b: i.b, h: h}, nil
}

func (i *instance) Destroy() {
	if children := i.b.liveOf("messenger", "surface", "device"); len(children) > 0 {
		i.b.violate("DestroyInstance: children still alive: %v", children)
	}
	i.b.destroy("DestroyInstance", "instance", i.h)
}
