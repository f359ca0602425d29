package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/internal/handles"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

type Instance struct {
	driver  core1_0.CoreInstanceDriver
	debug   ext_debug_utils.ExtensionDriver
	surface khr_surface.ExtensionDriver

	ids        handles.Counter
	messengers *handles.Registry[ext_debug_utils.DebugUtilsMessenger]
	surfaces   *handles.Registry[khr_surface.Surface]
	physical   *handles.Registry[core1_0.PhysicalDevice]
	// enumerated caches EnumeratePhysicalDevices so repeated calls hand
	// out the same handles.
	enumerated []gpu.PhysicalDevice
}

func newInstance(driver core1_0.CoreInstanceDriver) *Instance {
	i := &Instance{
		driver:  driver,
		surface: khr_surface.CreateExtensionDriverFromCoreDriver(driver),
	}
	i.messengers = handles.NewRegistry[ext_debug_utils.DebugUtilsMessenger](&i.ids)
	i.surfaces = handles.NewRegistry[khr_surface.Surface](&i.ids)
	i.physical = handles.NewRegistry[core1_0.PhysicalDevice](&i.ids)
	return i
}

func (i *Instance) CreateDebugMessenger(info gpu.DebugMessengerCreateInfo) (gpu.DebugMessenger, error) {
	if i.debug == nil {
		i.debug = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.driver)
	}
	messenger, res, err := i.debug.CreateDebugUtilsMessenger(nil, debugUtilsCreateInfo(info))
	if err := check(res, err, "create debug messenger"); err != nil {
		return 0, err
	}
	return gpu.DebugMessenger(i.messengers.Add(messenger)), nil
}

func (i *Instance) DestroyDebugMessenger(messenger gpu.DebugMessenger) {
	if m, ok := i.messengers.Remove(gpu.Handle(messenger)); ok {
		i.debug.DestroyDebugUtilsMessenger(m, nil)
	}
}

// CreateSurface requires a window that exposes its SDL window, such as
// SDLWindow.
func (i *Instance) CreateSurface(window gpu.Window) (gpu.Surface, error) {
	sdlWindow, ok := window.(*SDLWindow)
	if !ok {
		return 0, errors.Newf("create surface: unsupported window type %T", window)
	}
	surface, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surface, sdlWindow.SDL())
	if err != nil {
		return 0, errors.Wrap(err, "create surface")
	}
	return gpu.Surface(i.surfaces.Add(surface)), nil
}

func (i *Instance) DestroySurface(surface gpu.Surface) {
	if s, ok := i.surfaces.Remove(gpu.Handle(surface)); ok {
		i.surface.DestroySurface(s, nil)
	}
}

func (i *Instance) EnumeratePhysicalDevices() ([]gpu.PhysicalDevice, error) {
	if i.enumerated != nil {
		return i.enumerated, nil
	}
	devices, res, err := i.driver.EnumeratePhysicalDevices()
	if err := check(res, err, "enumerate physical devices"); err != nil {
		return nil, err
	}
	out := make([]gpu.PhysicalDevice, 0, len(devices))
	for _, dev := range devices {
		out = append(out, gpu.PhysicalDevice(i.physical.Add(dev)))
	}
	i.enumerated = out
	return out, nil
}

func (i *Instance) physicalDevice(h gpu.PhysicalDevice) (core1_0.PhysicalDevice, error) {
	dev, ok := i.physical.Get(gpu.Handle(h))
	if !ok {
		return dev, unknown("physical device", gpu.Handle(h))
	}
	return dev, nil
}

func (i *Instance) surfaceAndDevice(device gpu.PhysicalDevice, surface gpu.Surface) (core1_0.PhysicalDevice, khr_surface.Surface, error) {
	dev, err := i.physicalDevice(device)
	if err != nil {
		return dev, khr_surface.Surface{}, err
	}
	s, ok := i.surfaces.Get(gpu.Handle(surface))
	if !ok {
		return dev, s, unknown("surface", gpu.Handle(surface))
	}
	return dev, s, nil
}

func (i *Instance) PhysicalDeviceProperties(device gpu.PhysicalDevice) (gpu.PhysicalDeviceProperties, error) {
	dev, err := i.physicalDevice(device)
	if err != nil {
		return gpu.PhysicalDeviceProperties{}, err
	}
	props, err := i.driver.GetPhysicalDeviceProperties(dev)
	if err != nil {
		return gpu.PhysicalDeviceProperties{}, errors.Wrap(err, "physical device properties")
	}
	return gpu.PhysicalDeviceProperties{
		DeviceName:        props.DriverName,
		DeviceType:        gpu.DeviceType(props.DriverType),
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		PipelineCacheUUID: props.PipelineCacheUUID,
	}, nil
}

// QueueFamilyProperties returns nothing for an unknown device.
func (i *Instance) QueueFamilyProperties(device gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	dev, err := i.physicalDevice(device)
	if err != nil {
		return nil
	}
	families := i.driver.GetPhysicalDeviceQueueFamilyProperties(dev)
	out := make([]gpu.QueueFamilyProperties, 0, len(families))
	for _, family := range families {
		out = append(out, gpu.QueueFamilyProperties{
			QueueFlags: gpu.QueueFlags(family.QueueFlags),
			QueueCount: family.QueueCount,
		})
	}
	return out
}

func (i *Instance) DeviceExtensions(device gpu.PhysicalDevice) (map[string]struct{}, error) {
	dev, err := i.physicalDevice(device)
	if err != nil {
		return nil, err
	}
	extensions, res, err := i.driver.EnumerateDeviceExtensionProperties(dev)
	if err := check(res, err, "enumerate device extensions"); err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (i *Instance) SurfaceSupport(device gpu.PhysicalDevice, surface gpu.Surface, queueFamily int) (bool, error) {
	dev, s, err := i.surfaceAndDevice(device, surface)
	if err != nil {
		return false, err
	}
	supported, res, err := i.surface.GetPhysicalDeviceSurfaceSupport(s, dev, queueFamily)
	return supported, check(res, err, "surface support")
}

func (i *Instance) SurfaceCapabilities(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	dev, s, err := i.surfaceAndDevice(device, surface)
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	caps, res, err := i.surface.GetPhysicalDeviceSurfaceCapabilities(s, dev)
	if err := check(res, err, "surface capabilities"); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	return gpu.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    extentFrom(caps.CurrentExtent),
		MinImageExtent:   extentFrom(caps.MinImageExtent),
		MaxImageExtent:   extentFrom(caps.MaxImageExtent),
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (i *Instance) SurfaceFormats(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	dev, s, err := i.surfaceAndDevice(device, surface)
	if err != nil {
		return nil, err
	}
	formats, res, err := i.surface.GetPhysicalDeviceSurfaceFormats(s, dev)
	if err := check(res, err, "surface formats"); err != nil {
		return nil, err
	}
	out := make([]gpu.SurfaceFormat, 0, len(formats))
	for _, f := range formats {
		out = append(out, gpu.SurfaceFormat{
			Format:     gpu.Format(f.Format),
			ColorSpace: gpu.ColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

func (i *Instance) SurfacePresentModes(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	dev, s, err := i.surfaceAndDevice(device, surface)
	if err != nil {
		return nil, err
	}
	modes, res, err := i.surface.GetPhysicalDeviceSurfacePresentModes(s, dev)
	if err := check(res, err, "surface present modes"); err != nil {
		return nil, err
	}
	out := make([]gpu.PresentMode, 0, len(modes))
	for _, m := range modes {
		out = append(out, gpu.PresentMode(m))
	}
	return out, nil
}

func (i *Instance) CreateDevice(physicalDevice gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	dev, err := i.physicalDevice(physicalDevice)
	if err != nil {
		return nil, err
	}

	queues := make([]core1_0.DeviceQueueCreateInfo, 0, len(info.QueueCreateInfos))
	for _, q := range info.QueueCreateInfos {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: q.QueueFamilyIndex,
			QueuePriorities:  q.QueuePriorities,
		})
	}

	extensions, err := i.requirePortabilitySubset(dev, info.EnabledExtensionNames)
	if err != nil {
		return nil, err
	}

	driver, res, err := i.driver.CreateDevice(dev, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensions,
		EnabledLayerNames:     info.EnabledLayerNames,
	})
	if err := check(res, err, "create device"); err != nil {
		return nil, err
	}
	return newDevice(driver, i.surfaces), nil
}

// requirePortabilitySubset appends the portability subset extension when
// the device advertises it; such devices must not be created without it.
func (i *Instance) requirePortabilitySubset(dev core1_0.PhysicalDevice, enabled []string) ([]string, error) {
	for _, name := range enabled {
		if name == khr_portability_subset.ExtensionName {
			return enabled, nil
		}
	}
	available, res, err := i.driver.EnumerateDeviceExtensionProperties(dev)
	if err := check(res, err, "enumerate device extensions"); err != nil {
		return nil, err
	}
	if _, ok := available[khr_portability_subset.ExtensionName]; !ok {
		return enabled, nil
	}
	return append(append([]string(nil), enabled...), khr_portability_subset.ExtensionName), nil
}

// Destroy releases the instance after any surface or debug messenger
// still alive. Devices must already be destroyed.
func (i *Instance) Destroy() {
	i.surfaces.Each(func(h gpu.Handle, _ khr_surface.Surface) { i.DestroySurface(gpu.Surface(h)) })
	i.messengers.Each(func(h gpu.Handle, _ ext_debug_utils.DebugUtilsMessenger) {
		i.DestroyDebugMessenger(gpu.DebugMessenger(h))
	})
	i.driver.DestroyInstance(nil)
}
