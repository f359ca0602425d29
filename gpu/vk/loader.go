// Package vk implements the gpu interfaces on top of vkngwrapper.
//
// Every gpu.Handle the backend hands out is resolved through a registry
// owned by the Instance or Device that created it. The registries are not
// synchronized: drive each Device from one goroutine, as the renderer
// does.
package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
)

type Loader struct {
	driver core1_0.GlobalDriver
}

func NewLoader(driver core1_0.GlobalDriver) *Loader {
	return &Loader{driver: driver}
}

// NewSDLLoader resolves the API through SDL's Vulkan loader. SDL video
// must be initialized and a Vulkan-capable window created first.
func NewSDLLoader() (*Loader, error) {
	driver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}
	return NewLoader(driver), nil
}

func (l *Loader) AvailableExtensions() (map[string]struct{}, error) {
	extensions, res, err := l.driver.AvailableExtensions()
	if err := check(res, err, "enumerate instance extensions"); err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (l *Loader) AvailableLayers() (map[string]struct{}, error) {
	layers, res, err := l.driver.AvailableLayers()
	if err := check(res, err, "enumerate instance layers"); err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(layers))
	for name := range layers {
		names[name] = struct{}{}
	}
	return names, nil
}

func (l *Loader) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:       info.ApplicationName,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            info.EngineName,
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_2,
		EnabledExtensionNames: info.EnabledExtensionNames,
		EnabledLayerNames:     info.EnabledLayerNames,
	}
	if info.EnumeratePortability {
		options.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}
	if info.Debug != nil {
		options.Next = debugUtilsCreateInfo(*info.Debug)
	}

	driver, res, err := l.driver.CreateInstance(nil, options)
	if err := check(res, err, "create instance"); err != nil {
		return nil, err
	}
	return newInstance(driver), nil
}

var (
	_ gpu.Loader   = (*Loader)(nil)
	_ gpu.Instance = (*Instance)(nil)
	_ gpu.Device   = (*Device)(nil)
	_ gpu.Window   = (*SDLWindow)(nil)
)
