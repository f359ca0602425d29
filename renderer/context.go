package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// Context is the process-wide root of the renderer: the API entry point,
// the instance, the optional diagnostics messenger and the window surface.
type Context struct {
	Loader    gpu.Loader
	Instance  gpu.Instance
	Messenger gpu.DebugMessenger
	Surface   gpu.Surface
	Window    gpu.Window

	validationLayers []string
	log              *slog.Logger
}

// NewContext creates the instance, the diagnostics messenger when
// cfg.Validation is set, and the surface for window. Every object is
// registered with t as soon as it exists.
func NewContext(loader gpu.Loader, window gpu.Window, cfg Config, log *slog.Logger, t *Teardown) (*Context, error) {
	ctx := &Context{
		Loader: loader,
		Window: window,
		log:    log,
	}

	err := ctx.createInstance(cfg, t)
	if err != nil {
		return nil, err
	}

	err = ctx.setupDebugMessenger(cfg, t)
	if err != nil {
		return nil, err
	}

	err = ctx.createSurface(t)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}

func (c *Context) createInstance(cfg Config, t *Teardown) error {
	info := gpu.InstanceCreateInfo{
		ApplicationName: cfg.ApplicationName,
		EngineName:      cfg.EngineName,
	}

	extensions, err := c.Loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "create instance: enumerate extensions")
	}

	for _, ext := range c.Window.RequiredInstanceExtensions() {
		if _, ok := extensions[ext]; !ok {
			return errors.Wrapf(ErrMissingInstanceExtension, "create instance: window integration needs %s", ext)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}

	if cfg.Validation {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, gpu.ExtensionDebugUtils)
	}

	if _, ok := extensions[gpu.ExtensionPortabilityEnumerate]; ok {
		c.log.Debug("enabling portability enumeration")
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, gpu.ExtensionPortabilityEnumerate)
		info.EnumeratePortability = true
	}

	if cfg.Validation {
		layers, err := c.Loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "create instance: enumerate layers")
		}

		for _, layer := range cfg.ValidationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Wrapf(ErrMissingValidationLayer, "create instance: layer %s (install the Vulkan SDK)", layer)
			}
			info.EnabledLayerNames = append(info.EnabledLayerNames, layer)
		}
		c.validationLayers = info.EnabledLayerNames

		debugInfo := debugMessengerCreateInfo(c.log)
		info.Debug = &debugInfo
	}

	instance, err := c.Loader.CreateInstance(info)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	c.Instance = instance
	t.Defer("instance", func() {
		c.Instance.Destroy()
		c.Instance = nil
	})

	c.log.Debug("instance created",
		slog.Any("extensions", info.EnabledExtensionNames),
		slog.Any("layers", info.EnabledLayerNames))
	return nil
}

func (c *Context) setupDebugMessenger(cfg Config, t *Teardown) error {
	if !cfg.Validation {
		return nil
	}

	messenger, err := c.Instance.CreateDebugMessenger(debugMessengerCreateInfo(c.log))
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}
	c.Messenger = messenger
	t.Defer("debug messenger", func() {
		c.Instance.DestroyDebugMessenger(c.Messenger)
		c.Messenger = 0
	})

	return nil
}

func (c *Context) createSurface(t *Teardown) error {
	surface, err := c.Instance.CreateSurface(c.Window)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}
	c.Surface = surface
	t.Defer("surface", func() {
		c.Instance.DestroySurface(c.Surface)
		c.Surface = 0
	})

	return nil
}

// ValidationEnabled reports whether validation layers were enabled on the
// instance.
func (c *Context) ValidationEnabled() bool {
	return len(c.validationLayers) > 0
}
