// Package renderer draws a single shader-generated triangle through the gpu
// API, keeping several frames in flight.
//
// Setup runs as a fixed sequence of stages, each consuming the output of
// the previous one:
//
//	Context -> DeviceSelection -> LogicalDevice -> Swapchain -> Pipeline
//	        -> framebuffers -> Commands -> FrameSync
//
// Everything from Swapchain onwards depends on the surface size and is
// rebuilt together by Rebuild.
package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sagitario/engine/gpu"
)

type Renderer struct {
	cfg     Config
	log     *slog.Logger
	window  gpu.Window
	shaders Shaders

	teardown *Teardown
	// chain holds the swapchain-scoped objects and is replaced by Rebuild.
	chain *Teardown

	context      *Context
	selection    *DeviceSelection
	device       *LogicalDevice
	swapchain    *Swapchain
	pipeline     *Pipeline
	framebuffers []gpu.Framebuffer
	commands     *Commands
	frames       *FrameSync

	timer     frameTimer
	stale     bool
	destroyed bool
}

// New runs every setup stage against loader and window. On failure the
// objects created so far are released and the error is returned.
func New(loader gpu.Loader, window gpu.Window, shaders Shaders, cfg Config) (*Renderer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	// Reject bad bytecode before any API object exists.
	if _, _, err := shaders.bytecode(); err != nil {
		return nil, err
	}

	log := Logger().With(slog.String("session", uuid.NewString()))
	r := &Renderer{
		cfg:      cfg,
		log:      log,
		window:   window,
		shaders:  shaders,
		teardown: NewTeardown(log),
		chain:    NewTeardown(log),
	}

	err = r.init(loader)
	if err != nil {
		if releaseErr := r.teardown.Release(r.waitIdle); releaseErr != nil {
			log.Warn("cleanup after failed setup", slog.Any("error", releaseErr))
		}
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init(loader gpu.Loader) error {
	var err error

	r.context, err = NewContext(loader, r.window, r.cfg, r.log, r.teardown)
	if err != nil {
		return err
	}

	r.selection, err = r.context.SelectDevice(r.cfg.DeviceExtensions)
	if err != nil {
		return err
	}

	r.device, err = CreateLogicalDevice(r.context, r.selection, r.cfg, r.teardown)
	if err != nil {
		return err
	}

	// The chain is registered as a single step so it is released before
	// the device, whatever Rebuild has done to it since.
	r.teardown.Defer("swapchain resources", func() {
		if err := r.chain.Release(nil); err != nil {
			r.log.Warn("release swapchain resources", slog.Any("error", err))
		}
	})

	return r.buildChain(r.selection.Support)
}

func (r *Renderer) buildChain(support SwapchainSupport) error {
	var err error
	t := r.chain

	r.swapchain, err = CreateSwapchain(r.device, r.context.Surface, support, r.window, t, r.log)
	if err != nil {
		return err
	}

	r.pipeline, err = CreatePipeline(r.device, r.swapchain, r.shaders, t)
	if err != nil {
		return err
	}

	r.framebuffers, err = CreateFramebuffers(r.device, r.swapchain, r.pipeline, t)
	if err != nil {
		return err
	}

	r.commands, err = RecordCommands(r.device, r.swapchain, r.pipeline, r.framebuffers, r.cfg.ClearColor, t)
	if err != nil {
		return err
	}

	r.frames, err = CreateFrameSync(r.device, r.swapchain, r.commands, r.cfg.FramesInFlight, t)
	if err != nil {
		return err
	}

	return nil
}

func (r *Renderer) waitIdle() error {
	if r.device == nil {
		return nil
	}
	return r.device.Device.WaitIdle()
}

// Render draws and presents one frame. It does not recover from an
// out-of-date swapchain: the error wraps gpu.ErrOutOfDate and the caller
// is expected to call Rebuild. A suboptimal present is not an error but
// marks the renderer Stale.
func (r *Renderer) Render() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.frames == nil {
		return errors.Wrap(gpu.ErrOutOfDate, "render: swapchain not built")
	}

	r.timer.begin()
	_, err := r.frames.Render()
	switch {
	case err == nil:
		r.timer.end()
		return nil
	case errors.Is(err, gpu.ErrSuboptimal):
		r.timer.end()
		r.stale = true
		return nil
	case errors.Is(err, gpu.ErrOutOfDate):
		r.stale = true
	}

	return errors.Wrap(err, "render")
}

// Rebuild recreates the swapchain and everything that depends on it for
// the window's current size. While the drawable is zero-sized it does
// nothing and the renderer stays stale.
func (r *Renderer) Rebuild() error {
	if r.destroyed {
		return ErrDestroyed
	}

	width, height := r.window.DrawableSize()
	if width == 0 || height == 0 {
		r.log.Debug("skipping rebuild of zero-sized surface")
		r.stale = true
		return nil
	}

	err := r.chain.Release(r.waitIdle)
	r.frames = nil
	r.stale = true
	if err != nil {
		return errors.Wrap(err, "rebuild")
	}

	support, err := r.context.QuerySwapchainSupport(r.selection.PhysicalDevice)
	if err != nil {
		return errors.Wrap(err, "rebuild")
	}

	r.chain = NewTeardown(r.log)
	err = r.buildChain(support)
	if err != nil {
		return errors.Wrap(err, "rebuild")
	}

	r.stale = false
	r.log.Info("swapchain rebuilt", slog.Int("width", r.swapchain.Extent.Width), slog.Int("height", r.swapchain.Extent.Height))
	return nil
}

// Destroy waits for the device to go idle and releases every object in
// reverse creation order. Calls after the first do nothing.
func (r *Renderer) Destroy() error {
	if r.destroyed {
		return nil
	}
	r.destroyed = true

	err := r.teardown.Release(r.waitIdle)
	r.log.Info("renderer destroyed", slog.Uint64("frames", r.timer.stats.Frames))
	return err
}

// Stale reports whether the swapchain no longer matches the surface and
// should be rebuilt.
func (r *Renderer) Stale() bool {
	return r.stale
}

func (r *Renderer) Stats() FrameStats {
	return r.timer.stats
}

func (r *Renderer) Selection() *DeviceSelection {
	return r.selection
}

func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

func (r *Renderer) Frames() *FrameSync {
	return r.frames
}
