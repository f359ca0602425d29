package vk

import "github.com/veandco/go-sdl2/sdl"

// SDLWindow adapts an SDL window created with sdl.WINDOW_VULKAN.
type SDLWindow struct {
	window *sdl.Window
}

func NewSDLWindow(window *sdl.Window) *SDLWindow {
	return &SDLWindow{window: window}
}

func (w *SDLWindow) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *SDLWindow) DrawableSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *SDLWindow) SDL() *sdl.Window {
	return w.window
}
