package renderer

import (
	"testing"

	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear}
	unorm := gpu.SurfaceFormat{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}
	wrongSpace := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceDisplayP3Nonlinear}

	tests := []struct {
		name    string
		formats []gpu.SurfaceFormat
		want    gpu.SurfaceFormat
	}{
		{"only fallback", []gpu.SurfaceFormat{unorm}, unorm},
		{"preferred first", []gpu.SurfaceFormat{preferred, unorm}, preferred},
		{"preferred last", []gpu.SurfaceFormat{unorm, wrongSpace, preferred}, preferred},
		{"color space must match", []gpu.SurfaceFormat{wrongSpace, unorm}, wrongSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseSurfaceFormat(tt.formats))
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, gpu.PresentModeMailbox, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox}))
	assert.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFIFO}))
	assert.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate}))
}

func TestChooseExtent(t *testing.T) {
	caps := gpu.SurfaceCapabilities{
		CurrentExtent:  gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined},
		MinImageExtent: gpu.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gpu.Extent2D{Width: 1920, Height: 1080},
	}

	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480},
		ChooseExtent(caps, &gputest.Window{Width: 640, Height: 480}))
	assert.Equal(t, gpu.Extent2D{Width: 1920, Height: 100},
		ChooseExtent(caps, &gputest.Window{Width: 4000, Height: 10}))

	caps.CurrentExtent = gpu.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, gpu.Extent2D{Width: 800, Height: 600},
		ChooseExtent(caps, &gputest.Window{Width: 4000, Height: 10}))
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max int
		want     int
	}{
		{min: 2, max: 0, want: 3},
		{min: 2, max: 8, want: 3},
		{min: 2, max: 2, want: 2},
		{min: 3, max: 3, want: 3},
		{min: 1, max: 2, want: 2},
	}

	for _, tt := range tests {
		got := ChooseImageCount(gpu.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max})
		assert.Equal(t, tt.want, got, "min=%d max=%d", tt.min, tt.max)
		assert.GreaterOrEqual(t, got, tt.min)
		if tt.max > 0 {
			assert.LessOrEqual(t, got, tt.max)
		}
	}
}

func TestSwapchainFormatFallback(t *testing.T) {
	dev := gputest.StandardDevice("fallback")
	dev.Formats = []gpu.SurfaceFormat{{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}}
	b := gputest.New(dev)

	r := newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, gpu.FormatR8G8B8A8UNorm, b.SwapchainInfo.ImageFormat)
	assert.Equal(t, gpu.FormatR8G8B8A8UNorm, r.Swapchain().Format.Format)
	assert.Equal(t, gpu.FormatR8G8B8A8UNorm, b.RenderPassInfo.Attachments[0].Format)
}

func TestSwapchainPrefersBGRA(t *testing.T) {
	dev := gputest.StandardDevice("bgra")
	dev.Formats = []gpu.SurfaceFormat{
		{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
	}
	b := gputest.New(dev)

	newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, gpu.FormatB8G8R8A8SRGB, b.SwapchainInfo.ImageFormat)
	assert.Equal(t, gpu.ColorSpaceSRGBNonlinear, b.SwapchainInfo.ImageColorSpace)
}

func TestSwapchainImageCountClamped(t *testing.T) {
	dev := gputest.StandardDevice("clamped")
	dev.Capabilities.MinImageCount = 2
	dev.Capabilities.MaxImageCount = 2
	b := gputest.New(dev)

	r := newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, 2, b.SwapchainInfo.MinImageCount)
	assert.Len(t, r.Swapchain().Images, 2)
	assert.Len(t, r.Swapchain().ImageViews, 2)
}

func TestSwapchainSharingMode(t *testing.T) {
	t.Run("same family", func(t *testing.T) {
		b := gputest.New(gputest.StandardDevice("shared"))
		r := newTestRenderer(t, b, DefaultConfig())

		assert.Equal(t, gpu.SharingModeExclusive, b.SwapchainInfo.ImageSharingMode)
		assert.Empty(t, b.SwapchainInfo.QueueFamilyIndices)
		assert.Equal(t, gpu.SharingModeExclusive, r.Swapchain().SharingMode)
	})

	t.Run("split families", func(t *testing.T) {
		dev := gputest.StandardDevice("split")
		dev.QueueFamilies = []gpu.QueueFamilyProperties{
			{QueueFlags: gpu.QueueGraphics, QueueCount: 1},
			{QueueFlags: gpu.QueueTransfer, QueueCount: 1},
		}
		dev.PresentFamilies = []int{1}
		b := gputest.New(dev)
		newTestRenderer(t, b, DefaultConfig())

		assert.Equal(t, gpu.SharingModeConcurrent, b.SwapchainInfo.ImageSharingMode)
		assert.Equal(t, []int{0, 1}, b.SwapchainInfo.QueueFamilyIndices)
	})
}

func TestSwapchainCreateInfo(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("info"))
	r := newTestRenderer(t, b, DefaultConfig())

	info := b.SwapchainInfo
	require.NotZero(t, info.Surface)
	assert.Equal(t, 1, info.ImageArrayLayers)
	assert.True(t, info.Clipped)
	assert.Equal(t, gpu.PresentModeMailbox, info.PresentMode)
	assert.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, info.ImageExtent)
	assert.Equal(t, 3, b.Count("CreateImageView"))
	assert.Len(t, r.Swapchain().ImageViews, len(r.Swapchain().Images))
}
