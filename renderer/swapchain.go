package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// Swapchain holds the presentable images and one color view per image.
type Swapchain struct {
	Handle      gpu.Swapchain
	Images      []gpu.Image
	ImageViews  []gpu.ImageView
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Extent      gpu.Extent2D
	SharingMode gpu.SharingMode
}

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB with a nonlinear sRGB color
// space and otherwise takes whatever the surface lists first.
func ChooseSurfaceFormat(formats []gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, format := range formats {
		if format.Format == gpu.FormatB8G8R8A8SRGB && format.ColorSpace == gpu.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return formats[0]
}

// ChoosePresentMode prefers mailbox. FIFO is always available.
func ChoosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, mode := range modes {
		if mode == gpu.PresentModeMailbox {
			return mode
		}
	}

	return gpu.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it has one and
// otherwise clamps the window's drawable size into the supported range.
func ChooseExtent(caps gpu.SurfaceCapabilities, window gpu.Window) gpu.Extent2D {
	if caps.CurrentExtent.Defined() {
		return caps.CurrentExtent
	}

	width, height := window.DrawableSize()
	return gpu.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, bounded by the
// maximum when the surface has one. A maximum of zero means unbounded.
func ChooseImageCount(caps gpu.SurfaceCapabilities) int {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// CreateSwapchain builds the swapchain for surface along with its image
// views.
func CreateSwapchain(dev *LogicalDevice, surface gpu.Surface, support SwapchainSupport, window gpu.Window, t *Teardown, log *slog.Logger) (*Swapchain, error) {
	sc := &Swapchain{
		Format:      ChooseSurfaceFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes),
		Extent:      ChooseExtent(support.Capabilities, window),
		SharingMode: gpu.SharingModeExclusive,
	}

	info := gpu.SwapchainCreateInfo{
		Surface:          surface,
		MinImageCount:    ChooseImageCount(support.Capabilities),
		ImageFormat:      sc.Format.Format,
		ImageColorSpace:  sc.Format.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageSharingMode: gpu.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		PresentMode:      sc.PresentMode,
		Clipped:          true,
	}

	if dev.Queues.Graphics != dev.Queues.Present {
		sc.SharingMode = gpu.SharingModeConcurrent
		info.ImageSharingMode = gpu.SharingModeConcurrent
		info.QueueFamilyIndices = dev.Queues.Unique()
	}

	handle, err := dev.Device.CreateSwapchain(info)
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	sc.Handle = handle
	t.Defer("swapchain", func() {
		dev.Device.DestroySwapchain(sc.Handle)
		sc.Handle = 0
	})

	sc.Images, err = dev.Device.SwapchainImages(handle)
	if err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}

	err = sc.createImageViews(dev.Device, t)
	if err != nil {
		return nil, err
	}

	log.Info("swapchain created",
		slog.Int("images", len(sc.Images)),
		slog.String("format", sc.Format.String()),
		slog.String("present_mode", sc.PresentMode.String()),
		slog.Int("width", sc.Extent.Width),
		slog.Int("height", sc.Extent.Height))
	return sc, nil
}

func (sc *Swapchain) createImageViews(device gpu.Device, t *Teardown) error {
	t.Defer("image views", func() {
		sc.ImageViews = nil
	})

	for i, image := range sc.Images {
		view, err := device.CreateImageView(gpu.ImageViewCreateInfo{
			Image:  image,
			Format: sc.Format.Format,
		})
		if err != nil {
			return errors.Wrapf(err, "create image view %d", i)
		}

		sc.ImageViews = append(sc.ImageViews, view)
		t.Defer("image view", func() {
			device.DestroyImageView(view)
		})
	}

	return nil
}
