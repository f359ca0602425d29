package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// CreateFramebuffers creates one framebuffer per swapchain image view,
// in image order.
func CreateFramebuffers(dev *LogicalDevice, sc *Swapchain, p *Pipeline, t *Teardown) ([]gpu.Framebuffer, error) {
	device := dev.Device
	framebuffers := make([]gpu.Framebuffer, 0, len(sc.ImageViews))

	for i, view := range sc.ImageViews {
		framebuffer, err := device.CreateFramebuffer(gpu.FramebufferCreateInfo{
			RenderPass:  p.RenderPass,
			Attachments: []gpu.ImageView{view},
			Width:       sc.Extent.Width,
			Height:      sc.Extent.Height,
			Layers:      1,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "create framebuffer %d", i)
		}

		framebuffers = append(framebuffers, framebuffer)
		t.Defer("framebuffer", func() {
			device.DestroyFramebuffer(framebuffer)
		})
	}

	return framebuffers, nil
}
