package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// SlotState tracks where a frame slot is in its cycle.
type SlotState int

const (
	// SlotIdle: the slot's fence has been waited on, or its last frame was
	// abandoned on an error.
	SlotIdle SlotState = iota
	SlotAcquiring
	SlotSubmitted
	SlotPresented
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "Idle"
	case SlotAcquiring:
		return "Acquiring"
	case SlotSubmitted:
		return "Submitted"
	case SlotPresented:
		return "Presented"
	}
	return "Unknown"
}

// FrameSync owns the per-slot synchronization objects and drives the
// frame protocol. Slot i uses ImageAvailable[i], RenderFinished[i] and
// InFlight[i]. ImagesInFlight maps a swapchain image to the fence of the
// slot that last rendered into it, or 0.
type FrameSync struct {
	ImageAvailable []gpu.Semaphore
	RenderFinished []gpu.Semaphore
	InFlight       []gpu.Fence
	ImagesInFlight []gpu.Fence

	device         gpu.Device
	graphicsQueue  gpu.Queue
	presentQueue   gpu.Queue
	swapchain      gpu.Swapchain
	commandBuffers []gpu.CommandBuffer

	frame  int
	states []SlotState
}

// CreateFrameSync creates frames slots. Fences start signaled so the first
// wait on each slot returns immediately.
func CreateFrameSync(dev *LogicalDevice, sc *Swapchain, cmds *Commands, frames int, t *Teardown) (*FrameSync, error) {
	device := dev.Device
	fs := &FrameSync{
		ImagesInFlight: make([]gpu.Fence, len(sc.Images)),
		device:         device,
		graphicsQueue:  dev.GraphicsQueue,
		presentQueue:   dev.PresentQueue,
		swapchain:      sc.Handle,
		commandBuffers: cmds.Buffers,
		states:         make([]SlotState, frames),
	}
	t.Defer("frame sync", func() {
		fs.ImageAvailable = nil
		fs.RenderFinished = nil
		fs.InFlight = nil
		fs.ImagesInFlight = nil
	})

	for i := 0; i < frames; i++ {
		imageAvailable, err := device.CreateSemaphore()
		if err != nil {
			return nil, errors.Wrapf(err, "create image-available semaphore %d", i)
		}
		fs.ImageAvailable = append(fs.ImageAvailable, imageAvailable)
		t.Defer("image-available semaphore", func() {
			device.DestroySemaphore(imageAvailable)
		})

		renderFinished, err := device.CreateSemaphore()
		if err != nil {
			return nil, errors.Wrapf(err, "create render-finished semaphore %d", i)
		}
		fs.RenderFinished = append(fs.RenderFinished, renderFinished)
		t.Defer("render-finished semaphore", func() {
			device.DestroySemaphore(renderFinished)
		})

		inFlight, err := device.CreateFence(true)
		if err != nil {
			return nil, errors.Wrapf(err, "create in-flight fence %d", i)
		}
		fs.InFlight = append(fs.InFlight, inFlight)
		t.Defer("in-flight fence", func() {
			device.DestroyFence(inFlight)
		})
	}

	return fs, nil
}

// FrameIndex is the slot the next Render call will use.
func (fs *FrameSync) FrameIndex() int {
	return fs.frame
}

func (fs *FrameSync) FramesInFlight() int {
	return len(fs.InFlight)
}

func (fs *FrameSync) SlotState(slot int) SlotState {
	return fs.states[slot]
}

// Render runs one frame and returns the swapchain image it presented.
//
// An out-of-date acquire or present fails with gpu.ErrOutOfDate. A
// suboptimal acquire or present still renders and presents the frame: the
// frame index advances and the error wraps gpu.ErrSuboptimal.
func (fs *FrameSync) Render() (int, error) {
	slot := fs.frame
	fence := fs.InFlight[slot]

	err := fs.device.WaitForFences(fence)
	if err != nil {
		fs.states[slot] = SlotIdle
		return 0, errors.Wrapf(err, "wait for frame %d", slot)
	}
	fs.states[slot] = SlotAcquiring
	image, acquireErr := fs.device.AcquireNextImage(fs.swapchain, fs.ImageAvailable[slot])
	if acquireErr != nil && !errors.Is(acquireErr, gpu.ErrSuboptimal) {
		fs.states[slot] = SlotIdle
		return 0, errors.Wrap(acquireErr, "acquire swapchain image")
	}

	// Another slot may still be rendering into this image.
	if previous := fs.ImagesInFlight[image]; previous != 0 && previous != fence {
		err = fs.device.WaitForFences(previous)
		if err != nil {
			fs.states[slot] = SlotIdle
			return 0, errors.Wrapf(err, "wait for image %d", image)
		}
	}
	fs.ImagesInFlight[image] = fence

	err = fs.device.ResetFences(fence)
	if err != nil {
		fs.states[slot] = SlotIdle
		return 0, errors.Wrapf(err, "reset fence of frame %d", slot)
	}

	err = fs.device.QueueSubmit(fs.graphicsQueue, fence, gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{fs.ImageAvailable[slot]},
		WaitDstStageMask: []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{fs.commandBuffers[image]},
		SignalSemaphores: []gpu.Semaphore{fs.RenderFinished[slot]},
	})
	if err != nil {
		fs.states[slot] = SlotIdle
		return 0, errors.Wrap(err, "submit draw command buffer")
	}
	fs.states[slot] = SlotSubmitted

	err = fs.device.QueuePresent(fs.presentQueue, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{fs.RenderFinished[slot]},
		Swapchains:     []gpu.Swapchain{fs.swapchain},
		ImageIndices:   []int{image},
	})
	if err != nil && !errors.Is(err, gpu.ErrSuboptimal) {
		fs.states[slot] = SlotIdle
		return 0, errors.Wrap(err, "present swapchain image")
	}
	fs.states[slot] = SlotPresented

	fs.frame = (fs.frame + 1) % len(fs.InFlight)

	switch {
	case err != nil:
		return image, errors.Wrap(err, "present swapchain image")
	case acquireErr != nil:
		return image, errors.Wrap(acquireErr, "acquire swapchain image")
	}
	return image, nil
}
