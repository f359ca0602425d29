package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sagitario/engine/gpu"
)

// Commands is the command pool on the graphics family and one primary
// buffer per framebuffer. Each buffer is recorded once and replayed every
// frame that acquires its image.
type Commands struct {
	Pool    gpu.CommandPool
	Buffers []gpu.CommandBuffer
}

// RecordCommands allocates and records the per-image draw commands: clear
// to clearColor, bind the pipeline and draw three vertices.
func RecordCommands(dev *LogicalDevice, sc *Swapchain, p *Pipeline, framebuffers []gpu.Framebuffer, clearColor mgl32.Vec4, t *Teardown) (*Commands, error) {
	device := dev.Device
	cmds := &Commands{}

	pool, err := device.CreateCommandPool(dev.Queues.Graphics)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	cmds.Pool = pool
	// Buffers are freed with their pool.
	t.Defer("command pool", func() {
		device.DestroyCommandPool(cmds.Pool)
		cmds.Pool = 0
		cmds.Buffers = nil
	})

	cmds.Buffers, err = device.AllocateCommandBuffers(pool, len(framebuffers))
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	for i, buffer := range cmds.Buffers {
		err = recordDraw(device, buffer, gpu.RenderPassBeginInfo{
			RenderPass:  p.RenderPass,
			Framebuffer: framebuffers[i],
			RenderArea:  gpu.Rect2D{Extent: sc.Extent},
			ClearColor:  clearColor,
		}, p.Pipeline)
		if err != nil {
			return nil, errors.Wrapf(err, "record command buffer %d", i)
		}
	}

	return cmds, nil
}

func recordDraw(device gpu.Device, buffer gpu.CommandBuffer, begin gpu.RenderPassBeginInfo, pipeline gpu.Pipeline) error {
	err := device.BeginCommandBuffer(buffer)
	if err != nil {
		return err
	}

	err = device.CmdBeginRenderPass(buffer, begin)
	if err != nil {
		return err
	}

	device.CmdBindPipeline(buffer, pipeline)
	device.CmdDraw(buffer, 3, 1, 0, 0)
	device.CmdEndRenderPass(buffer)

	return device.EndCommandBuffer(buffer)
}
