package gputest

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

type device struct {
	b *Backend
	h gpu.Handle
}

func (d *device) GetQueue(queueFamily, index int) gpu.Queue {
	d.b.record("GetQueue", gpu.Handle(queueFamily))
	// Queues belong to the device and are never destroyed individually.
	return gpu.Queue(2000000 + queueFamily*16 + index)
}

func (d *device) WaitIdle() error {
	d.b.record("DeviceWaitIdle", d.h)
	if err := d.b.Fail["DeviceWaitIdle"]; err != nil {
		return err
	}
	for _, state := range d.b.fences {
		if state.pending {
			state.pending = false
			state.signaled = true
		}
	}
	return nil
}

func (d *device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	h, err := d.b.create("CreateSwapchain", "swapchain")
	if err != nil {
		return 0, err
	}
	d.b.SwapchainInfo = info
	swapchain := gpu.Swapchain(h)
	images := make([]gpu.Image, info.MinImageCount)
	for i := range images {
		images[i] = gpu.Image(3000000 + int(h)*16 + i)
	}
	d.b.images[swapchain] = images
	return swapchain, nil
}

func (d *device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	images, ok := d.b.images[swapchain]
	if !ok {
		return nil, errors.Newf("gputest: unknown swapchain %d", swapchain)
	}
	return append([]gpu.Image(nil), images...), nil
}

func (d *device) DestroySwapchain(swapchain gpu.Swapchain) {
	if swapchain != 0 {
		delete(d.b.images, swapchain)
		delete(d.b.cursor, swapchain)
	}
	d.b.destroy("DestroySwapchain", "swapchain", gpu.Handle(swapchain))
}

func (d *device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	h, err := d.b.create("CreateImageView", "imageview")
	return gpu.ImageView(h), err
}

func (d *device) DestroyImageView(view gpu.ImageView) {
	d.b.destroy("DestroyImageView", "imageview", gpu.Handle(view))
}

func (d *device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	if len(code) == 0 {
		d.b.record("CreateShaderModule", 0)
		return 0, errors.New("gputest: empty shader module")
	}
	h, err := d.b.create("CreateShaderModule", "shadermodule")
	return gpu.ShaderModule(h), err
}

func (d *device) DestroyShaderModule(module gpu.ShaderModule) {
	d.b.destroy("DestroyShaderModule", "shadermodule", gpu.Handle(module))
}

func (d *device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	h, err := d.b.create("CreateRenderPass", "renderpass")
	if err == nil {
		d.b.RenderPassInfo = info
	}
	return gpu.RenderPass(h), err
}

func (d *device) DestroyRenderPass(renderPass gpu.RenderPass) {
	d.b.destroy("DestroyRenderPass", "renderpass", gpu.Handle(renderPass))
}

func (d *device) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	h, err := d.b.create("CreatePipelineLayout", "pipelinelayout")
	return gpu.PipelineLayout(h), err
}

func (d *device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	d.b.destroy("DestroyPipelineLayout", "pipelinelayout", gpu.Handle(layout))
}

func (d *device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	for _, stage := range info.Stages {
		if d.b.live[gpu.Handle(stage.Module)] != "shadermodule" {
			d.b.violate("CreateGraphicsPipeline: shader module %d is not alive", stage.Module)
		}
	}
	h, err := d.b.create("CreateGraphicsPipeline", "pipeline")
	if err == nil {
		d.b.PipelineInfo = info
	}
	return gpu.Pipeline(h), err
}

func (d *device) DestroyPipeline(pipeline gpu.Pipeline) {
	d.b.destroy("DestroyPipeline", "pipeline", gpu.Handle(pipeline))
}

func (d *device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	h, err := d.b.create("CreateFramebuffer", "framebuffer")
	return gpu.Framebuffer(h), err
}

func (d *device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	d.b.destroy("DestroyFramebuffer", "framebuffer", gpu.Handle(framebuffer))
}

func (d *device) CreateCommandPool(queueFamily int) (gpu.CommandPool, error) {
	h, err := d.b.create("CreateCommandPool", "commandpool")
	return gpu.CommandPool(h), err
}

func (d *device) DestroyCommandPool(pool gpu.CommandPool) {
	d.b.destroy("DestroyCommandPool", "commandpool", gpu.Handle(pool))
}

func (d *device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	d.b.record("AllocateCommandBuffers", gpu.Handle(pool))
	if err := d.b.Fail["AllocateCommandBuffers"]; err != nil {
		return nil, err
	}
	buffers := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		// Command buffers are freed with their pool.
		buffers[i] = gpu.CommandBuffer(4000000 + int(pool)*64 + i)
	}
	return buffers, nil
}

func (d *device) BeginCommandBuffer(buffer gpu.CommandBuffer) error {
	d.b.record("BeginCommandBuffer", gpu.Handle(buffer))
	return d.b.Fail["BeginCommandBuffer"]
}

func (d *device) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	d.b.record("CmdBeginRenderPass", gpu.Handle(buffer))
	d.b.BeginInfos = append(d.b.BeginInfos, info)
	return nil
}

func (d *device) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.b.record("CmdBindPipeline", gpu.Handle(buffer))
}

func (d *device) CmdDraw(buffer gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.b.record("CmdDraw", gpu.Handle(buffer))
}

func (d *device) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	d.b.record("CmdEndRenderPass", gpu.Handle(buffer))
}

func (d *device) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	d.b.record("EndCommandBuffer", gpu.Handle(buffer))
	return d.b.Fail["EndCommandBuffer"]
}

func (d *device) CreateSemaphore() (gpu.Semaphore, error) {
	h, err := d.b.create("CreateSemaphore", "semaphore")
	if err != nil {
		return 0, err
	}
	d.b.semaphores[gpu.Semaphore(h)] = false
	return gpu.Semaphore(h), nil
}

func (d *device) DestroySemaphore(semaphore gpu.Semaphore) {
	delete(d.b.semaphores, semaphore)
	d.b.destroy("DestroySemaphore", "semaphore", gpu.Handle(semaphore))
}

func (d *device) CreateFence(signaled bool) (gpu.Fence, error) {
	h, err := d.b.create("CreateFence", "fence")
	if err != nil {
		return 0, err
	}
	d.b.fences[gpu.Fence(h)] = &fenceState{signaled: signaled}
	return gpu.Fence(h), nil
}

func (d *device) DestroyFence(fence gpu.Fence) {
	if state, ok := d.b.fences[fence]; ok && state.pending {
		d.b.violate("DestroyFence(%d): fence still pending on a queue", fence)
	}
	delete(d.b.fences, fence)
	d.b.destroy("DestroyFence", "fence", gpu.Handle(fence))
}

func (d *device) WaitForFences(fences ...gpu.Fence) error {
	for _, fence := range fences {
		d.b.record("WaitForFences", gpu.Handle(fence))
		state, ok := d.b.fences[fence]
		if !ok {
			return errors.Newf("gputest: wait on unknown fence %d", fence)
		}
		switch {
		case state.pending:
			state.pending = false
			state.signaled = true
		case !state.signaled:
			return errors.Wrapf(ErrDeadlock, "fence %d", fence)
		}
	}
	return nil
}

func (d *device) ResetFences(fences ...gpu.Fence) error {
	for _, fence := range fences {
		d.b.record("ResetFences", gpu.Handle(fence))
		state, ok := d.b.fences[fence]
		if !ok {
			return errors.Newf("gputest: reset of unknown fence %d", fence)
		}
		if state.pending {
			d.b.violate("ResetFences(%d): fence still pending on a queue", fence)
		}
		state.signaled = false
	}
	return nil
}

func (d *device) AcquireNextImage(swapchain gpu.Swapchain, signal gpu.Semaphore) (int, error) {
	call := d.b.acquires
	d.b.acquires++
	d.b.record("AcquireNextImage", gpu.Handle(swapchain))
	var injected error
	if d.b.AcquireErr != nil {
		injected = d.b.AcquireErr(call)
	}
	if injected != nil && !errors.Is(injected, gpu.ErrSuboptimal) {
		return 0, injected
	}
	images, ok := d.b.images[swapchain]
	if !ok {
		return 0, errors.Newf("gputest: unknown swapchain %d", swapchain)
	}
	if signaled, ok := d.b.semaphores[signal]; !ok {
		return 0, errors.Newf("gputest: unknown semaphore %d", signal)
	} else if signaled {
		d.b.violate("AcquireNextImage: semaphore %d is already signaled", signal)
	}
	d.b.semaphores[signal] = true

	var index int
	if len(d.b.AcquireOrder) > 0 {
		index = d.b.AcquireOrder[call%len(d.b.AcquireOrder)]
	} else {
		index = d.b.cursor[swapchain] % len(images)
		d.b.cursor[swapchain]++
	}
	return index, injected
}

func (d *device) QueueSubmit(queue gpu.Queue, fence gpu.Fence, info gpu.SubmitInfo) error {
	call := d.b.submits
	d.b.submits++
	d.b.record("QueueSubmit", gpu.Handle(fence))
	if d.b.SubmitErr != nil {
		if err := d.b.SubmitErr(call); err != nil {
			return err
		}
	}
	if len(info.WaitSemaphores) != len(info.WaitDstStageMask) {
		d.b.violate("QueueSubmit: %d wait semaphores but %d stage masks", len(info.WaitSemaphores), len(info.WaitDstStageMask))
	}
	for _, semaphore := range info.WaitSemaphores {
		if !d.b.semaphores[semaphore] {
			d.b.violate("QueueSubmit: wait on semaphore %d that has no pending signal", semaphore)
		}
		d.b.semaphores[semaphore] = false
	}
	for _, semaphore := range info.SignalSemaphores {
		if d.b.semaphores[semaphore] {
			d.b.violate("QueueSubmit: semaphore %d signaled twice", semaphore)
		}
		d.b.semaphores[semaphore] = true
	}
	if fence != 0 {
		state, ok := d.b.fences[fence]
		if !ok {
			return errors.Newf("gputest: submit with unknown fence %d", fence)
		}
		if state.signaled || state.pending {
			d.b.violate("QueueSubmit: fence %d was not reset", fence)
		}
		state.pending = true
	}
	return nil
}

func (d *device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) error {
	call := d.b.presents
	d.b.presents++
	if len(info.ImageIndices) > 0 {
		d.b.record("QueuePresent", gpu.Handle(info.ImageIndices[0]))
	} else {
		d.b.record("QueuePresent", 0)
	}
	for _, semaphore := range info.WaitSemaphores {
		if !d.b.semaphores[semaphore] {
			d.b.violate("QueuePresent: wait on semaphore %d that has no pending signal", semaphore)
		}
		d.b.semaphores[semaphore] = false
	}
	if d.b.PresentErr != nil {
		return d.b.PresentErr(call)
	}
	return nil
}

func (d *device) Destroy() {
	children := d.b.liveOf("swapchain", "imageview", "shadermodule", "renderpass", "pipelinelayout",
		"pipeline", "framebuffer", "commandpool", "semaphore", "fence")
	if len(children) > 0 {
		d.b.violate("DestroyDevice: children still alive: %v", children)
	}
	d.b.destroy("DestroyDevice", "device", d.h)
}
