package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/internal/handles"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type queueKey struct {
	family, index int
}

type Device struct {
	driver    core1_0.CoreDeviceDriver
	swapchain khr_swapchain.ExtensionDriver
	// surfaces belongs to the parent instance.
	surfaces *handles.Registry[khr_surface.Surface]

	ids            handles.Counter
	queueHandles   map[queueKey]gpu.Queue
	queues         *handles.Registry[core1_0.Queue]
	swapchains     *handles.Registry[khr_swapchain.Swapchain]
	images         *handles.Registry[core1_0.Image]
	imageViews     *handles.Registry[core1_0.ImageView]
	shaderModules  *handles.Registry[core1_0.ShaderModule]
	renderPasses   *handles.Registry[core1_0.RenderPass]
	layouts        *handles.Registry[core1_0.PipelineLayout]
	pipelines      *handles.Registry[core1_0.Pipeline]
	framebuffers   *handles.Registry[core1_0.Framebuffer]
	commandPools   *handles.Registry[core1_0.CommandPool]
	commandBuffers *handles.Registry[core1_0.CommandBuffer]
	semaphores     *handles.Registry[core1_0.Semaphore]
	fences         *handles.Registry[core1_0.Fence]

	// Children are released with their parent.
	swapchainImages map[gpu.Swapchain][]gpu.Image
	poolBuffers     map[gpu.CommandPool][]gpu.CommandBuffer
}

func newDevice(driver core1_0.CoreDeviceDriver, surfaces *handles.Registry[khr_surface.Surface]) *Device {
	d := &Device{
		driver:          driver,
		surfaces:        surfaces,
		swapchain:       khr_swapchain.CreateExtensionDriverFromCoreDriver(driver),
		queueHandles:    make(map[queueKey]gpu.Queue),
		swapchainImages: make(map[gpu.Swapchain][]gpu.Image),
		poolBuffers:     make(map[gpu.CommandPool][]gpu.CommandBuffer),
	}
	d.queues = handles.NewRegistry[core1_0.Queue](&d.ids)
	d.swapchains = handles.NewRegistry[khr_swapchain.Swapchain](&d.ids)
	d.images = handles.NewRegistry[core1_0.Image](&d.ids)
	d.imageViews = handles.NewRegistry[core1_0.ImageView](&d.ids)
	d.shaderModules = handles.NewRegistry[core1_0.ShaderModule](&d.ids)
	d.renderPasses = handles.NewRegistry[core1_0.RenderPass](&d.ids)
	d.layouts = handles.NewRegistry[core1_0.PipelineLayout](&d.ids)
	d.pipelines = handles.NewRegistry[core1_0.Pipeline](&d.ids)
	d.framebuffers = handles.NewRegistry[core1_0.Framebuffer](&d.ids)
	d.commandPools = handles.NewRegistry[core1_0.CommandPool](&d.ids)
	d.commandBuffers = handles.NewRegistry[core1_0.CommandBuffer](&d.ids)
	d.semaphores = handles.NewRegistry[core1_0.Semaphore](&d.ids)
	d.fences = handles.NewRegistry[core1_0.Fence](&d.ids)
	return d
}

func (d *Device) GetQueue(queueFamily, index int) gpu.Queue {
	key := queueKey{queueFamily, index}
	if q, ok := d.queueHandles[key]; ok {
		return q
	}
	q := gpu.Queue(d.queues.Add(d.driver.GetQueue(queueFamily, index)))
	d.queueHandles[key] = q
	return q
}

func (d *Device) WaitIdle() error {
	res, err := d.driver.DeviceWaitIdle()
	return check(res, err, "device wait idle")
}

// CreateSwapchain resolves info.Surface against the surfaces of the
// instance that created the device.
func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	surface, err := d.resolveSurface(info.Surface)
	if err != nil {
		return 0, err
	}
	sc, res, err := d.swapchain.CreateSwapchain(nil, swapchainCreateInfo(info, surface))
	if err := check(res, err, "create swapchain"); err != nil {
		return 0, err
	}
	return gpu.Swapchain(d.swapchains.Add(sc)), nil
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if images, ok := d.swapchainImages[swapchain]; ok {
		return images, nil
	}
	sc, ok := d.swapchains.Get(gpu.Handle(swapchain))
	if !ok {
		return nil, unknown("swapchain", gpu.Handle(swapchain))
	}
	images, res, err := d.swapchain.GetSwapchainImages(sc)
	if err := check(res, err, "swapchain images"); err != nil {
		return nil, err
	}
	out := make([]gpu.Image, 0, len(images))
	for _, img := range images {
		out = append(out, gpu.Image(d.images.Add(img)))
	}
	d.swapchainImages[swapchain] = out
	return out, nil
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	sc, ok := d.swapchains.Remove(gpu.Handle(swapchain))
	if !ok {
		return
	}
	for _, img := range d.swapchainImages[swapchain] {
		d.images.Remove(gpu.Handle(img))
	}
	delete(d.swapchainImages, swapchain)
	d.swapchain.DestroySwapchain(sc, nil)
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	img, ok := d.images.Get(gpu.Handle(info.Image))
	if !ok {
		return 0, unknown("image", gpu.Handle(info.Image))
	}
	view, res, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    img,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err := check(res, err, "create image view"); err != nil {
		return 0, err
	}
	return gpu.ImageView(d.imageViews.Add(view)), nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	if v, ok := d.imageViews.Remove(gpu.Handle(view)); ok {
		d.driver.DestroyImageView(v, nil)
	}
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	module, res, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{Code: code})
	if err := check(res, err, "create shader module"); err != nil {
		return 0, err
	}
	return gpu.ShaderModule(d.shaderModules.Add(module)), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	if m, ok := d.shaderModules.Remove(gpu.Handle(module)); ok {
		d.driver.DestroyShaderModule(m, nil)
	}
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	rp, res, err := d.driver.CreateRenderPass(nil, renderPassCreateInfo(info))
	if err := check(res, err, "create render pass"); err != nil {
		return 0, err
	}
	return gpu.RenderPass(d.renderPasses.Add(rp)), nil
}

func (d *Device) DestroyRenderPass(renderPass gpu.RenderPass) {
	if rp, ok := d.renderPasses.Remove(gpu.Handle(renderPass)); ok {
		d.driver.DestroyRenderPass(rp, nil)
	}
}

func (d *Device) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	layout, res, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err := check(res, err, "create pipeline layout"); err != nil {
		return 0, err
	}
	return gpu.PipelineLayout(d.layouts.Add(layout)), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	if l, ok := d.layouts.Remove(gpu.Handle(layout)); ok {
		d.driver.DestroyPipelineLayout(l, nil)
	}
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	createInfo, err := d.graphicsPipelineCreateInfo(info)
	if err != nil {
		return 0, errors.Wrap(err, "create graphics pipeline")
	}
	pipelines, res, err := d.driver.CreateGraphicsPipelines(nil, nil, createInfo)
	if err := check(res, err, "create graphics pipeline"); err != nil {
		return 0, err
	}
	if len(pipelines) != 1 {
		return 0, errors.Newf("create graphics pipeline: got %d pipelines", len(pipelines))
	}
	return gpu.Pipeline(d.pipelines.Add(pipelines[0])), nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	if p, ok := d.pipelines.Remove(gpu.Handle(pipeline)); ok {
		d.driver.DestroyPipeline(p, nil)
	}
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	rp, ok := d.renderPasses.Get(gpu.Handle(info.RenderPass))
	if !ok {
		return 0, unknown("render pass", gpu.Handle(info.RenderPass))
	}
	attachments := make([]core1_0.ImageView, 0, len(info.Attachments))
	for _, a := range info.Attachments {
		view, ok := d.imageViews.Get(gpu.Handle(a))
		if !ok {
			return 0, unknown("image view", gpu.Handle(a))
		}
		attachments = append(attachments, view)
	}

	fb, res, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  rp,
		Layers:      info.Layers,
		Attachments: attachments,
		Width:       info.Width,
		Height:      info.Height,
	})
	if err := check(res, err, "create framebuffer"); err != nil {
		return 0, err
	}
	return gpu.Framebuffer(d.framebuffers.Add(fb)), nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	if fb, ok := d.framebuffers.Remove(gpu.Handle(framebuffer)); ok {
		d.driver.DestroyFramebuffer(fb, nil)
	}
}

func (d *Device) CreateCommandPool(queueFamily int) (gpu.CommandPool, error) {
	pool, res, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: queueFamily,
	})
	if err := check(res, err, "create command pool"); err != nil {
		return 0, err
	}
	return gpu.CommandPool(d.commandPools.Add(pool)), nil
}

// DestroyCommandPool also frees every buffer allocated from the pool.
func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	p, ok := d.commandPools.Remove(gpu.Handle(pool))
	if !ok {
		return
	}
	for _, buf := range d.poolBuffers[pool] {
		d.commandBuffers.Remove(gpu.Handle(buf))
	}
	delete(d.poolBuffers, pool)
	d.driver.DestroyCommandPool(p, nil)
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	p, ok := d.commandPools.Get(gpu.Handle(pool))
	if !ok {
		return nil, unknown("command pool", gpu.Handle(pool))
	}
	buffers, res, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err := check(res, err, "allocate command buffers"); err != nil {
		return nil, err
	}
	out := make([]gpu.CommandBuffer, 0, len(buffers))
	for _, buf := range buffers {
		out = append(out, gpu.CommandBuffer(d.commandBuffers.Add(buf)))
	}
	d.poolBuffers[pool] = append(d.poolBuffers[pool], out...)
	return out, nil
}

func (d *Device) commandBuffer(h gpu.CommandBuffer) (core1_0.CommandBuffer, bool) {
	return d.commandBuffers.Get(gpu.Handle(h))
}

func (d *Device) BeginCommandBuffer(buffer gpu.CommandBuffer) error {
	buf, ok := d.commandBuffer(buffer)
	if !ok {
		return unknown("command buffer", gpu.Handle(buffer))
	}
	res, err := d.driver.BeginCommandBuffer(buf, core1_0.CommandBufferBeginInfo{})
	return check(res, err, "begin command buffer")
}

func (d *Device) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	buf, ok := d.commandBuffer(buffer)
	if !ok {
		return unknown("command buffer", gpu.Handle(buffer))
	}
	rp, ok := d.renderPasses.Get(gpu.Handle(info.RenderPass))
	if !ok {
		return unknown("render pass", gpu.Handle(info.RenderPass))
	}
	fb, ok := d.framebuffers.Get(gpu.Handle(info.Framebuffer))
	if !ok {
		return unknown("framebuffer", gpu.Handle(info.Framebuffer))
	}
	c := info.ClearColor
	err := d.driver.CmdBeginRenderPass(buf, core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea:  rectTo(info.RenderArea),
		ClearValues: []core1_0.ClearValue{
			core1_0.ClearValueFloat{c[0], c[1], c[2], c[3]},
		},
	})
	return errors.Wrap(err, "begin render pass")
}

// The Cmd* recorders below ignore unknown handles; recording into a
// buffer the device does not own is a caller bug that validation layers
// report.

func (d *Device) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	buf, ok := d.commandBuffer(buffer)
	p, pok := d.pipelines.Get(gpu.Handle(pipeline))
	if !ok || !pok {
		return
	}
	d.driver.CmdBindPipeline(buf, core1_0.PipelineBindPointGraphics, p)
}

func (d *Device) CmdDraw(buffer gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	buf, ok := d.commandBuffer(buffer)
	if !ok {
		return
	}
	d.driver.CmdDraw(buf, vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (d *Device) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	if buf, ok := d.commandBuffer(buffer); ok {
		d.driver.CmdEndRenderPass(buf)
	}
}

func (d *Device) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	buf, ok := d.commandBuffer(buffer)
	if !ok {
		return unknown("command buffer", gpu.Handle(buffer))
	}
	res, err := d.driver.EndCommandBuffer(buf)
	return check(res, err, "end command buffer")
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	s, res, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err := check(res, err, "create semaphore"); err != nil {
		return 0, err
	}
	return gpu.Semaphore(d.semaphores.Add(s)), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	if s, ok := d.semaphores.Remove(gpu.Handle(semaphore)); ok {
		d.driver.DestroySemaphore(s, nil)
	}
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	f, res, err := d.driver.CreateFence(nil, info)
	if err := check(res, err, "create fence"); err != nil {
		return 0, err
	}
	return gpu.Fence(d.fences.Add(f)), nil
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	if f, ok := d.fences.Remove(gpu.Handle(fence)); ok {
		d.driver.DestroyFence(f, nil)
	}
}

func (d *Device) resolveFences(fences []gpu.Fence) ([]core1_0.Fence, error) {
	out := make([]core1_0.Fence, 0, len(fences))
	for _, h := range fences {
		f, ok := d.fences.Get(gpu.Handle(h))
		if !ok {
			return nil, unknown("fence", gpu.Handle(h))
		}
		out = append(out, f)
	}
	return out, nil
}

func (d *Device) resolveSemaphores(semaphores []gpu.Semaphore) ([]core1_0.Semaphore, error) {
	out := make([]core1_0.Semaphore, 0, len(semaphores))
	for _, h := range semaphores {
		s, ok := d.semaphores.Get(gpu.Handle(h))
		if !ok {
			return nil, unknown("semaphore", gpu.Handle(h))
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *Device) WaitForFences(fences ...gpu.Fence) error {
	fs, err := d.resolveFences(fences)
	if err != nil {
		return err
	}
	res, err := d.driver.WaitForFences(true, common.NoTimeout, fs...)
	return check(res, err, "wait for fences")
}

func (d *Device) ResetFences(fences ...gpu.Fence) error {
	fs, err := d.resolveFences(fences)
	if err != nil {
		return err
	}
	res, err := d.driver.ResetFences(fs...)
	return check(res, err, "reset fences")
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, signal gpu.Semaphore) (int, error) {
	sc, ok := d.swapchains.Get(gpu.Handle(swapchain))
	if !ok {
		return 0, unknown("swapchain", gpu.Handle(swapchain))
	}
	sem, ok := d.semaphores.Get(gpu.Handle(signal))
	if !ok {
		return 0, unknown("semaphore", gpu.Handle(signal))
	}
	index, res, err := d.swapchain.AcquireNextImage(sc, common.NoTimeout, &sem, nil)
	err = check(res, err, "acquire next image")
	if err != nil && !errors.Is(err, gpu.ErrSuboptimal) {
		return 0, err
	}
	// Suboptimal still acquired the image and will signal sem.
	return index, err
}

func (d *Device) QueueSubmit(queue gpu.Queue, fence gpu.Fence, info gpu.SubmitInfo) error {
	q, ok := d.queues.Get(gpu.Handle(queue))
	if !ok {
		return unknown("queue", gpu.Handle(queue))
	}
	var fencePtr *core1_0.Fence
	if fence != 0 {
		f, ok := d.fences.Get(gpu.Handle(fence))
		if !ok {
			return unknown("fence", gpu.Handle(fence))
		}
		fencePtr = &f
	}

	wait, err := d.resolveSemaphores(info.WaitSemaphores)
	if err != nil {
		return err
	}
	signal, err := d.resolveSemaphores(info.SignalSemaphores)
	if err != nil {
		return err
	}
	stages := make([]core1_0.PipelineStageFlags, 0, len(info.WaitDstStageMask))
	for _, s := range info.WaitDstStageMask {
		stages = append(stages, core1_0.PipelineStageFlags(s))
	}
	buffers := make([]core1_0.CommandBuffer, 0, len(info.CommandBuffers))
	for _, h := range info.CommandBuffers {
		buf, ok := d.commandBuffer(h)
		if !ok {
			return unknown("command buffer", gpu.Handle(h))
		}
		buffers = append(buffers, buf)
	}

	res, err := d.driver.QueueSubmit(q, fencePtr, core1_0.SubmitInfo{
		WaitSemaphores:   wait,
		WaitDstStageMask: stages,
		CommandBuffers:   buffers,
		SignalSemaphores: signal,
	})
	return check(res, err, "queue submit")
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) error {
	q, ok := d.queues.Get(gpu.Handle(queue))
	if !ok {
		return unknown("queue", gpu.Handle(queue))
	}
	wait, err := d.resolveSemaphores(info.WaitSemaphores)
	if err != nil {
		return err
	}
	swapchains := make([]khr_swapchain.Swapchain, 0, len(info.Swapchains))
	for _, h := range info.Swapchains {
		sc, ok := d.swapchains.Get(gpu.Handle(h))
		if !ok {
			return unknown("swapchain", gpu.Handle(h))
		}
		swapchains = append(swapchains, sc)
	}

	res, err := d.swapchain.QueuePresent(q, khr_swapchain.PresentInfo{
		WaitSemaphores: wait,
		Swapchains:     swapchains,
		ImageIndices:   info.ImageIndices,
	})
	return check(res, err, "queue present")
}

// Destroy releases the logical device, first destroying anything created
// through it that is still alive, children before parents.
func (d *Device) Destroy() {
	d.destroyRemaining()
	d.driver.DestroyDevice(nil)
}

func (d *Device) destroyRemaining() {
	d.fences.Each(func(h gpu.Handle, _ core1_0.Fence) { d.DestroyFence(gpu.Fence(h)) })
	d.semaphores.Each(func(h gpu.Handle, _ core1_0.Semaphore) { d.DestroySemaphore(gpu.Semaphore(h)) })
	d.commandPools.Each(func(h gpu.Handle, _ core1_0.CommandPool) { d.DestroyCommandPool(gpu.CommandPool(h)) })
	d.framebuffers.Each(func(h gpu.Handle, _ core1_0.Framebuffer) { d.DestroyFramebuffer(gpu.Framebuffer(h)) })
	d.pipelines.Each(func(h gpu.Handle, _ core1_0.Pipeline) { d.DestroyPipeline(gpu.Pipeline(h)) })
	d.layouts.Each(func(h gpu.Handle, _ core1_0.PipelineLayout) { d.DestroyPipelineLayout(gpu.PipelineLayout(h)) })
	d.renderPasses.Each(func(h gpu.Handle, _ core1_0.RenderPass) { d.DestroyRenderPass(gpu.RenderPass(h)) })
	d.shaderModules.Each(func(h gpu.Handle, _ core1_0.ShaderModule) { d.DestroyShaderModule(gpu.ShaderModule(h)) })
	d.imageViews.Each(func(h gpu.Handle, _ core1_0.ImageView) { d.DestroyImageView(gpu.ImageView(h)) })
	d.swapchains.Each(func(h gpu.Handle, _ khr_swapchain.Swapchain) { d.DestroySwapchain(gpu.Swapchain(h)) })
}

func (d *Device) resolveSurface(h gpu.Surface) (khr_surface.Surface, error) {
	s, ok := d.surfaces.Get(gpu.Handle(h))
	if !ok {
		return s, unknown("surface", gpu.Handle(h))
	}
	return s, nil
}
