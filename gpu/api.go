// Package gpu describes the slice of the Vulkan API the renderer drives.
//
// Objects are referred to by opaque handles; the backend that created a
// handle is the only one that can interpret it. Package gpu/vk implements
// the interfaces on top of a real driver and package gpu/gputest provides
// a recording fake for tests.
package gpu

// Window is the windowing collaborator: the renderer only ever asks it
// for the instance extensions its surface integration needs and for its
// drawable size in pixels.
type Window interface {
	RequiredInstanceExtensions() []string
	DrawableSize() (width, height int)
}

// Loader is the API entry point.
type Loader interface {
	AvailableExtensions() (map[string]struct{}, error)
	AvailableLayers() (map[string]struct{}, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
}

// Instance owns every instance-level object: debug messengers, surfaces
// and logical devices.
type Instance interface {
	CreateDebugMessenger(info DebugMessengerCreateInfo) (DebugMessenger, error)
	DestroyDebugMessenger(messenger DebugMessenger)

	CreateSurface(window Window) (Surface, error)
	DestroySurface(surface Surface)

	EnumeratePhysicalDevices() ([]PhysicalDevice, error)
	PhysicalDeviceProperties(device PhysicalDevice) (PhysicalDeviceProperties, error)
	QueueFamilyProperties(device PhysicalDevice) []QueueFamilyProperties
	DeviceExtensions(device PhysicalDevice) (map[string]struct{}, error)

	SurfaceSupport(device PhysicalDevice, surface Surface, queueFamily int) (bool, error)
	SurfaceCapabilities(device PhysicalDevice, surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(device PhysicalDevice, surface Surface) ([]SurfaceFormat, error)
	SurfacePresentModes(device PhysicalDevice, surface Surface) ([]PresentMode, error)

	CreateDevice(physicalDevice PhysicalDevice, info DeviceCreateInfo) (Device, error)

	Destroy()
}

// Device is a logical device and the parent of every object created
// through it. WaitForFences and AcquireNextImage block without a timeout.
type Device interface {
	GetQueue(queueFamily, index int) Queue
	WaitIdle() error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	DestroySwapchain(swapchain Swapchain)

	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)

	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(renderPass RenderPass)

	CreatePipelineLayout() (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)

	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateCommandPool(queueFamily int) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)

	BeginCommandBuffer(buffer CommandBuffer) error
	CmdBeginRenderPass(buffer CommandBuffer, info RenderPassBeginInfo) error
	CmdBindPipeline(buffer CommandBuffer, pipeline Pipeline)
	CmdDraw(buffer CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdEndRenderPass(buffer CommandBuffer)
	EndCommandBuffer(buffer CommandBuffer) error

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)

	// CreateFence creates a fence, initially signaled when signaled is true.
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	WaitForFences(fences ...Fence) error
	ResetFences(fences ...Fence) error

	// AcquireNextImage returns the acquired image index. When the image was
	// acquired from a suboptimal swapchain the index is valid, signal will
	// be signaled and the error wraps ErrSuboptimal.
	AcquireNextImage(swapchain Swapchain, signal Semaphore) (int, error)
	QueueSubmit(queue Queue, fence Fence, info SubmitInfo) error
	QueuePresent(queue Queue, info PresentInfo) error

	Destroy()
}
