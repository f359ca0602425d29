package gpu

// Enumerations below carry the numeric values of their Vulkan
// counterparts.

type ImageLayout int32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x00000001
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x00000400
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x00002000
)

type AccessFlags uint32

const (
	AccessColorAttachmentRead  AccessFlags = 0x00000080
	AccessColorAttachmentWrite AccessFlags = 0x00000100
)

// SubpassExternal refers to commands outside the render pass in a
// SubpassDependency.
const SubpassExternal = -1

type PrimitiveTopology int32

const (
	PrimitiveTopologyPointList     PrimitiveTopology = 0
	PrimitiveTopologyLineList      PrimitiveTopology = 1
	PrimitiveTopologyTriangleList  PrimitiveTopology = 3
	PrimitiveTopologyTriangleStrip PrimitiveTopology = 4
)

type PolygonMode int32

const (
	PolygonModeFill  PolygonMode = 0
	PolygonModeLine  PolygonMode = 1
	PolygonModePoint PolygonMode = 2
)

type CullModeFlags uint32

const (
	CullModeNone  CullModeFlags = 0
	CullModeFront CullModeFlags = 1
	CullModeBack  CullModeFlags = 2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type ShaderStageFlags uint32

const (
	StageVertex   ShaderStageFlags = 0x00000001
	StageFragment ShaderStageFlags = 0x00000010
)

type ColorComponentFlags uint32

const (
	ColorComponentRed ColorComponentFlags = 1 << iota
	ColorComponentGreen
	ColorComponentBlue
	ColorComponentAlpha
)

type InstanceCreateInfo struct {
	ApplicationName       string
	EngineName            string
	EnabledExtensionNames []string
	EnabledLayerNames     []string
	// EnumeratePortability sets the portability-enumeration instance flag.
	EnumeratePortability bool
	// Debug, when set, is chained into instance creation so messages from
	// vkCreateInstance itself reach the callback.
	Debug *DebugMessengerCreateInfo
}

type DeviceQueueCreateInfo struct {
	QueueFamilyIndex int
	QueuePriorities  []float32
}

type DeviceCreateInfo struct {
	QueueCreateInfos      []DeviceQueueCreateInfo
	EnabledExtensionNames []string
	EnabledLayerNames     []string
}

type SwapchainCreateInfo struct {
	Surface Surface

	MinImageCount    int
	ImageFormat      Format
	ImageColorSpace  ColorSpace
	ImageExtent      Extent2D
	ImageArrayLayers int

	ImageSharingMode   SharingMode
	QueueFamilyIndices []int

	PreTransform uint32
	PresentMode  PresentMode
	Clipped      bool
}

// ImageViewCreateInfo describes a 2D color view over a single mip level
// and array layer.
type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

type AttachmentDescription struct {
	Format         Format
	Samples        int
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDescription struct {
	ColorAttachments []AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass    int
	DstSubpass    int
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type RenderPassCreateInfo struct {
	Attachments         []AttachmentDescription
	Subpasses           []SubpassDescription
	SubpassDependencies []SubpassDependency
}

type Offset2D struct {
	X int
	Y int
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type ShaderStageCreateInfo struct {
	Stage  ShaderStageFlags
	Module ShaderModule
	Name   string
}

type InputAssemblyState struct {
	Topology               PrimitiveTopology
	PrimitiveRestartEnable bool
}

type ViewportState struct {
	Viewports []Viewport
	Scissors  []Rect2D
}

type RasterizationState struct {
	DepthClampEnable        bool
	RasterizerDiscardEnable bool
	PolygonMode             PolygonMode
	CullMode                CullModeFlags
	FrontFace               FrontFace
	DepthBiasEnable         bool
	LineWidth               float32
}

type MultisampleState struct {
	RasterizationSamples int
	SampleShadingEnable  bool
	MinSampleShading     float32
}

type ColorBlendAttachmentState struct {
	BlendEnabled   bool
	ColorWriteMask ColorComponentFlags
}

type ColorBlendState struct {
	LogicOpEnabled bool
	BlendConstants [4]float32
	Attachments    []ColorBlendAttachmentState
}

type GraphicsPipelineCreateInfo struct {
	Stages             []ShaderStageCreateInfo
	InputAssemblyState InputAssemblyState
	ViewportState      ViewportState
	RasterizationState RasterizationState
	MultisampleState   MultisampleState
	ColorBlendState    ColorBlendState
	Layout             PipelineLayout
	RenderPass         RenderPass
	Subpass            int
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       int
	Height      int
	Layers      int
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
	ClearColor  [4]float32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitDstStageMask []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchains     []Swapchain
	ImageIndices   []int
}
