package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// Pipeline is the single-subpass render pass and the fixed-function
// triangle pipeline drawn inside it.
type Pipeline struct {
	RenderPass gpu.RenderPass
	Layout     gpu.PipelineLayout
	Pipeline   gpu.Pipeline
}

func renderPassCreateInfo(format gpu.Format) gpu.RenderPassCreateInfo {
	return gpu.RenderPassCreateInfo{
		Attachments: []gpu.AttachmentDescription{
			{
				Format:         format,
				Samples:        1,
				LoadOp:         gpu.AttachmentLoadOpClear,
				StoreOp:        gpu.AttachmentStoreOpStore,
				StencilLoadOp:  gpu.AttachmentLoadOpDontCare,
				StencilStoreOp: gpu.AttachmentStoreOpDontCare,
				InitialLayout:  gpu.ImageLayoutUndefined,
				FinalLayout:    gpu.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []gpu.SubpassDescription{
			{
				ColorAttachments: []gpu.AttachmentReference{
					{
						Attachment: 0,
						Layout:     gpu.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		// The image is only ours once the acquire semaphore has been waited
		// on at the color output stage.
		SubpassDependencies: []gpu.SubpassDependency{
			{
				SrcSubpass:    gpu.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  gpu.PipelineStageColorAttachmentOutput,
				DstStageMask:  gpu.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,
				DstAccessMask: gpu.AccessColorAttachmentWrite,
			},
		},
	}
}

func graphicsPipelineCreateInfo(vertex, fragment gpu.ShaderModule, extent gpu.Extent2D, layout gpu.PipelineLayout, renderPass gpu.RenderPass) gpu.GraphicsPipelineCreateInfo {
	return gpu.GraphicsPipelineCreateInfo{
		Stages: []gpu.ShaderStageCreateInfo{
			{Stage: gpu.StageVertex, Module: vertex, Name: "main"},
			{Stage: gpu.StageFragment, Module: fragment, Name: "main"},
		},
		InputAssemblyState: gpu.InputAssemblyState{
			Topology: gpu.PrimitiveTopologyTriangleList,
		},
		ViewportState: gpu.ViewportState{
			Viewports: []gpu.Viewport{
				{
					Width:    float32(extent.Width),
					Height:   float32(extent.Height),
					MinDepth: 0,
					MaxDepth: 1,
				},
			},
			Scissors: []gpu.Rect2D{
				{Extent: extent},
			},
		},
		RasterizationState: gpu.RasterizationState{
			PolygonMode: gpu.PolygonModeFill,
			CullMode:    gpu.CullModeBack,
			FrontFace:   gpu.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		MultisampleState: gpu.MultisampleState{
			RasterizationSamples: 1,
			MinSampleShading:     1.0,
		},
		ColorBlendState: gpu.ColorBlendState{
			Attachments: []gpu.ColorBlendAttachmentState{
				{
					BlendEnabled:   false,
					ColorWriteMask: gpu.ColorComponentRed | gpu.ColorComponentGreen | gpu.ColorComponentBlue | gpu.ColorComponentAlpha,
				},
			},
		},
		Layout:     layout,
		RenderPass: renderPass,
		Subpass:    0,
	}
}

// CreatePipeline builds the render pass for the swapchain format, an empty
// pipeline layout and the graphics pipeline. The shader modules only live
// for the duration of the call.
func CreatePipeline(dev *LogicalDevice, sc *Swapchain, shaders Shaders, t *Teardown) (*Pipeline, error) {
	vertexCode, fragmentCode, err := shaders.bytecode()
	if err != nil {
		return nil, err
	}

	device := dev.Device
	p := &Pipeline{}

	p.RenderPass, err = device.CreateRenderPass(renderPassCreateInfo(sc.Format.Format))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	t.Defer("render pass", func() {
		device.DestroyRenderPass(p.RenderPass)
		p.RenderPass = 0
	})

	p.Layout, err = device.CreatePipelineLayout()
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	t.Defer("pipeline layout", func() {
		device.DestroyPipelineLayout(p.Layout)
		p.Layout = 0
	})

	vertex, err := device.CreateShaderModule(vertexCode)
	if err != nil {
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer device.DestroyShaderModule(vertex)

	fragment, err := device.CreateShaderModule(fragmentCode)
	if err != nil {
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer device.DestroyShaderModule(fragment)

	p.Pipeline, err = device.CreateGraphicsPipeline(graphicsPipelineCreateInfo(vertex, fragment, sc.Extent, p.Layout, p.RenderPass))
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	t.Defer("graphics pipeline", func() {
		device.DestroyPipeline(p.Pipeline)
		p.Pipeline = 0
	})

	return p, nil
}
