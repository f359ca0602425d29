package vk

import (
	"github.com/sagitario/engine/gpu"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// gpu enumerations carry Vulkan's numeric values, so most conversions
// here are plain casts.

func extentFrom(e core1_0.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func extentTo(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func rectTo(r gpu.Rect2D) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: extentTo(r.Extent),
	}
}

func sharingModeTo(m gpu.SharingMode) core1_0.SharingMode {
	if m == gpu.SharingModeConcurrent {
		return core1_0.SharingModeConcurrent
	}
	return core1_0.SharingModeExclusive
}

func swapchainCreateInfo(info gpu.SwapchainCreateInfo, surface khr_surface.Surface) khr_swapchain.SwapchainCreateInfo {
	return khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.ImageFormat),
		ImageColorSpace:  khr_surface.ColorSpace(info.ImageColorSpace),
		ImageExtent:      extentTo(info.ImageExtent),
		ImageArrayLayers: info.ImageArrayLayers,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingModeTo(info.ImageSharingMode),
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   khr_surface.SurfaceTransformFlags(info.PreTransform),
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        info.Clipped,
	}
}

func subpassIndex(i int) int {
	if i == gpu.SubpassExternal {
		return core1_0.SubpassExternal
	}
	return i
}

func renderPassCreateInfo(info gpu.RenderPassCreateInfo) core1_0.RenderPassCreateInfo {
	var out core1_0.RenderPassCreateInfo
	for _, a := range info.Attachments {
		out.Attachments = append(out.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(a.Format),
			Samples:        core1_0.SampleCountFlags(a.Samples),
			LoadOp:         core1_0.AttachmentLoadOp(a.LoadOp),
			StoreOp:        core1_0.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: core1_0.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  core1_0.ImageLayout(a.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(a.FinalLayout),
		})
	}
	for _, s := range info.Subpasses {
		subpass := core1_0.SubpassDescription{PipelineBindPoint: core1_0.PipelineBindPointGraphics}
		for _, ref := range s.ColorAttachments {
			subpass.ColorAttachments = append(subpass.ColorAttachments, core1_0.AttachmentReference{
				Attachment: ref.Attachment,
				Layout:     core1_0.ImageLayout(ref.Layout),
			})
		}
		out.Subpasses = append(out.Subpasses, subpass)
	}
	for _, d := range info.SubpassDependencies {
		out.SubpassDependencies = append(out.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass:    subpassIndex(d.SrcSubpass),
			DstSubpass:    subpassIndex(d.DstSubpass),
			SrcStageMask:  core1_0.PipelineStageFlags(d.SrcStageMask),
			DstStageMask:  core1_0.PipelineStageFlags(d.DstStageMask),
			SrcAccessMask: core1_0.AccessFlags(d.SrcAccessMask),
			DstAccessMask: core1_0.AccessFlags(d.DstAccessMask),
		})
	}
	return out
}

func (d *Device) graphicsPipelineCreateInfo(info gpu.GraphicsPipelineCreateInfo) (core1_0.GraphicsPipelineCreateInfo, error) {
	out := core1_0.GraphicsPipelineCreateInfo{
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopology(info.InputAssemblyState.Topology),
			PrimitiveRestartEnable: info.InputAssemblyState.PrimitiveRestartEnable,
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        info.RasterizationState.DepthClampEnable,
			RasterizerDiscardEnable: info.RasterizationState.RasterizerDiscardEnable,
			PolygonMode:             core1_0.PolygonMode(info.RasterizationState.PolygonMode),
			CullMode:                core1_0.CullModeFlags(info.RasterizationState.CullMode),
			FrontFace:               core1_0.FrontFace(info.RasterizationState.FrontFace),
			DepthBiasEnable:         info.RasterizationState.DepthBiasEnable,
			LineWidth:               info.RasterizationState.LineWidth,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  info.MultisampleState.SampleShadingEnable,
			RasterizationSamples: core1_0.SampleCountFlags(info.MultisampleState.RasterizationSamples),
			MinSampleShading:     info.MultisampleState.MinSampleShading,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: info.ColorBlendState.LogicOpEnabled,
			LogicOp:        core1_0.LogicOpCopy,
			BlendConstants: info.ColorBlendState.BlendConstants,
		},
		Subpass:           info.Subpass,
		BasePipelineIndex: -1,
	}

	for _, s := range info.Stages {
		module, ok := d.shaderModules.Get(gpu.Handle(s.Module))
		if !ok {
			return out, unknown("shader module", gpu.Handle(s.Module))
		}
		out.Stages = append(out.Stages, core1_0.PipelineShaderStageCreateInfo{
			Stage:  core1_0.ShaderStageFlags(s.Stage),
			Module: module,
			Name:   s.Name,
		})
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{}
	for _, v := range info.ViewportState.Viewports {
		viewport.Viewports = append(viewport.Viewports, core1_0.Viewport{
			X:        v.X,
			Y:        v.Y,
			Width:    v.Width,
			Height:   v.Height,
			MinDepth: v.MinDepth,
			MaxDepth: v.MaxDepth,
		})
	}
	for _, r := range info.ViewportState.Scissors {
		viewport.Scissors = append(viewport.Scissors, rectTo(r))
	}
	out.ViewportState = viewport

	for _, a := range info.ColorBlendState.Attachments {
		out.ColorBlendState.Attachments = append(out.ColorBlendState.Attachments, core1_0.PipelineColorBlendAttachmentState{
			BlendEnabled:   a.BlendEnabled,
			ColorWriteMask: core1_0.ColorComponentFlags(a.ColorWriteMask),
		})
	}

	layout, ok := d.layouts.Get(gpu.Handle(info.Layout))
	if !ok {
		return out, unknown("pipeline layout", gpu.Handle(info.Layout))
	}
	renderPass, ok := d.renderPasses.Get(gpu.Handle(info.RenderPass))
	if !ok {
		return out, unknown("render pass", gpu.Handle(info.RenderPass))
	}
	out.Layout = layout
	out.RenderPass = renderPass
	return out, nil
}
