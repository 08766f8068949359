package render

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"vkviewer/mesh"
	"vkviewer/unsafer"
)

const entryPoint = "main\x00"

// Attachment slots of the single subpass.
const (
	colorSlot uint32 = iota
	depthSlot
)

// attachments describes the color target followed by the depth target. Both
// are cleared on load. Only color survives the pass, ready for presenting.
func attachments(color, depth vk.Format) []vk.AttachmentDescription {
	cleared := func(format vk.Format, store vk.AttachmentStoreOp,
		final vk.ImageLayout) vk.AttachmentDescription {
		return vk.AttachmentDescription{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        store,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    final,
		}
	}

	return []vk.AttachmentDescription{
		colorSlot: cleared(color, vk.AttachmentStoreOpStore, vk.ImageLayoutPresentSrc),
		depthSlot: cleared(depth, vk.AttachmentStoreOpDontCare,
			vk.ImageLayoutDepthStencilAttachmentOptimal),
	}
}

// externalDependency makes the subpass wait for the previous use of the color
// and depth attachments before writing them.
func externalDependency() vk.SubpassDependency {
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit |
		vk.PipelineStageEarlyFragmentTestsBit)

	return vk.SubpassDependency{
		SrcSubpass:   vk.SubpassExternal,
		SrcStageMask: stages,
		DstStageMask: stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit |
			vk.AccessDepthStencilAttachmentWriteBit),
	}
}

func (r *Renderer) createRenderPass() (vk.RenderPass, error) {
	depthRef := vk.AttachmentReference{
		Attachment: depthSlot,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: colorSlot,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &depthRef,
	}

	descs := attachments(r.swapchain.Format, r.depthFormat)
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{externalDependency()},
	}

	var pass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(r.dev.Logical, &info, nil, &pass)); err != nil {
		return vk.NullRenderPass, fmt.Errorf("creating render pass: %w", err)
	}
	return pass, nil
}

// descriptorBindings lists the uniform block read by the vertex stage and the
// texture sampled by the fragment stage.
func descriptorBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

func (r *Renderer) createDescriptorSetLayout() (vk.DescriptorSetLayout, error) {
	bindings := descriptorBindings()
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(r.dev.Logical, &info, nil, &layout)); err != nil {
		return vk.NullDescriptorSetLayout, fmt.Errorf("creating descriptor set layout: %w", err)
	}
	return layout, nil
}

// fixedStates holds the non-programmable pipeline stages. Viewport and
// scissor are dynamic and set when the command buffers are recorded.
type fixedStates struct {
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewport      vk.PipelineViewportStateCreateInfo
	dynamic       vk.PipelineDynamicStateCreateInfo
	raster        vk.PipelineRasterizationStateCreateInfo
	multisample   vk.PipelineMultisampleStateCreateInfo
	depthStencil  vk.PipelineDepthStencilStateCreateInfo
	blend         vk.PipelineColorBlendStateCreateInfo
}

func newFixedStates(extent vk.Extent2D) *fixedStates {
	binding := mesh.GetVertexBindingDescription()
	attrs := mesh.GetVertexAttributeDescriptions()
	dynamic := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	allChannels := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
		vk.ColorComponentBBit | vk.ColorComponentABit)

	return &fixedStates{
		vertexInput: vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   1,
			PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
			VertexAttributeDescriptionCount: uint32(len(attrs)),
			PVertexAttributeDescriptions:    attrs[:],
		},
		inputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		viewport: vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports:    []vk.Viewport{fullViewport(extent)},
			ScissorCount:  1,
			PScissors:     []vk.Rect2D{fullScissor(extent)},
		},
		dynamic: vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamic)),
			PDynamicStates:    dynamic,
		},
		raster: vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1,
		},
		multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			MinSampleShading:     1,
		},
		depthStencil: vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.True,
			DepthWriteEnable: vk.True,
			DepthCompareOp:   vk.CompareOpLess,
			MaxDepthBounds:   1,
		},
		blend: vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: allChannels,
			}},
		},
	}
}

func shaderStage(stage vk.ShaderStageFlagBits,
	module vk.ShaderModule) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  entryPoint,
	}
}

// createGraphicsPipeline builds the pipeline layout and the pipeline for the
// current render pass. The layout is returned even when the pipeline cannot
// be created so the caller can release it.
func (r *Renderer) createGraphicsPipeline() (vk.PipelineLayout, vk.Pipeline, error) {
	var stages []vk.PipelineShaderStageCreateInfo
	for _, s := range []struct {
		name  string
		stage vk.ShaderStageFlagBits
		code  []byte
	}{
		{"vertex", vk.ShaderStageVertexBit, r.program.Vertex},
		{"fragment", vk.ShaderStageFragmentBit, r.program.Fragment},
	} {
		module, err := r.createShaderModule(s.code)
		if err != nil {
			return vk.NullPipelineLayout, vk.NullPipeline,
				fmt.Errorf("creating %s shader module: %w", s.name, err)
		}
		defer vk.DestroyShaderModule(r.dev.Logical, module, nil)

		stages = append(stages, shaderStage(s.stage, module))
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{r.descriptorSetLayout},
	}

	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(r.dev.Logical, &layoutInfo, nil, &layout)); err != nil {
		return vk.NullPipelineLayout, vk.NullPipeline, fmt.Errorf("creating pipeline layout: %w", err)
	}

	fixed := newFixedStates(r.swapchain.Extent)
	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &fixed.vertexInput,
		PInputAssemblyState: &fixed.inputAssembly,
		PViewportState:      &fixed.viewport,
		PRasterizationState: &fixed.raster,
		PMultisampleState:   &fixed.multisample,
		PDepthStencilState:  &fixed.depthStencil,
		PColorBlendState:    &fixed.blend,
		PDynamicState:       &fixed.dynamic,
		Layout:              layout,
		RenderPass:          r.renderPass,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(r.dev.Logical, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := vk.Error(res); err != nil {
		return layout, vk.NullPipeline, fmt.Errorf("creating graphics pipeline: %w", err)
	}

	return layout, pipelines[0], nil
}

func (r *Renderer) createShaderModule(code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    unsafer.SliceBytesToUint32(code),
	}

	var module vk.ShaderModule
	err := vk.Error(vk.CreateShaderModule(r.dev.Logical, &info, nil, &module))
	return module, err
}

func fullViewport(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	}
}

func fullScissor(extent vk.Extent2D) vk.Rect2D {
	return vk.Rect2D{Extent: extent}
}
