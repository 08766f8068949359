package render

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/device"
	"vkviewer/lifetime"
	"vkviewer/mesh"
	"vkviewer/texture"
	"vkviewer/unsafer"
)

// MaxAnisotropy caps the sampler anisotropy below the device limit.
const MaxAnisotropy = 16

func (r *Renderer) createDepthResources(res *lifetime.Stack) error {
	extent := r.swapchain.Extent

	depthImage, err := r.dev.CreateImage(device.ImageInfo{
		Width:         extent.Width,
		Height:        extent.Height,
		Format:        r.depthFormat,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Properties:    vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return fmt.Errorf("could not create depth image: %w", err)
	}
	res.Defer(depthImage.Destroy)

	depthImageView, err := r.dev.CreateImageView(
		depthImage.Handle,
		r.depthFormat,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	)
	if err != nil {
		return fmt.Errorf("failed to create depth image view: %w", err)
	}
	res.Defer(func() {
		vk.DestroyImageView(r.dev.Logical, depthImageView, nil)
	})

	err = transitionImageLayout(
		r.dev,
		depthImage.Handle,
		r.depthFormat,
		vk.ImageLayoutUndefined,
		vk.ImageLayoutDepthStencilAttachmentOptimal,
	)
	if err != nil {
		return fmt.Errorf("transitioning depth image: %w", err)
	}

	r.depthImage = depthImage
	r.depthImageView = depthImageView

	return nil
}

func (r *Renderer) createFramebuffers(res *lifetime.Stack) error {
	extent := r.swapchain.Extent
	framebuffers := make([]vk.Framebuffer, 0, len(r.swapchain.Views))

	for i, swapChainView := range r.swapchain.Views {
		attachments := []vk.ImageView{
			swapChainView,
			r.depthImageView,
		}

		frameBufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      r.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var frameBuffer vk.Framebuffer
		result := vk.CreateFramebuffer(r.dev.Logical, &frameBufferInfo, nil, &frameBuffer)
		if err := vk.Error(result); err != nil {
			return fmt.Errorf("failed to create frame buffer %d: %w", i, err)
		}
		res.Defer(func() {
			vk.DestroyFramebuffer(r.dev.Logical, frameBuffer, nil)
		})

		framebuffers = append(framebuffers, frameBuffer)
	}

	r.framebuffers = framebuffers
	return nil
}

// createTextureImage uploads img through a linearly tiled staging image and
// leaves the device local copy ready for sampling.
func (r *Renderer) createTextureImage(res *lifetime.Stack, img *texture.Image) error {
	const format = vk.FormatR8g8b8a8Unorm

	staging, err := r.dev.CreateImage(device.ImageInfo{
		Width:  img.Width,
		Height: img.Height,
		Format: format,
		Tiling: vk.ImageTilingLinear,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) |
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		InitialLayout: vk.ImageLayoutPreinitialized,
	})
	if err != nil {
		return fmt.Errorf("creating staging image: %w", err)
	}
	defer staging.Destroy()

	if err := staging.WriteLinear(img.CopyTo); err != nil {
		return fmt.Errorf("writing texture pixels: %w", err)
	}

	textureImage, err := r.dev.CreateImage(device.ImageInfo{
		Width:  img.Width,
		Height: img.Height,
		Format: format,
		Tiling: vk.ImageTilingOptimal,
		Usage: vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
			vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		Properties:    vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		InitialLayout: vk.ImageLayoutPreinitialized,
	})
	if err != nil {
		return fmt.Errorf("creating texture image: %w", err)
	}
	res.Defer(textureImage.Destroy)

	steps := []struct {
		image    vk.Image
		old, new vk.ImageLayout
	}{
		{staging.Handle, vk.ImageLayoutPreinitialized, vk.ImageLayoutTransferSrcOptimal},
		{textureImage.Handle, vk.ImageLayoutPreinitialized, vk.ImageLayoutTransferDstOptimal},
	}
	for _, step := range steps {
		if err := transitionImageLayout(r.dev, step.image, format, step.old, step.new); err != nil {
			return fmt.Errorf("transition image layout: %w", err)
		}
	}

	if err := copyImage(r.dev, staging.Handle, textureImage.Handle, img.Width, img.Height); err != nil {
		return fmt.Errorf("copying image: %w", err)
	}

	err = transitionImageLayout(
		r.dev,
		textureImage.Handle,
		format,
		vk.ImageLayoutTransferDstOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal,
	)
	if err != nil {
		return fmt.Errorf("transition image layout to shader read: %w", err)
	}

	textureView, err := r.dev.CreateImageView(
		textureImage.Handle,
		format,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
	)
	if err != nil {
		return fmt.Errorf("creating texture image view: %w", err)
	}
	res.Defer(func() {
		vk.DestroyImageView(r.dev.Logical, textureView, nil)
	})

	r.textureImage = textureImage
	r.textureImageView = textureView

	log.WithFields(log.Fields{
		"width":  img.Width,
		"height": img.Height,
	}).Debug("texture uploaded")

	return nil
}

func (r *Renderer) createTextureSampler(res *lifetime.Stack) error {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}

	if r.dev.Anisotropy {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = min(MaxAnisotropy, r.dev.Properties.Limits.MaxSamplerAnisotropy)
	}

	var sampler vk.Sampler
	result := vk.CreateSampler(r.dev.Logical, &samplerInfo, nil, &sampler)
	if result != vk.Success {
		return fmt.Errorf("failed to create sampler: %w", vk.Error(result))
	}
	res.Defer(func() {
		vk.DestroySampler(r.dev.Logical, sampler, nil)
	})

	r.textureSampler = sampler
	return nil
}

func (r *Renderer) createGeometryBuffers(res *lifetime.Stack, m mesh.Mesh) error {
	vertexBuffer, err := r.dev.CreateDeviceLocalBuffer(
		unsafer.SliceToBytes(m.Vertices),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
	)
	if err != nil {
		return fmt.Errorf("creating vertex buffer: %w", err)
	}
	res.Defer(vertexBuffer.Destroy)

	indexBuffer, err := r.dev.CreateDeviceLocalBuffer(
		unsafer.SliceToBytes(m.Indices),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
	)
	if err != nil {
		return fmt.Errorf("creating index buffer: %w", err)
	}
	res.Defer(indexBuffer.Destroy)

	r.vertexBuffer = vertexBuffer
	r.indexBuffer = indexBuffer
	r.indexCount = uint32(len(m.Indices))

	log.WithFields(log.Fields{
		"vertices": len(m.Vertices),
		"indices":  len(m.Indices),
	}).Debug("geometry uploaded")

	return nil
}

// createUniformBuffers creates the host visible buffer written every frame
// and the device local buffer the shaders read from.
func (r *Renderer) createUniformBuffers(res *lifetime.Stack) error {
	var ubo UniformBufferObject
	size := vk.DeviceSize(len(unsafer.StructToBytes(&ubo)))

	staging, err := r.dev.CreateBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return fmt.Errorf("creating uniform staging buffer: %w", err)
	}
	res.Defer(staging.Destroy)

	uniform, err := r.dev.CreateBuffer(
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return fmt.Errorf("creating uniform buffer: %w", err)
	}
	res.Defer(uniform.Destroy)

	r.uniformStaging = staging
	r.uniformBuffer = uniform
	return nil
}

func (r *Renderer) createDescriptorPool(res *lifetime.Stack) error {
	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
		},
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       1,
	}

	var descriptorPool vk.DescriptorPool
	result := vk.CreateDescriptorPool(r.dev.Logical, &poolInfo, nil, &descriptorPool)
	if result != vk.Success {
		return fmt.Errorf("failed to create descriptor pool: %w", vk.Error(result))
	}
	res.Defer(func() {
		vk.DestroyDescriptorPool(r.dev.Logical, descriptorPool, nil)
	})

	r.descriptorPool = descriptorPool
	return nil
}

// createDescriptorSet allocates the single set and points it at the uniform
// buffer and the texture. The set is freed together with its pool.
func (r *Renderer) createDescriptorSet() error {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{r.descriptorSetLayout},
	}

	var descriptorSet vk.DescriptorSet
	result := vk.AllocateDescriptorSets(r.dev.Logical, &allocInfo, &descriptorSet)
	if result != vk.Success {
		return fmt.Errorf("failed to allocate descriptor set: %w", vk.Error(result))
	}

	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: r.uniformBuffer.Handle,
		Offset: 0,
		Range:  vk.DeviceSize(vk.WholeSize),
	}

	imageInfo := vk.DescriptorImageInfo{
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		ImageView:   r.textureImageView,
		Sampler:     r.textureSampler,
	}

	descriptorWrites := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSet,
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSet,
			DstBinding:      1,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
		},
	}

	vk.UpdateDescriptorSets(
		r.dev.Logical,
		uint32(len(descriptorWrites)),
		descriptorWrites,
		0,
		nil,
	)

	r.descriptorSet = descriptorSet
	return nil
}

// createCommandBuffers allocates and records one command buffer per
// framebuffer. They are recorded once and resubmitted every time their image
// comes up.
func (r *Renderer) createCommandBuffers(res *lifetime.Stack) error {
	count := uint32(len(r.framebuffers))

	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.dev.CommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	result := vk.AllocateCommandBuffers(r.dev.Logical, &allocInfo, commandBuffers)
	if err := vk.Error(result); err != nil {
		return fmt.Errorf("failed to allocate command buffers: %w", err)
	}
	res.Defer(func() {
		vk.FreeCommandBuffers(r.dev.Logical, r.dev.CommandPool, count, commandBuffers)
	})

	for i, commandBuffer := range commandBuffers {
		if err := r.recordCommandBuffer(commandBuffer, r.framebuffers[i]); err != nil {
			return fmt.Errorf("recording command buffer %d: %w", i, err)
		}
	}

	r.commandBuffers = commandBuffers
	return nil
}

func (r *Renderer) recordCommandBuffer(
	commandBuffer vk.CommandBuffer,
	framebuffer vk.Framebuffer,
) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}

	result := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := vk.Error(result); err != nil {
		return fmt.Errorf("cannot add begin command to the buffer: %w", err)
	}

	var clearValues [2]vk.ClearValue
	clearValues[0].SetColor([]float32{0, 0, 0, 1})
	clearValues[1].SetDepthStencil(1, 0)

	extent := r.swapchain.Extent

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      r.renderPass,
		Framebuffer:     framebuffer,
		RenderArea:      fullScissor(extent),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues[:],
	}

	vk.CmdBeginRenderPass(commandBuffer, &renderPassInfo, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, r.pipeline)

	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{fullViewport(extent)})
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{fullScissor(extent)})

	vertexBuffers := []vk.Buffer{r.vertexBuffer.Handle}
	offsets := []vk.DeviceSize{0}
	vk.CmdBindVertexBuffers(commandBuffer, 0, 1, vertexBuffers, offsets)
	vk.CmdBindIndexBuffer(commandBuffer, r.indexBuffer.Handle, 0, vk.IndexTypeUint32)

	vk.CmdBindDescriptorSets(
		commandBuffer,
		vk.PipelineBindPointGraphics,
		r.pipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{r.descriptorSet},
		0,
		nil,
	)

	vk.CmdDrawIndexed(commandBuffer, r.indexCount, 1, 0, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("recording commands to buffer failed: %w", err)
	}
	return nil
}
