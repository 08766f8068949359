package render

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func TestFixedStates(t *testing.T) {
	c := qt.New(t)

	s := newFixedStates(vk.Extent2D{Width: 800, Height: 600})

	c.Run("raster", func(c *qt.C) {
		c.Assert(s.raster.CullMode, qt.Equals, vk.CullModeFlags(vk.CullModeBackBit))
		c.Assert(s.raster.FrontFace, qt.Equals, vk.FrontFaceCounterClockwise)
		c.Assert(s.raster.PolygonMode, qt.Equals, vk.PolygonModeFill)
		c.Assert(s.raster.LineWidth, qt.Equals, float32(1))
		c.Assert(s.raster.RasterizerDiscardEnable, qt.Equals, vk.Bool32(vk.False))
	})

	c.Run("depth", func(c *qt.C) {
		c.Assert(s.depthStencil.DepthTestEnable, qt.Equals, vk.Bool32(vk.True))
		c.Assert(s.depthStencil.DepthWriteEnable, qt.Equals, vk.Bool32(vk.True))
		c.Assert(s.depthStencil.DepthCompareOp, qt.Equals, vk.CompareOpLess)
		c.Assert(s.depthStencil.StencilTestEnable, qt.Equals, vk.Bool32(vk.False))
	})

	c.Run("dynamic", func(c *qt.C) {
		c.Assert(s.dynamic.PDynamicStates, qt.DeepEquals, []vk.DynamicState{
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		})
		c.Assert(s.dynamic.DynamicStateCount, qt.Equals, uint32(2))
	})

	c.Run("viewport", func(c *qt.C) {
		c.Assert(s.viewport.PViewports, qt.HasLen, 1)
		vp := s.viewport.PViewports[0]
		c.Assert(vp.Width, qt.Equals, float32(800))
		c.Assert(vp.Height, qt.Equals, float32(600))
		c.Assert(vp.MinDepth, qt.Equals, float32(0))
		c.Assert(vp.MaxDepth, qt.Equals, float32(1))

		c.Assert(s.viewport.PScissors, qt.HasLen, 1)
		c.Assert(s.viewport.PScissors[0].Extent.Width, qt.Equals, uint32(800))
		c.Assert(s.viewport.PScissors[0].Extent.Height, qt.Equals, uint32(600))
	})

	c.Run("vertex input", func(c *qt.C) {
		c.Assert(s.inputAssembly.Topology, qt.Equals, vk.PrimitiveTopologyTriangleList)
		c.Assert(s.vertexInput.PVertexAttributeDescriptions, qt.HasLen,
			int(s.vertexInput.VertexAttributeDescriptionCount))
	})

	c.Run("blend", func(c *qt.C) {
		c.Assert(s.blend.PAttachments, qt.HasLen, 1)
		att := s.blend.PAttachments[0]
		c.Assert(att.BlendEnable, qt.Equals, vk.Bool32(vk.False))
		c.Assert(att.ColorWriteMask, qt.Equals, vk.ColorComponentFlags(0xf))
	})
}

func TestDescriptorBindings(t *testing.T) {
	c := qt.New(t)

	b := descriptorBindings()
	c.Assert(b, qt.HasLen, 2)

	c.Assert(b[0].Binding, qt.Equals, uint32(0))
	c.Assert(b[0].DescriptorType, qt.Equals, vk.DescriptorTypeUniformBuffer)
	c.Assert(b[0].StageFlags, qt.Equals, vk.ShaderStageFlags(vk.ShaderStageVertexBit))

	c.Assert(b[1].Binding, qt.Equals, uint32(1))
	c.Assert(b[1].DescriptorType, qt.Equals, vk.DescriptorTypeCombinedImageSampler)
	c.Assert(b[1].StageFlags, qt.Equals, vk.ShaderStageFlags(vk.ShaderStageFragmentBit))
}

func TestAttachments(t *testing.T) {
	c := qt.New(t)

	a := attachments(vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
	c.Assert(a, qt.HasLen, 2)

	color, depth := a[colorSlot], a[depthSlot]
	c.Assert(color.Format, qt.Equals, vk.FormatB8g8r8a8Srgb)
	c.Assert(color.StoreOp, qt.Equals, vk.AttachmentStoreOpStore)
	c.Assert(color.FinalLayout, qt.Equals, vk.ImageLayoutPresentSrc)

	c.Assert(depth.Format, qt.Equals, vk.FormatD32Sfloat)
	c.Assert(depth.StoreOp, qt.Equals, vk.AttachmentStoreOpDontCare)
	c.Assert(depth.FinalLayout, qt.Equals, vk.ImageLayoutDepthStencilAttachmentOptimal)

	for _, att := range a {
		c.Assert(att.LoadOp, qt.Equals, vk.AttachmentLoadOpClear)
		c.Assert(att.InitialLayout, qt.Equals, vk.ImageLayoutUndefined)
	}

	dep := externalDependency()
	c.Assert(dep.SrcSubpass, qt.Equals, uint32(vk.SubpassExternal))
	c.Assert(dep.DstSubpass, qt.Equals, uint32(0))
	depthWrite := vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	c.Assert(dep.DstAccessMask&depthWrite, qt.Equals, depthWrite)
}
