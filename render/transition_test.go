package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/render"
)

func TestTransition(t *testing.T) {
	c := qt.New(t)

	color := vk.ImageAspectFlags(vk.ImageAspectColorBit)

	tests := []struct {
		name      string
		format    vk.Format
		old, new  vk.ImageLayout
		srcAccess vk.AccessFlags
		dstAccess vk.AccessFlags
		aspect    vk.ImageAspectFlags
	}{
		{
			name:      "staging source",
			format:    vk.FormatR8g8b8a8Unorm,
			old:       vk.ImageLayoutPreinitialized,
			new:       vk.ImageLayoutTransferSrcOptimal,
			srcAccess: vk.AccessFlags(vk.AccessHostWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
			aspect:    color,
		},
		{
			name:      "texture destination",
			format:    vk.FormatR8g8b8a8Unorm,
			old:       vk.ImageLayoutPreinitialized,
			new:       vk.ImageLayoutTransferDstOptimal,
			srcAccess: vk.AccessFlags(vk.AccessHostWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			aspect:    color,
		},
		{
			name:      "texture ready",
			format:    vk.FormatR8g8b8a8Unorm,
			old:       vk.ImageLayoutTransferDstOptimal,
			new:       vk.ImageLayoutShaderReadOnlyOptimal,
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			aspect:    color,
		},
		{
			name:      "depth only",
			format:    vk.FormatD32Sfloat,
			old:       vk.ImageLayoutUndefined,
			new:       vk.ImageLayoutDepthStencilAttachmentOptimal,
			dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			aspect:    vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		},
		{
			name:      "depth with stencil",
			format:    vk.FormatD24UnormS8Uint,
			old:       vk.ImageLayoutUndefined,
			new:       vk.ImageLayoutDepthStencilAttachmentOptimal,
			dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			aspect:    vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit),
		},
	}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			b, err := render.Transition(test.format, test.old, test.new)
			c.Assert(err, qt.IsNil)
			c.Assert(b.SrcAccess, qt.Equals, test.srcAccess)
			c.Assert(b.DstAccess, qt.Equals, test.dstAccess)
			c.Assert(b.Aspect, qt.Equals, test.aspect)
		})
	}
}

func TestTransitionUnsupported(t *testing.T) {
	c := qt.New(t)

	pairs := [][2]vk.ImageLayout{
		{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal},
		{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal},
		{vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutPreinitialized},
		{vk.ImageLayoutPresentSrc, vk.ImageLayoutColorAttachmentOptimal},
	}

	for _, pair := range pairs {
		_, err := render.Transition(vk.FormatR8g8b8a8Unorm, pair[0], pair[1])
		c.Assert(err, qt.ErrorIs, render.ErrUnsupportedTransition)
	}
}
