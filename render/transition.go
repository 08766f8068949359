package render

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"vkviewer/device"
)

// ErrUnsupportedTransition is returned for image layout changes the renderer
// never performs.
var ErrUnsupportedTransition = errors.New("unsupported layout transition")

// Barrier holds the access masks, pipeline stages and aspect of an image
// layout transition.
type Barrier struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	Aspect    vk.ImageAspectFlags
}

// Transition returns the barrier parameters for moving an image of format
// from oldLayout to newLayout.
func Transition(format vk.Format, oldLayout, newLayout vk.ImageLayout) (Barrier, error) {
	b := Barrier{
		Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}

	switch {
	case oldLayout == vk.ImageLayoutPreinitialized &&
		newLayout == vk.ImageLayoutTransferSrcOptimal:

		b.SrcAccess = vk.AccessFlags(vk.AccessHostWriteBit)
		b.DstAccess = vk.AccessFlags(vk.AccessTransferReadBit)
		b.SrcStage = vk.PipelineStageFlags(vk.PipelineStageHostBit)
		b.DstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case oldLayout == vk.ImageLayoutPreinitialized &&
		newLayout == vk.ImageLayoutTransferDstOptimal:

		b.SrcAccess = vk.AccessFlags(vk.AccessHostWriteBit)
		b.DstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		b.SrcStage = vk.PipelineStageFlags(vk.PipelineStageHostBit)
		b.DstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	case oldLayout == vk.ImageLayoutTransferDstOptimal &&
		newLayout == vk.ImageLayoutShaderReadOnlyOptimal:

		b.SrcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		b.DstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		b.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		b.DstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)

	case oldLayout == vk.ImageLayoutUndefined &&
		newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal:

		b.Aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if device.HasStencilComponent(format) {
			b.Aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		b.SrcAccess = 0
		b.DstAccess = vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		b.SrcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		b.DstStage = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)

	default:
		return Barrier{}, fmt.Errorf("%d to %d: %w", oldLayout, newLayout, ErrUnsupportedTransition)
	}

	return b, nil
}

// transitionImageLayout records and submits a barrier moving image from
// oldLayout to newLayout. It returns once the GPU has executed it.
func transitionImageLayout(
	dev *device.Device,
	image vk.Image,
	format vk.Format,
	oldLayout vk.ImageLayout,
	newLayout vk.ImageLayout,
) error {
	params, err := Transition(format, oldLayout, newLayout)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       params.SrcAccess,
		DstAccessMask:       params.DstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: params.Aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	return dev.Submit(func(cb vk.CommandBuffer) {
		vk.CmdPipelineBarrier(cb, params.SrcStage, params.DstStage, 0,
			0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	})
}

// copyImage copies the colour subresource of src into dst. Both must have
// the given size and be in the transfer src and transfer dst layouts.
func copyImage(dev *device.Device, src, dst vk.Image, width, height uint32) error {
	color := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LayerCount: 1,
	}
	region := vk.ImageCopy{
		SrcSubresource: color,
		DstSubresource: color,
		Extent:         vk.Extent3D{Width: width, Height: height, Depth: 1},
	}

	return dev.Submit(func(cb vk.CommandBuffer) {
		vk.CmdCopyImage(cb,
			src, vk.ImageLayoutTransferSrcOptimal,
			dst, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageCopy{region})
	})
}
