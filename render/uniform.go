package render

import (
	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"

	"vkviewer/device"
)

// UniformBufferObject is the per-frame transform block bound at binding 0 of
// the vertex shader.
type UniformBufferObject struct {
	Model linmath.Mat4x4
	View  linmath.Mat4x4
	Proj  linmath.Mat4x4
}

// DegreesPerSecond is the model's rotation speed about the vertical axis.
const DegreesPerSecond = 90

var (
	eye    = linmath.Vec3{2, 2, 2}
	center = linmath.Vec3{0, 0, 0}
	up     = linmath.Vec3{0, 0, 1}
)

// NewUniform computes the transforms for elapsed seconds of animation drawn
// into an image of extent.
func NewUniform(elapsed float64, extent vk.Extent2D) UniformBufferObject {
	var ubo UniformBufferObject

	angle := linmath.DegreesToRadians(float32(elapsed * DegreesPerSecond))
	ubo.Model.Identity()
	ubo.Model.RotateZ(&ubo.Model, angle)

	ubo.View.LookAt(&eye, &center, &up)

	aspect := float32(1)
	if extent.Height != 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	ubo.Proj.Perspective(linmath.DegreesToRadians(45), aspect, 0.1, 10)

	// Vulkan clip space Y points down.
	ubo.Proj[1][1] *= -1

	return ubo
}

// Clock returns the seconds elapsed since some fixed point.
type Clock func() float64

// NewClock returns a monotonic clock starting at zero.
func NewClock() Clock {
	start := hrtime.Now()
	return func() float64 {
		return (hrtime.Now() - start).Seconds()
	}
}

// UniformCopyBarriers returns the buffer barriers surrounding the copy into
// the shared uniform buffer. The first orders the copy after vertex shader
// reads by frames still in flight. The second makes the copied bytes visible
// to the next vertex shader read.
func UniformCopyBarriers() (before, after Barrier) {
	before = Barrier{
		SrcAccess: vk.AccessFlags(vk.AccessUniformReadBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	}
	after = Barrier{
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessUniformReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
	}
	return before, after
}

func cmdBufferBarrier(cb vk.CommandBuffer, b Barrier, buffer vk.Buffer) {
	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       b.SrcAccess,
		DstAccessMask:       b.DstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              buffer,
		Size:                vk.DeviceSize(vk.WholeSize),
	}

	vk.CmdPipelineBarrier(cb, b.SrcStage, b.DstStage, 0,
		0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

// copyUniform copies size bytes from src into the uniform buffer dst between
// the barriers of UniformCopyBarriers and waits for the copy to finish.
func copyUniform(dev *device.Device, src, dst vk.Buffer, size vk.DeviceSize) error {
	before, after := UniformCopyBarriers()

	return dev.Submit(func(cb vk.CommandBuffer) {
		cmdBufferBarrier(cb, before, dst)
		vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{{Size: size}})
		cmdBufferBarrier(cb, after, dst)
	})
}
