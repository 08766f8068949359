package device

import (
	"fmt"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// Submit records a one time command buffer with record, runs it on the
// graphics queue and blocks until the GPU has finished it.
func (d *Device) Submit(record func(cb vk.CommandBuffer)) error {
	cbs := make([]vk.CommandBuffer, 1)
	alloc := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        d.CommandPool,
		CommandBufferCount: 1,
	}
	if err := vk.Error(vk.AllocateCommandBuffers(d.Logical, &alloc, cbs)); err != nil {
		return fmt.Errorf("allocating command buffer: %w", err)
	}
	defer vk.FreeCommandBuffers(d.Logical, d.CommandPool, 1, cbs)

	cb := cbs[0]
	begin := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cb, &begin)); err != nil {
		return fmt.Errorf("beginning command buffer: %w", err)
	}

	record(cb)

	if err := vk.Error(vk.EndCommandBuffer(cb)); err != nil {
		return fmt.Errorf("ending command buffer: %w", err)
	}

	return d.submitAndWait(cbs)
}

func (d *Device) submitAndWait(cbs []vk.CommandBuffer) error {
	var fence vk.Fence
	fenceInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if err := vk.Error(vk.CreateFence(d.Logical, &fenceInfo, nil, &fence)); err != nil {
		return fmt.Errorf("creating fence: %w", err)
	}
	defer vk.DestroyFence(d.Logical, fence, nil)

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cbs)),
		PCommandBuffers:    cbs,
	}}
	if err := vk.Error(vk.QueueSubmit(d.GraphicsQueue, 1, submit, fence)); err != nil {
		return fmt.Errorf("submitting to graphics queue: %w", err)
	}

	res := vk.WaitForFences(d.Logical, 1, []vk.Fence{fence}, vk.True, math.MaxUint64)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("waiting for one time commands: %w", err)
	}
	return nil
}
