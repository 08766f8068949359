package render

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// frameSync is the set of synchronisation objects of one frame slot.
type frameSync struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       vk.Fence
}

// createFrames makes count frame slots. Fences start signalled so the first
// wait on every slot returns at once.
func (r *Renderer) createFrames(count int) error {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < count; i++ {
		r.frames = append(r.frames, frameSync{})
		frame := &r.frames[len(r.frames)-1]

		if err := vk.Error(
			vk.CreateSemaphore(r.dev.Logical, &semaphoreInfo, nil, &frame.imageAvailable),
		); err != nil {
			return fmt.Errorf("failed to create image available semaphore: %w", err)
		}

		if err := vk.Error(
			vk.CreateSemaphore(r.dev.Logical, &semaphoreInfo, nil, &frame.renderFinished),
		); err != nil {
			return fmt.Errorf("failed to create render finished semaphore: %w", err)
		}

		if err := vk.Error(
			vk.CreateFence(r.dev.Logical, &fenceInfo, nil, &frame.inFlight),
		); err != nil {
			return fmt.Errorf("failed to create in flight fence: %w", err)
		}
	}

	r.currentFrame = 0
	return nil
}

// destroyFrames releases every frame slot created so far.
func (r *Renderer) destroyFrames() {
	for _, frame := range r.frames {
		if frame.inFlight != vk.NullFence {
			vk.DestroyFence(r.dev.Logical, frame.inFlight, nil)
		}
		if frame.renderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(r.dev.Logical, frame.renderFinished, nil)
		}
		if frame.imageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(r.dev.Logical, frame.imageAvailable, nil)
		}
	}
	r.frames = nil
}

// owners records which frame slot last submitted work rendering into each
// swapchain image.
type owners []int

const noOwner = -1

func newOwners(images int) owners {
	o := make(owners, images)
	for i := range o {
		o[i] = noOwner
	}
	return o
}

// claim makes slot the owner of image. When another slot owned it, that slot
// is returned and its work has to finish before the image is reused.
func (o owners) claim(image uint32, slot int) (int, bool) {
	prev := o[image]
	o[image] = slot
	if prev == noOwner || prev == slot {
		return noOwner, false
	}
	return prev, true
}
