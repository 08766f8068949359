// Package swapchain manages the presentable images of the window surface and
// their replacement when the surface changes.
package swapchain

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/device"
)

// Swapchain is the set of images presented to the window together with one
// view per image. Images and Views always have the same length.
type Swapchain struct {
	lifecycle

	Handle      vk.Swapchain
	Images      []vk.Image
	Views       []vk.ImageView
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode
	Extent      vk.Extent2D

	dev   *device.Device
	vsync bool
}

// Create builds a swapchain for the surface of dev sized to width x height
// when the surface leaves the size open.
func Create(dev *device.Device, width, height int, vsync bool) (*Swapchain, error) {
	s := &Swapchain{
		Handle: vk.NullSwapchain,
		dev:    dev,
		vsync:  vsync,
	}

	if err := s.create(width, height); err != nil {
		return nil, err
	}

	return s, nil
}

// Recreate replaces the swapchain. The current handle is passed on as the old
// swapchain and is destroyed, together with its views, only after its
// replacement exists. The caller must make sure the device is idle. On
// success the state becomes Live.
func (s *Swapchain) Recreate(width, height int, vsync bool) error {
	s.vsync = vsync
	if err := s.create(width, height); err != nil {
		return err
	}

	s.Rebuilt()
	return nil
}

func (s *Swapchain) create(width, height int) error {
	support, err := s.dev.SurfaceSupport()
	if err != nil {
		return err
	}

	surfaceFormat, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return err
	}
	presentMode := ChoosePresentMode(support.PresentModes, s.vsync)
	extent := ChooseExtent(support.Capabilities, width, height)
	imageCount := ImageCount(support.Capabilities)

	oldSwapchain := s.Handle

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.dev.Surface,
		MinImageCount:    imageCount,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     PreTransform(support.Capabilities),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	families := s.dev.Families
	if !families.Shared() {
		indices := families.Unique()
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(indices))
		createInfo.PQueueFamilyIndices = indices
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(s.dev.Logical, &createInfo, nil, &swapChain)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create swap chain: %w", err)
	}

	images, err := swapchainImages(s.dev.Logical, swapChain)
	if err != nil {
		vk.DestroySwapchain(s.dev.Logical, swapChain, nil)
		return err
	}

	views := make([]vk.ImageView, 0, len(images))
	for i, image := range images {
		view, err := s.dev.CreateImageView(
			image,
			surfaceFormat.Format,
			vk.ImageAspectFlags(vk.ImageAspectColorBit),
		)
		if err != nil {
			destroyViews(s.dev.Logical, views)
			vk.DestroySwapchain(s.dev.Logical, swapChain, nil)
			return fmt.Errorf("failed to create image view %d: %w", i, err)
		}
		views = append(views, view)
	}

	s.release()

	s.Handle = swapChain
	s.Images = images
	s.Views = views
	s.Format = surfaceFormat.Format
	s.ColorSpace = surfaceFormat.ColorSpace
	s.PresentMode = presentMode
	s.Extent = extent

	log.WithFields(log.Fields{
		"images":  len(images),
		"format":  surfaceFormat.Format,
		"present": presentMode,
		"width":   extent.Width,
		"height":  extent.Height,
		"rebuilt": oldSwapchain != vk.NullSwapchain,
	}).Debug("swapchain created")

	return nil
}

func swapchainImages(device vk.Device, swapChain vk.Swapchain) ([]vk.Image, error) {
	var imagesCount uint32
	res := vk.GetSwapchainImages(device, swapChain, &imagesCount, nil)
	if err := vk.Error(res); err != nil {
		return nil, fmt.Errorf("failed to get swap chain images count: %w", err)
	}

	images := make([]vk.Image, imagesCount)
	res = vk.GetSwapchainImages(device, swapChain, &imagesCount, images)
	if err := vk.Error(res); err != nil {
		return nil, fmt.Errorf("failed to get swap chain images: %w", err)
	}

	return images[:imagesCount], nil
}

// Acquire returns the index of the next image to render into. The image is
// ready once sem and fence, either of which may be null, are signalled. A
// stale swapchain is reported through the second result and marks the
// swapchain Recreating. It is not an error.
func (s *Swapchain) Acquire(sem vk.Semaphore, fence vk.Fence) (uint32, bool, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(
		s.dev.Logical,
		s.Handle,
		math.MaxUint64,
		sem,
		fence,
		&imageIndex,
	)

	switch res {
	case vk.Success, vk.Suboptimal:
		return imageIndex, false, nil
	case vk.ErrorOutOfDate:
		s.MarkStale()
		return 0, true, nil
	default:
		return 0, false, fmt.Errorf("failed to acquire swap chain image: %w", vk.Error(res))
	}
}

// Present queues image index for presentation after wait is signalled. Out of
// date and suboptimal results mark the swapchain Recreating and are reported
// through the first result.
func (s *Swapchain) Present(queue vk.Queue, index uint32, wait vk.Semaphore) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{s.Handle},
		PImageIndices:  []uint32{index},
	}
	if wait != vk.NullSemaphore {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{wait}
	}

	res := vk.QueuePresent(queue, &presentInfo)
	switch res {
	case vk.Success:
		return false, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		s.MarkStale()
		return true, nil
	default:
		return false, fmt.Errorf("failed to present swap chain image: %w", vk.Error(res))
	}
}

// Destroy releases the views and the swapchain.
func (s *Swapchain) Destroy() {
	s.release()
}

func (s *Swapchain) release() {
	destroyViews(s.dev.Logical, s.Views)
	s.Views = nil
	s.Images = nil

	if s.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(s.dev.Logical, s.Handle, nil)
		s.Handle = vk.NullSwapchain
	}
}

func destroyViews(device vk.Device, views []vk.ImageView) {
	for _, view := range views {
		vk.DestroyImageView(device, view, nil)
	}
}
