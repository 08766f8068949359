package device

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Image is a 2D image together with the memory bound to it.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	Format vk.Format
	Width  uint32
	Height uint32

	device vk.Device
}

// ImageInfo describes an image for CreateImage.
type ImageInfo struct {
	Width         uint32
	Height        uint32
	Format        vk.Format
	Tiling        vk.ImageTiling
	Usage         vk.ImageUsageFlags
	Properties    vk.MemoryPropertyFlags
	InitialLayout vk.ImageLayout
}

// CreateImage creates an image and binds freshly allocated memory of a type
// matching info.Properties to it.
func (d *Device) CreateImage(info ImageInfo) (*Image, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        info.Format,
		Tiling:        info.Tiling,
		InitialLayout: info.InitialLayout,
		Usage:         info.Usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	img := &Image{
		Format: info.Format,
		Width:  info.Width,
		Height: info.Height,
		device: d.Logical,
	}

	res := vk.CreateImage(d.Logical, &imageInfo, nil, &img.Handle)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to create an image: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.Logical, img.Handle, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := d.FindMemoryType(memRequirements.MemoryTypeBits, info.Properties)
	if err != nil {
		vk.DestroyImage(d.Logical, img.Handle, nil)
		return nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(d.Logical, &allocInfo, nil, &img.Memory)
	if res != vk.Success {
		vk.DestroyImage(d.Logical, img.Handle, nil)
		return nil, fmt.Errorf("failed to allocate image memory: %w", vk.Error(res))
	}

	res = vk.BindImageMemory(d.Logical, img.Handle, img.Memory, 0)
	if res != vk.Success {
		img.Destroy()
		return nil, fmt.Errorf("failed to bind image memory: %w", vk.Error(res))
	}

	return img, nil
}

// WriteLinear maps a linearly tiled, host visible image and lets write fill
// its colour subresource. write receives the mapped bytes starting at the
// first texel and the distance between rows.
func (img *Image) WriteLinear(write func(dst []byte, rowPitch int) error) error {
	subresource := vk.ImageSubresource{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		MipLevel:   0,
		ArrayLayer: 0,
	}

	var layout vk.SubresourceLayout
	vk.GetImageSubresourceLayout(img.device, img.Handle, &subresource, &layout)
	layout.Deref()

	var pData unsafe.Pointer
	res := vk.MapMemory(img.device, img.Memory, layout.Offset, layout.Size, 0, &pData)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to map image memory: %w", err)
	}
	defer vk.UnmapMemory(img.device, img.Memory)

	dst := unsafe.Slice((*byte)(pData), int(layout.Size))
	return write(dst, int(layout.RowPitch))
}

// Destroy releases the image and its memory.
func (img *Image) Destroy() {
	if img.Handle != vk.NullImage {
		vk.DestroyImage(img.device, img.Handle, nil)
		img.Handle = vk.NullImage
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(img.device, img.Memory, nil)
		img.Memory = vk.NullDeviceMemory
	}
}

// CreateImageView creates a 2D view of the whole image.
func (d *Device) CreateImageView(
	image vk.Image,
	format vk.Format,
	aspectFlags vk.ImageAspectFlags,
) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	res := vk.CreateImageView(d.Logical, &createInfo, nil, &imageView)
	if err := vk.Error(res); err != nil {
		return vk.NullImageView, fmt.Errorf("failed to create image view: %w", err)
	}

	return imageView, nil
}
