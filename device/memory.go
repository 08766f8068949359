package device

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrNoMemoryType is returned when no memory type satisfies both the
	// requirement filter and the requested property flags.
	ErrNoMemoryType = errors.New("failed to find suitable memory type")

	// ErrNoSupportedFormat is returned when none of the candidate formats
	// supports the requested features.
	ErrNoSupportedFormat = errors.New("could not find suitable format")
)

// FindMemoryType returns the first index among types whose bit is set in
// typeFilter and whose property flags contain properties.
func FindMemoryType(
	types []vk.MemoryType,
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	for i, memType := range types {
		if i >= 32 {
			break
		}

		if typeFilter&(1<<uint(i)) == 0 {
			continue
		}

		if memType.PropertyFlags&properties != properties {
			continue
		}

		return uint32(i), nil
	}

	return 0, fmt.Errorf("filter %#x, properties %#x: %w", typeFilter, properties, ErrNoMemoryType)
}

// FindMemoryType searches the memory types of the selected device.
func (d *Device) FindMemoryType(
	typeFilter uint32,
	properties vk.MemoryPropertyFlags,
) (uint32, error) {
	return FindMemoryType(d.memoryTypes(), typeFilter, properties)
}

func (d *Device) memoryTypes() []vk.MemoryType {
	count := d.MemoryProperties.MemoryTypeCount
	types := make([]vk.MemoryType, 0, count)
	for i := uint32(0); i < count; i++ {
		memType := d.MemoryProperties.MemoryTypes[i]
		memType.Deref()
		types = append(types, memType)
	}
	return types
}

// FormatQuery returns the driver reported properties of a format.
type FormatQuery func(format vk.Format) vk.FormatProperties

// FindSupportedFormat returns the first of candidates whose features for
// tiling include all of features.
func FindSupportedFormat(
	candidates []vk.Format,
	tiling vk.ImageTiling,
	features vk.FormatFeatureFlags,
	query FormatQuery,
) (vk.Format, error) {
	for _, format := range candidates {
		props := query(format)

		if tiling == vk.ImageTilingLinear &&
			(props.LinearTilingFeatures&features) == features {
			return format, nil
		}

		if tiling == vk.ImageTilingOptimal &&
			(props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return vk.FormatUndefined, ErrNoSupportedFormat
}

// DepthFormats are the depth formats tried by FindDepthFormat, most
// preferred first.
var DepthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindSupportedFormat queries the selected device.
func (d *Device) FindSupportedFormat(
	candidates []vk.Format,
	tiling vk.ImageTiling,
	features vk.FormatFeatureFlags,
) (vk.Format, error) {
	return FindSupportedFormat(candidates, tiling, features, d.formatProperties)
}

// FindDepthFormat returns a depth format usable as an optimally tiled depth
// stencil attachment.
func (d *Device) FindDepthFormat() (vk.Format, error) {
	return d.FindSupportedFormat(
		DepthFormats,
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
	)
}

func (d *Device) formatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.Physical, format, &props)
	props.Deref()
	return props
}

// HasStencilComponent reports whether a depth format has a stencil part.
func HasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}
