package swapchain

import (
	"cmp"
	"errors"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// ErrNoSurfaceFormats is returned when the surface advertises no formats.
var ErrNoSurfaceFormats = errors.New("surface reports no formats")

// DefaultSurfaceFormat is used when the surface has no preference and is
// preferred whenever it is advertised.
var DefaultSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// ChooseSurfaceFormat picks the colour format of the swapchain images. A lone
// undefined entry means any format may be used, in which case the default is
// returned. Otherwise the default is returned if advertised, else the first
// entry.
func ChooseSurfaceFormat(available []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(available) == 0 {
		return vk.SurfaceFormat{}, ErrNoSurfaceFormats
	}

	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return DefaultSurfaceFormat, nil
	}

	for _, format := range available {
		if format.Format == DefaultSurfaceFormat.Format &&
			format.ColorSpace == DefaultSurfaceFormat.ColorSpace {
			return format, nil
		}
	}

	return available[0], nil
}

// ChoosePresentMode returns mailbox or else immediate when vsync is off and
// the mode is available. FIFO is returned in every other case since every
// surface supports it.
func ChoosePresentMode(available []vk.PresentMode, vsync bool) vk.PresentMode {
	if !vsync {
		for _, preferred := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
			for _, mode := range available {
				if mode == preferred {
					return mode
				}
			}
		}
	}

	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent when it has one. When the
// surface leaves the size to the swapchain the requested size is clamped into
// the supported range.
func ChooseExtent(
	capabilities vk.SurfaceCapabilities,
	width, height int,
) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	return vk.Extent2D{
		Width: clamp(
			uint32(max(width, 0)),
			capabilities.MinImageExtent.Width,
			capabilities.MaxImageExtent.Width,
		),
		Height: clamp(
			uint32(max(height, 0)),
			capabilities.MinImageExtent.Height,
			capabilities.MaxImageExtent.Height,
		),
	}
}

// ImageCount asks for one image more than the minimum, capped by the maximum
// when the surface has one.
func ImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// PreTransform returns the identity transform when supported and the
// surface's current transform otherwise.
func PreTransform(capabilities vk.SurfaceCapabilities) vk.SurfaceTransformFlagBits {
	identity := vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit)
	if capabilities.SupportedTransforms&identity != 0 {
		return vk.SurfaceTransformIdentityBit
	}
	return capabilities.CurrentTransform
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
