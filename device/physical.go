package device

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/queues"
)

// Candidate summarises a physical device for selection.
type Candidate struct {
	Name           string
	Discrete       bool
	GeometryShader bool
	Extensions     bool
	Formats        int
	PresentModes   int
}

// Suitable reports whether the device can run the viewer.
func (c Candidate) Suitable(allowIntegrated bool) bool {
	return (c.Discrete || allowIntegrated) &&
		c.GeometryShader &&
		c.Extensions &&
		c.Formats > 0 &&
		c.PresentModes > 0
}

// SelectFirst returns the index of the first suitable candidate in
// enumeration order.
func SelectFirst(candidates []Candidate, allowIntegrated bool) (int, error) {
	for i, c := range candidates {
		if c.Suitable(allowIntegrated) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%d devices checked: %w", len(candidates), ErrNoSuitableDevice)
}

func (d *Device) pickPhysicalDevice(allowIntegrated bool) error {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(d.Instance, &deviceCount, nil))
	if err != nil {
		return fmt.Errorf("failed to get the number of physical devices: %w", err)
	}
	if deviceCount == 0 {
		return fmt.Errorf("failed to find GPUs with Vulkan support: %w", ErrNoSuitableDevice)
	}

	pDevices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(d.Instance, &deviceCount, pDevices))
	if err != nil {
		return fmt.Errorf("failed to enumerate the physical devices: %w", err)
	}

	candidates := make([]Candidate, 0, len(pDevices))
	for _, pd := range pDevices {
		cand := d.describe(pd)
		log.WithFields(log.Fields{
			"device":   cand.Name,
			"suitable": cand.Suitable(allowIntegrated),
		}).Debug("available device")
		candidates = append(candidates, cand)
	}

	selected, err := SelectFirst(candidates, allowIntegrated)
	if err != nil {
		return err
	}

	d.Physical = pDevices[selected]

	vk.GetPhysicalDeviceProperties(d.Physical, &d.Properties)
	d.Properties.Deref()
	d.Properties.Limits.Deref()

	vk.GetPhysicalDeviceFeatures(d.Physical, &d.Features)
	d.Features.Deref()

	vk.GetPhysicalDeviceMemoryProperties(d.Physical, &d.MemoryProperties)
	d.MemoryProperties.Deref()

	return nil
}

func (d *Device) describe(pd vk.PhysicalDevice) Candidate {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()

	cand := Candidate{
		Name:           vk.ToString(properties.DeviceName[:]),
		Discrete:       properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
		GeometryShader: features.GeometryShader.B(),
		Extensions:     checkDeviceExtensionSupport(pd),
	}

	if cand.Extensions {
		support, err := QuerySurfaceSupport(pd, d.Surface)
		if err != nil {
			log.WithField("device", cand.Name).Warnf("querying surface support: %s", err)
		} else {
			cand.Formats = len(support.Formats)
			cand.PresentModes = len(support.PresentModes)
		}
	}

	return cand
}

func checkDeviceExtensionSupport(device vk.PhysicalDevice) bool {
	var extensionsCount uint32
	res := vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount, nil)
	if err := vk.Error(res); err != nil {
		log.Warnf("enumerating device extension properties count: %s", err)
		return false
	}

	availableExtensions := make([]vk.ExtensionProperties, extensionsCount)
	res = vk.EnumerateDeviceExtensionProperties(device, "", &extensionsCount,
		availableExtensions)
	if err := vk.Error(res); err != nil {
		log.Warnf("getting device extension properties: %s", err)
		return false
	}

	requiredExtensions := make(map[string]struct{})
	for _, extensionName := range deviceExtensions {
		requiredExtensions[extensionName] = struct{}{}
	}

	for _, extension := range availableExtensions {
		extension.Deref()
		extensionName := vk.ToString(extension.ExtensionName[:])

		delete(requiredExtensions, extensionName+"\x00")
	}

	return len(requiredExtensions) == 0
}

// findQueueFamilies returns a FamilyIndices populated with Vulkan queue families needed
// by the program.
func (d *Device) findQueueFamilies(device vk.PhysicalDevice) (queues.FamilyIndices, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]queues.Family, 0, len(queueFamilies))
	for _, family := range queueFamilies {
		family.Deref()

		families = append(families, queues.Family{
			Graphics:   family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			QueueCount: family.QueueCount,
		})
	}

	return queues.Find(families, func(index uint32) (bool, error) {
		var hasPresent vk.Bool32
		err := vk.Error(
			vk.GetPhysicalDeviceSurfaceSupport(device, index, d.Surface, &hasPresent),
		)
		return hasPresent.B(), err
	})
}

// SurfaceSupport describes a present surface. The type is suitable for
// passing around many details of the service between functions.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SurfaceSupport queries what the selected device supports for the surface.
func (d *Device) SurfaceSupport() (SurfaceSupport, error) {
	return QuerySurfaceSupport(d.Physical, d.Surface)
}

// QuerySurfaceSupport returns the capabilities, formats and present modes of
// surface on device.
func QuerySurfaceSupport(device vk.PhysicalDevice, surface vk.Surface) (SurfaceSupport, error) {
	details := SurfaceSupport{}

	var capabilities vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &capabilities)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface capabilities: %w", err)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	details.Capabilities = capabilities

	var formatCount uint32
	res = vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface formats: %w", err)
	}

	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		res = vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, formats)
		if err := vk.Error(res); err != nil {
			return details, fmt.Errorf("failed to get device surface formats: %w", err)
		}
		for _, format := range formats[:formatCount] {
			format.Deref()
			details.Formats = append(details.Formats, format)
		}
	}

	var presentModeCount uint32
	res = vk.GetPhysicalDeviceSurfacePresentModes(
		device, surface, &presentModeCount, nil,
	)
	if err := vk.Error(res); err != nil {
		return details, fmt.Errorf("failed to query device surface present modes: %w", err)
	}

	if presentModeCount != 0 {
		presentModes := make([]vk.PresentMode, presentModeCount)
		res = vk.GetPhysicalDeviceSurfacePresentModes(
			device, surface, &presentModeCount, presentModes,
		)
		if err := vk.Error(res); err != nil {
			return details, fmt.Errorf("failed to get device surface present modes: %w", err)
		}
		details.PresentModes = presentModes[:presentModeCount]
	}

	return details, nil
}
