// Package device owns the Vulkan instance, the presentation surface and the
// logical device the viewer renders with. It also provides the generic
// helpers for creating buffers and images and for running one-off command
// buffers.
package device

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/lifetime"
	"vkviewer/queues"
)

var (
	// ErrNoSuitableDevice is returned when no physical device meets the
	// selection criteria.
	ErrNoSuitableDevice = errors.New("failed to find a suitable physical device")

	// ErrValidationUnavailable is returned when validation was requested but
	// the layer is not installed.
	ErrValidationUnavailable = errors.New("validation layers requested but not available")
)

// Surfacer is the window the device presents to.
type Surfacer interface {
	// RequiredExtensions lists NUL terminated instance extension names.
	RequiredExtensions() []string

	// CreateSurface creates a presentation surface for the instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Options select how the device is set up.
type Options struct {
	AppName string

	// Validation enables the Khronos validation layer.
	Validation bool

	// AllowIntegrated accepts physical devices which are not discrete GPUs.
	AllowIntegrated bool
}

var (
	validationLayers = []string{
		"VK_LAYER_KHRONOS_validation\x00",
	}

	deviceExtensions = []string{
		vk.KhrSwapchainExtensionName + "\x00",
	}
)

// Device is the rendering device context. It is created once and stays
// unchanged until Destroy.
type Device struct {
	Instance vk.Instance
	Surface  vk.Surface

	// Physical is the physical device selected for this program.
	Physical         vk.PhysicalDevice
	Properties       vk.PhysicalDeviceProperties
	Features         vk.PhysicalDeviceFeatures
	MemoryProperties vk.PhysicalDeviceMemoryProperties

	// Logical is the logical device created for interfacing with the physical device.
	Logical vk.Device

	Families      queues.FamilyIndices
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	// CommandPool allocates command buffers for the graphics family.
	CommandPool vk.CommandPool

	// Anisotropy tells whether the samplerAnisotropy feature was enabled.
	Anisotropy bool

	res *lifetime.Stack
}

// New creates the instance, the surface of win, selects a physical device and
// creates the logical device with its queues and command pool. On error
// everything created so far is released.
func New(opts Options, win Surfacer) (*Device, error) {
	var res lifetime.Stack
	defer res.Release()

	d := &Device{}

	if err := d.createInstance(opts, win.RequiredExtensions()); err != nil {
		return nil, fmt.Errorf("createInstance: %w", err)
	}
	res.Defer(func() { vk.DestroyInstance(d.Instance, nil) })

	surface, err := win.CreateSurface(d.Instance)
	if err != nil {
		return nil, fmt.Errorf("createSurface: %w", err)
	}
	d.Surface = surface
	res.Defer(func() { vk.DestroySurface(d.Instance, d.Surface, nil) })

	if err := d.pickPhysicalDevice(opts.AllowIntegrated); err != nil {
		return nil, fmt.Errorf("pickPhysicalDevice: %w", err)
	}

	if err := d.createLogicalDevice(opts.Validation); err != nil {
		return nil, fmt.Errorf("createLogicalDevice: %w", err)
	}
	res.Defer(func() { vk.DestroyDevice(d.Logical, nil) })

	if err := d.createCommandPool(); err != nil {
		return nil, fmt.Errorf("createCommandPool: %w", err)
	}
	res.Defer(func() { vk.DestroyCommandPool(d.Logical, d.CommandPool, nil) })

	log.WithFields(log.Fields{
		"device":   vk.ToString(d.Properties.DeviceName[:]),
		"graphics": d.Families.Graphics.Get(),
		"present":  d.Families.Present.Get(),
	}).Info("device ready")

	d.res = res.Take()
	return d, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.Logical)); err != nil {
		return fmt.Errorf("waiting for device idle: %w", err)
	}
	return nil
}

// Destroy releases the device, the surface and the instance.
func (d *Device) Destroy() {
	if d.res != nil {
		d.res.Release()
	}
}

func (d *Device) createInstance(opts Options, extensions []string) error {
	if opts.Validation && !checkValidationSupport() {
		return ErrValidationUnavailable
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   opts.AppName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	if opts.Validation {
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
		createInfo.PpEnabledLayerNames = validationLayers
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return fmt.Errorf("failed to create Vulkan instance: %w", err)
	}

	d.Instance = instance
	return nil
}

func checkValidationSupport() bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	availableLayers := make([]vk.LayerProperties, count)

	if vk.EnumerateInstanceLayerProperties(&count, availableLayers) != vk.Success {
		return false
	}

	available := make(map[string]struct{}, count)
	for _, layer := range availableLayers {
		layer.Deref()
		available[vk.ToString(layer.LayerName[:])+"\x00"] = struct{}{}
	}

	for _, validationLayer := range validationLayers {
		if _, ok := available[validationLayer]; !ok {
			return false
		}
	}

	return true
}

func (d *Device) createLogicalDevice(validation bool) error {
	families, err := d.findQueueFamilies(d.Physical)
	if err != nil {
		return err
	}
	d.Families = families

	queueCreateInfos := []vk.DeviceQueueCreateInfo{}
	for _, familyIndex := range families.Unique() {
		queueCreateInfos = append(
			queueCreateInfos,
			vk.DeviceQueueCreateInfo{
				SType:            vk.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: familyIndex,
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		)
	}

	d.Anisotropy = d.Features.SamplerAnisotropy.B()
	deviceFeatures := []vk.PhysicalDeviceFeatures{{
		SamplerAnisotropy: boolToVk(d.Anisotropy),
	}}

	createInfo := vk.DeviceCreateInfo{
		SType:            vk.StructureTypeDeviceCreateInfo,
		PEnabledFeatures: deviceFeatures,

		PQueueCreateInfos:    queueCreateInfos,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),

		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
	}

	if validation {
		createInfo.PpEnabledLayerNames = validationLayers
		createInfo.EnabledLayerCount = uint32(len(validationLayers))
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(d.Physical, &createInfo, nil, &device)); err != nil {
		return fmt.Errorf("failed to create logical device: %w", err)
	}
	d.Logical = device

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(d.Logical, families.Graphics.Get(), 0, &graphicsQueue)
	d.GraphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(d.Logical, families.Present.Get(), 0, &presentQueue)
	d.PresentQueue = presentQueue

	return nil
}

func (d *Device) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: d.Families.Graphics.Get(),
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(d.Logical, &poolInfo, nil, &commandPool)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create command pool: %w", err)
	}
	d.CommandPool = commandPool

	return nil
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
