package device

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a buffer together with the memory bound to it.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize

	device vk.Device
}

// CreateBuffer creates a buffer and binds freshly allocated memory of a type
// matching properties to it.
func (d *Device) CreateBuffer(
	size vk.DeviceSize,
	usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags,
) (*Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	b := &Buffer{Size: size, device: d.Logical}

	res := vk.CreateBuffer(d.Logical, &bufferInfo, nil, &b.Handle)
	if res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer: %w", vk.Error(res))
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Logical, b.Handle, &memRequirements)
	memRequirements.Deref()

	memTypeIndex, err := d.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(d.Logical, b.Handle, nil)
		return nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}

	res = vk.AllocateMemory(d.Logical, &allocInfo, nil, &b.Memory)
	if res != vk.Success {
		vk.DestroyBuffer(d.Logical, b.Handle, nil)
		return nil, fmt.Errorf("failed to allocate buffer memory: %w", vk.Error(res))
	}

	res = vk.BindBufferMemory(d.Logical, b.Handle, b.Memory, 0)
	if res != vk.Success {
		b.Destroy()
		return nil, fmt.Errorf("failed to bind buffer memory: %w", vk.Error(res))
	}

	return b, nil
}

// CreateStagingBuffer creates a host visible and coherent transfer source
// holding a copy of data.
func (d *Device) CreateStagingBuffer(data []byte) (*Buffer, error) {
	b, err := d.CreateBuffer(
		vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the staging buffer: %w", err)
	}

	if err := b.Write(data); err != nil {
		b.Destroy()
		return nil, err
	}

	return b, nil
}

// Write copies data to the start of the buffer memory. The memory must be
// host visible.
func (b *Buffer) Write(data []byte) error {
	if vk.DeviceSize(len(data)) > b.Size {
		return fmt.Errorf("writing %d bytes into buffer of %d", len(data), b.Size)
	}

	var pData unsafe.Pointer
	res := vk.MapMemory(b.device, b.Memory, 0, b.Size, 0, &pData)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to map buffer memory: %w", err)
	}

	vk.Memcopy(pData, data)
	vk.UnmapMemory(b.device, b.Memory)

	return nil
}

// Destroy releases the buffer and its memory.
func (b *Buffer) Destroy() {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(b.device, b.Handle, nil)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(b.device, b.Memory, nil)
		b.Memory = vk.NullDeviceMemory
	}
}

// CopyBuffer copies size bytes from src to dst and waits for the copy to
// finish.
func (d *Device) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	return d.Submit(func(cb vk.CommandBuffer) {
		vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{{Size: size}})
	})
}

// CreateDeviceLocalBuffer uploads data into a new device local buffer through
// a temporary staging buffer. usage is extended with the transfer
// destination bit.
func (d *Device) CreateDeviceLocalBuffer(
	data []byte,
	usage vk.BufferUsageFlags,
) (*Buffer, error) {
	staging, err := d.CreateStagingBuffer(data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	b, err := d.CreateBuffer(
		staging.Size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the device local buffer: %w", err)
	}

	if err := d.CopyBuffer(staging.Handle, b.Handle, staging.Size); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("failed to copy staging buffer: %w", err)
	}

	return b, nil
}
