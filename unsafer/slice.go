// Package unsafer reinterprets Go values as raw memory for uploads to GPU
// buffers and for handing byte code to the driver.
package unsafer

import (
	"unsafe"
)

// SliceToBytes interprets an arbitrary input slice as a byte slice.
//
// Note that the returned slice points to the same underlying data in memory. It
// does not make a copy. An empty input yields a nil slice.
func SliceToBytes[T any](input []T) []byte {
	if len(input) == 0 {
		return nil
	}

	size := int(unsafe.Sizeof(input[0])) * len(input)
	return unsafe.Slice((*byte)(unsafe.Pointer(&input[0])), size)
}

// StructToBytes returns the memory occupied by *val as a byte slice. The
// result aliases val.
func StructToBytes[T any](val *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(val)), unsafe.Sizeof(*val))
}

// SliceBytesToUint32 interprets a byte slice as a slice of uint32 words, the
// way Vulkan expects SPIR-V code. Trailing bytes which do not fill a whole
// word are dropped.
func SliceBytesToUint32(input []byte) []uint32 {
	if len(input) < 4 {
		return nil
	}

	return unsafe.Slice((*uint32)(unsafe.Pointer(&input[0])), len(input)/4)
}
