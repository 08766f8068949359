package mesh

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

// Vertex is the layout of one element of the vertex buffer. It carries no
// padding so it can be uploaded as is.
type Vertex struct {
	Pos      linmath.Vec3
	Color    linmath.Vec4
	TexCoord linmath.Vec2
}

// White is the colour given to every loaded vertex.
var White = linmath.Vec4{1, 1, 1, 1}

func GetVertexSize() uint32 {
	return uint32(unsafe.Sizeof(Vertex{}))
}

func GetVertexBindingDescription() vk.VertexInputBindingDescription {
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    GetVertexSize(),
		InputRate: vk.VertexInputRateVertex,
	}

	return bindingDescription
}

func GetVertexAttributeDescriptions() [3]vk.VertexInputAttributeDescription {
	attrDescr := [3]vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}

	return attrDescr
}
