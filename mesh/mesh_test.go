package mesh

import (
	"errors"
	"math/rand"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"
)

func TestBuildDeduplicates(t *testing.T) {
	c := qt.New(t)

	attrib := Attributes{
		Positions: []linmath.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		TexCoords: []linmath.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	}
	quad := Shape{Name: "quad", Indices: []Index{
		{0, 0}, {1, 1}, {2, 2},
		{2, 2}, {3, 3}, {0, 0},
	}}

	m, err := Build(attrib, []Shape{quad})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Vertices, qt.HasLen, 4)
	c.Assert(m.Indices, qt.DeepEquals, []uint32{0, 1, 2, 2, 3, 0})

	c.Assert(m.Vertices[1], qt.DeepEquals, Vertex{
		Pos:      linmath.Vec3{1, 0, 0},
		Color:    White,
		TexCoord: linmath.Vec2{1, 1},
	})
}

func TestBuildSamePositionDifferentTexCoord(t *testing.T) {
	c := qt.New(t)

	attrib := Attributes{
		Positions: []linmath.Vec3{{0, 0, 0}},
		TexCoords: []linmath.Vec2{{0, 0}, {0.5, 0.25}},
	}
	shape := Shape{Indices: []Index{{0, 0}, {0, 1}, {0, NoTexCoord}, {0, 1}}}

	m, err := Build(attrib, []Shape{shape})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Indices, qt.DeepEquals, []uint32{0, 1, 2, 1})
	c.Assert(m.Vertices[0].TexCoord, qt.Equals, linmath.Vec2{0, 1})
	c.Assert(m.Vertices[1].TexCoord, qt.Equals, linmath.Vec2{0.5, 0.75})
	c.Assert(m.Vertices[2].TexCoord, qt.Equals, linmath.Vec2{0, 0})
}

func TestBuildRandomProperties(t *testing.T) {
	c := qt.New(t)

	rnd := rand.New(rand.NewSource(1))
	attrib := Attributes{
		Positions: make([]linmath.Vec3, 5),
		TexCoords: make([]linmath.Vec2, 3),
	}
	for i := range attrib.Positions {
		attrib.Positions[i] = linmath.Vec3{float32(i), float32(i % 2), 0}
	}
	for i := range attrib.TexCoords {
		attrib.TexCoords[i] = linmath.Vec2{float32(i) / 2, 0}
	}

	var shapes []Shape
	for s := 0; s < 3; s++ {
		var shape Shape
		for i := 0; i < 3*(1+rnd.Intn(20)); i++ {
			shape.Indices = append(shape.Indices, Index{
				Position: rnd.Intn(len(attrib.Positions)),
				TexCoord: rnd.Intn(len(attrib.TexCoords)),
			})
		}
		shapes = append(shapes, shape)
	}

	m, err := Build(attrib, shapes)
	c.Assert(err, qt.IsNil)

	distinct := make(map[Index]struct{})
	var total int
	for _, shape := range shapes {
		total += len(shape.Indices)
		for _, index := range shape.Indices {
			distinct[index] = struct{}{}
		}
	}

	c.Assert(m.Vertices, qt.HasLen, len(distinct))
	c.Assert(m.Indices, qt.HasLen, total)
	for _, id := range m.Indices {
		c.Assert(int(id) < len(m.Vertices), qt.IsTrue)
	}
}

func TestBuildErrors(t *testing.T) {
	c := qt.New(t)

	attrib := Attributes{
		Positions: []linmath.Vec3{{0, 0, 0}},
		TexCoords: []linmath.Vec2{{0, 0}},
	}

	_, err := Build(attrib, nil)
	c.Assert(errors.Is(err, ErrEmpty), qt.IsTrue)

	_, err = Build(attrib, []Shape{{Name: "bad", Indices: []Index{{1, 0}}}})
	c.Assert(errors.Is(err, ErrIndexOutOfRange), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `shape "bad" vertex 0: position 1 of 1: .*`)

	_, err = Build(attrib, []Shape{{Indices: []Index{{0, 0}, {0, 3}}}})
	c.Assert(errors.Is(err, ErrIndexOutOfRange), qt.IsTrue)
}

func TestVertexLayout(t *testing.T) {
	c := qt.New(t)

	c.Assert(GetVertexSize(), qt.Equals, uint32(36))
	c.Assert(unsafe.Sizeof(Vertex{}), qt.Equals, uintptr(36))

	binding := GetVertexBindingDescription()
	c.Assert(binding.Stride, qt.Equals, uint32(36))

	attrs := GetVertexAttributeDescriptions()
	c.Assert(attrs[0].Offset, qt.Equals, uint32(0))
	c.Assert(attrs[1].Offset, qt.Equals, uint32(12))
	c.Assert(attrs[1].Format, qt.Equals, vk.FormatR32g32b32a32Sfloat)
	c.Assert(attrs[2].Offset, qt.Equals, uint32(28))
}
