package mesh

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/xlab/linmath"

	"vkviewer/models"
)

const quadOBJ = `o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func TestDecodeOBJFan(t *testing.T) {
	c := qt.New(t)

	attrib, shapes, err := DecodeOBJ(strings.NewReader(quadOBJ))
	c.Assert(err, qt.IsNil)
	c.Assert(shapes, qt.HasLen, 1)
	c.Assert(shapes[0].Indices, qt.HasLen, 6)

	m, err := Build(attrib, shapes)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Vertices, qt.HasLen, 4)
	c.Assert(m.Indices, qt.DeepEquals, []uint32{0, 1, 2, 0, 2, 3})
	c.Assert(m.Vertices[2].Pos, qt.Equals, linmath.Vec3{1, 1, 0})
	c.Assert(m.Vertices[2].TexCoord, qt.Equals, linmath.Vec2{1, 0})
}

func TestDecodeOBJWithoutTexCoords(t *testing.T) {
	c := qt.New(t)

	attrib, shapes, err := DecodeOBJ(strings.NewReader("o Tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	c.Assert(err, qt.IsNil)

	m, err := Build(attrib, shapes)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Vertices, qt.HasLen, 3)
	for _, v := range m.Vertices {
		c.Assert(v.TexCoord, qt.Equals, linmath.Vec2{0, 0})
		c.Assert(v.Color, qt.Equals, White)
	}
}

func TestLoadBuiltInModel(t *testing.T) {
	c := qt.New(t)

	m, err := LoadOBJ(models.FS, models.Default)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Indices, qt.HasLen, 36)
	c.Assert(m.Vertices, qt.HasLen, 20)
}

func TestLoadOBJMissing(t *testing.T) {
	c := qt.New(t)

	_, err := LoadOBJ(models.FS, "teapot.obj")
	c.Assert(err, qt.ErrorMatches, "failed to open model file: .*")
}
