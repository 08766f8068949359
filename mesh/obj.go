package mesh

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/mokiat/go-data-front/decoder/obj"
	log "github.com/sirupsen/logrus"
	"github.com/xlab/linmath"
)

// DecodeOBJ reads a Wavefront OBJ model. Every mesh of every object becomes a
// Shape. Polygons with more than three vertices are split into a triangle fan
// around their first vertex. Faces with fewer than three are skipped.
func DecodeOBJ(r io.Reader) (Attributes, []Shape, error) {
	decoder := obj.NewDecoder(obj.DefaultLimits())

	model, err := decoder.Decode(r)
	if err != nil {
		return Attributes{}, nil, fmt.Errorf("decoding OBJ: %w", err)
	}

	var (
		attrib Attributes
		shapes []Shape
	)

	for _, object := range model.Objects {
		for _, objMesh := range object.Meshes {
			shape := Shape{Name: object.Name}

			for _, face := range objMesh.Faces {
				refs := face.References
				if len(refs) < 3 {
					log.WithField("object", object.Name).Warnf(
						"skipping face with %d vertices", len(refs))
					continue
				}

				for i := 1; i+1 < len(refs); i++ {
					for _, ref := range []obj.Reference{refs[0], refs[i], refs[i+1]} {
						shape.Indices = append(shape.Indices, attrib.add(model, ref))
					}
				}
			}

			if len(shape.Indices) > 0 {
				shapes = append(shapes, shape)
			}
		}
	}

	return attrib, shapes, nil
}

// add copies the attributes of ref and returns an Index pointing at the
// copies. Build merges the duplicates this produces.
func (a *Attributes) add(model *obj.Model, ref obj.Reference) Index {
	vertex := model.GetVertexFromReference(ref)
	a.Positions = append(a.Positions, linmath.Vec3{
		float32(vertex.X),
		float32(vertex.Y),
		float32(vertex.Z),
	})

	index := Index{
		Position: len(a.Positions) - 1,
		TexCoord: NoTexCoord,
	}

	if ref.HasTexCoord() {
		texCoord := model.GetTexCoordFromReference(ref)
		a.TexCoords = append(a.TexCoords, linmath.Vec2{
			float32(texCoord.U),
			float32(texCoord.V),
		})
		index.TexCoord = len(a.TexCoords) - 1
	}

	return index
}

// LoadOBJ decodes the OBJ file name from fsys into a Mesh.
func LoadOBJ(fsys fs.FS, name string) (Mesh, error) {
	fh, err := fsys.Open(name)
	if err != nil {
		return Mesh{}, fmt.Errorf("failed to open model file: %w", err)
	}
	defer fh.Close()

	attrib, shapes, err := DecodeOBJ(fh)
	if err != nil {
		return Mesh{}, fmt.Errorf("%s: %w", name, err)
	}

	m, err := Build(attrib, shapes)
	if err != nil {
		return Mesh{}, fmt.Errorf("%s: %w", name, err)
	}

	log.WithFields(log.Fields{
		"model":    name,
		"vertices": len(m.Vertices),
		"indices":  len(m.Indices),
	}).Debug("loaded model")

	return m, nil
}
