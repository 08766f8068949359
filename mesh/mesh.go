// Package mesh turns model files into the vertex and index data drawn by the
// renderer.
package mesh

import (
	"errors"
	"fmt"

	"github.com/xlab/linmath"
)

var (
	// ErrIndexOutOfRange is returned when a shape refers past the end of an
	// attribute array.
	ErrIndexOutOfRange = errors.New("attribute index out of range")

	// ErrEmpty is returned for models without a single face vertex.
	ErrEmpty = errors.New("model has no vertices")
)

// NoTexCoord marks an Index without texture coordinates. Such vertices are
// sampled at (0, 0).
const NoTexCoord = -1

// Attributes are the arrays shared by all shapes of a model.
type Attributes struct {
	Positions []linmath.Vec3
	TexCoords []linmath.Vec2
}

// Index points one face vertex at its attributes.
type Index struct {
	Position int
	TexCoord int
}

// Shape is a triangle list, three indices per triangle.
type Shape struct {
	Name    string
	Indices []Index
}

// Mesh is deduplicated vertex data ready for upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Build flattens shapes into a Mesh. Face vertices which are equal in
// position, colour and texture coordinates share one entry in Vertices, the
// index of which is given by the first occurrence. The V texture coordinate is
// flipped to match the top to bottom image layout.
func Build(attrib Attributes, shapes []Shape) (Mesh, error) {
	var total int
	for _, shape := range shapes {
		total += len(shape.Indices)
	}
	if total == 0 {
		return Mesh{}, ErrEmpty
	}

	m := Mesh{
		Indices: make([]uint32, 0, total),
	}
	uniqueVertices := make(map[Vertex]uint32)

	for _, shape := range shapes {
		for i, index := range shape.Indices {
			vertex, err := attrib.vertex(index)
			if err != nil {
				return Mesh{}, fmt.Errorf("shape %q vertex %d: %w", shape.Name, i, err)
			}

			id, ok := uniqueVertices[vertex]
			if !ok {
				id = uint32(len(m.Vertices))
				uniqueVertices[vertex] = id
				m.Vertices = append(m.Vertices, vertex)
			}

			m.Indices = append(m.Indices, id)
		}
	}

	return m, nil
}

func (a Attributes) vertex(index Index) (Vertex, error) {
	if index.Position < 0 || index.Position >= len(a.Positions) {
		return Vertex{}, fmt.Errorf("position %d of %d: %w",
			index.Position, len(a.Positions), ErrIndexOutOfRange)
	}

	vertex := Vertex{
		Pos:   a.Positions[index.Position],
		Color: White,
	}

	if index.TexCoord == NoTexCoord {
		return vertex, nil
	}
	if index.TexCoord < 0 || index.TexCoord >= len(a.TexCoords) {
		return Vertex{}, fmt.Errorf("texture coordinate %d of %d: %w",
			index.TexCoord, len(a.TexCoords), ErrIndexOutOfRange)
	}

	tc := a.TexCoords[index.TexCoord]
	vertex.TexCoord = linmath.Vec2{tc[0], 1 - tc[1]}

	return vertex, nil
}
