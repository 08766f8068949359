// Package shaders holds the GLSL sources of the viewer pipeline together
// with their compiled SPIR-V form. Run `go generate` with glslc on the PATH
// in order to compile them again.
package shaders

import (
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"

	log "github.com/sirupsen/logrus"
)

//go:generate ./compile.sh

// FS contains the compiled shaders built into the viewer.
//
//go:embed vert.spv frag.spv
var FS embed.FS

// File names of the compiled stages.
const (
	VertexFile   = "vert.spv"
	FragmentFile = "frag.spv"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

// ErrInvalidSPIRV is returned for byte code which cannot be a SPIR-V module.
var ErrInvalidSPIRV = errors.New("invalid SPIR-V")

// Program is the byte code of the two pipeline stages.
type Program struct {
	Vertex   []byte
	Fragment []byte
}

// Load reads and checks both stages from fsys.
func Load(fsys fs.FS) (Program, error) {
	vert, err := Read(fsys, VertexFile)
	if err != nil {
		return Program{}, fmt.Errorf("vertex shader: %w", err)
	}

	frag, err := Read(fsys, FragmentFile)
	if err != nil {
		return Program{}, fmt.Errorf("fragment shader: %w", err)
	}

	log.WithFields(log.Fields{
		"vertex":   len(vert),
		"fragment": len(frag),
	}).Debug("shader code size")

	return Program{Vertex: vert, Fragment: frag}, nil
}

// Read returns the SPIR-V module stored in name.
func Read(fsys fs.FS, name string) ([]byte, error) {
	code, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader bytecode: %w", err)
	}

	if err := Validate(code); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return code, nil
}

// Validate checks that code is a whole number of 32-bit words and starts with
// the SPIR-V magic number in either byte order.
func Validate(code []byte) error {
	if len(code) == 0 || len(code)%4 != 0 {
		return fmt.Errorf("%w: size %d is not a positive multiple of 4", ErrInvalidSPIRV, len(code))
	}

	if binary.LittleEndian.Uint32(code) != Magic && binary.BigEndian.Uint32(code) != Magic {
		return fmt.Errorf("%w: bad magic number %#08x", ErrInvalidSPIRV, binary.LittleEndian.Uint32(code))
	}

	return nil
}
