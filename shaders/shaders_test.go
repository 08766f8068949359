package shaders_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"

	"vkviewer/shaders"
)

func module(words ...uint32) []byte {
	code := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(code, shaders.Magic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[4*(i+1):], w)
	}
	return code
}

func TestValidate(t *testing.T) {
	c := qt.New(t)

	c.Assert(shaders.Validate(module(0x00010000, 0)), qt.IsNil)

	bigEndian := make([]byte, 8)
	binary.BigEndian.PutUint32(bigEndian, shaders.Magic)
	c.Assert(shaders.Validate(bigEndian), qt.IsNil)

	tests := []struct {
		name string
		code []byte
	}{
		{"empty", nil},
		{"unaligned", append(module(1), 0)},
		{"bad magic", []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			err := shaders.Validate(test.code)
			c.Assert(errors.Is(err, shaders.ErrInvalidSPIRV), qt.IsTrue)
		})
	}
}

func TestLoad(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		shaders.VertexFile:   {Data: module(1, 2, 3)},
		shaders.FragmentFile: {Data: module(4)},
	}

	prog, err := shaders.Load(fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(prog.Vertex, qt.HasLen, 16)
	c.Assert(prog.Fragment, qt.HasLen, 8)
}

func TestLoadErrors(t *testing.T) {
	c := qt.New(t)

	_, err := shaders.Load(fstest.MapFS{shaders.VertexFile: {Data: module()}})
	c.Assert(err, qt.ErrorMatches, "fragment shader: failed to read shader bytecode: .*")

	_, err = shaders.Load(fstest.MapFS{
		shaders.VertexFile:   {Data: []byte("#version 450")},
		shaders.FragmentFile: {Data: module()},
	})
	c.Assert(err, qt.ErrorMatches, "vertex shader: vert.spv: invalid SPIR-V: .*")
}

func TestLoadBuiltIn(t *testing.T) {
	c := qt.New(t)

	prog, err := shaders.Load(shaders.FS)
	c.Assert(err, qt.IsNil)

	// SPIR-V 1.0 header: magic, version, generator, bound, schema.
	for _, code := range [][]byte{prog.Vertex, prog.Fragment} {
		c.Assert(len(code) > 20, qt.IsTrue)
		c.Assert(binary.LittleEndian.Uint32(code[4:]), qt.Equals, uint32(0x00010000))
		c.Assert(binary.LittleEndian.Uint32(code[16:]), qt.Equals, uint32(0))
	}
}
