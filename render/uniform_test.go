package render_test

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"

	"vkviewer/render"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestNewUniformFlipsY(t *testing.T) {
	c := qt.New(t)

	extent := vk.Extent2D{Width: 800, Height: 600}
	ubo := render.NewUniform(0, extent)

	var proj linmath.Mat4x4
	proj.Perspective(linmath.DegreesToRadians(45), 800.0/600.0, 0.1, 10)

	c.Assert(proj[1][1] > 0, qt.IsTrue)
	c.Assert(ubo.Proj[1][1], qt.Equals, -proj[1][1])
	c.Assert(ubo.Proj[0][0], qt.Equals, proj[0][0])
}

func TestNewUniformRotation(t *testing.T) {
	c := qt.New(t)

	extent := vk.Extent2D{Width: 100, Height: 100}

	var identity linmath.Mat4x4
	identity.Identity()
	c.Assert(render.NewUniform(0, extent).Model, qt.DeepEquals, identity)

	// A quarter turn after one second.
	model := render.NewUniform(1, extent).Model
	c.Assert(near(model[0][0], 0), qt.IsTrue)
	c.Assert(near(model[1][1], 0), qt.IsTrue)
	c.Assert(near(model[2][2], 1), qt.IsTrue)
	c.Assert(near(model[3][3], 1), qt.IsTrue)
	c.Assert(near(float32(math.Abs(float64(model[0][1]))), 1), qt.IsTrue)
}

func TestNewUniformZeroHeight(t *testing.T) {
	c := qt.New(t)

	ubo := render.NewUniform(0, vk.Extent2D{Width: 100})
	square := render.NewUniform(0, vk.Extent2D{Width: 10, Height: 10})
	c.Assert(ubo.Proj, qt.DeepEquals, square.Proj)
}

func TestNewUniformViewIsConstant(t *testing.T) {
	c := qt.New(t)

	extent := vk.Extent2D{Width: 640, Height: 480}
	c.Assert(render.NewUniform(0, extent).View, qt.DeepEquals, render.NewUniform(3.5, extent).View)
}

func TestClockIsMonotonic(t *testing.T) {
	c := qt.New(t)

	clock := render.NewClock()
	first := clock()
	second := clock()
	c.Assert(first >= 0, qt.IsTrue)
	c.Assert(second >= first, qt.IsTrue)
}

func TestUniformCopyBarriers(t *testing.T) {
	c := qt.New(t)

	before, after := render.UniformCopyBarriers()

	c.Assert(before, qt.DeepEquals, render.Barrier{
		SrcAccess: vk.AccessFlags(vk.AccessUniformReadBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	})
	c.Assert(after, qt.DeepEquals, render.Barrier{
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessUniformReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
	})

	// The second barrier must pick up exactly where the first one ends.
	c.Assert(after.SrcStage, qt.Equals, before.DstStage)
	c.Assert(after.SrcAccess, qt.Equals, before.DstAccess)
}
