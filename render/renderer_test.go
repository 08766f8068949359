//go:build gpu

package render

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"vkviewer/config"
	"vkviewer/device"
	"vkviewer/models"
	"vkviewer/shaders"
	"vkviewer/swapchain"
	"vkviewer/textures"
	"vkviewer/window"
)

// pumpUntilStale polls the window and feeds its events to r until a resize
// has marked the swapchain stale.
func pumpUntilStale(c *qt.C, r *Renderer) {
	deadline := time.Now().Add(5 * time.Second)
	for !r.swapchain.NeedsRebuild() {
		if time.Now().After(deadline) {
			c.Fatalf("no resize event within deadline")
		}
		r.win.Poll()
		c.Assert(r.handleEvents(), qt.IsFalse)
		time.Sleep(10 * time.Millisecond)
	}
}

// TestRendererRebuild needs a display and a Vulkan device. Run it with
// `VKVIEWER_GPU_TEST=1 go test -tags gpu ./render`.
func TestRendererRebuild(t *testing.T) {
	if os.Getenv("VKVIEWER_GPU_TEST") == "" {
		t.Skip("VKVIEWER_GPU_TEST not set")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := qt.New(t)

	if err := window.Init(); err != nil {
		t.Skipf("no display: %v", err)
	}
	defer window.Terminate()

	if err := window.InitVulkan(); err != nil {
		t.Skipf("no vulkan: %v", err)
	}

	cfg := config.Default()
	cfg.Window.Centered = false

	win, err := window.New(cfg.Window)
	c.Assert(err, qt.IsNil)
	defer win.Destroy()

	dev, err := device.New(device.Options{
		AppName:         cfg.Window.Title,
		AllowIntegrated: true,
	}, win)
	if err != nil {
		t.Skipf("no suitable device: %v", err)
	}
	defer dev.Destroy()

	var now float64
	r, err := New(dev, win, Options{
		Shaders: shaders.FS,
		Model:   Asset{FS: models.FS, Name: models.Default},
		Texture: Asset{FS: textures.FS, Name: textures.Default},
		Clock:   func() float64 { return now },
	})
	c.Assert(err, qt.IsNil)
	defer r.Destroy()

	images := len(r.swapchain.Images)
	c.Assert(images > 0, qt.IsTrue)
	c.Assert(r.swapchain.Views, qt.HasLen, images)
	c.Assert(r.framebuffers, qt.HasLen, images)
	c.Assert(r.commandBuffers, qt.HasLen, images)
	c.Assert(r.frames, qt.HasLen, images)
	c.Assert(r.indexCount, qt.Equals, uint32(36))

	for i := 0; i < 3; i++ {
		now += 0.1
		c.Assert(r.DrawFrame(), qt.IsNil)
	}

	win.Resize(cfg.Window.Width/2, cfg.Window.Height/2)
	pumpUntilStale(c, r)
	c.Assert(r.rebuild(), qt.IsNil)
	c.Assert(r.swapchain.State(), qt.Equals, swapchain.Live)

	images = len(r.swapchain.Images)
	c.Assert(r.swapchain.Views, qt.HasLen, images)
	c.Assert(r.framebuffers, qt.HasLen, images)
	c.Assert(r.commandBuffers, qt.HasLen, images)
	c.Assert(r.frames, qt.HasLen, images)
	c.Assert(r.owners, qt.HasLen, images)

	support, err := dev.SurfaceSupport()
	c.Assert(err, qt.IsNil)
	fbWidth, fbHeight := win.FramebufferSize()
	c.Assert(r.swapchain.Extent, qt.DeepEquals,
		swapchain.ChooseExtent(support.Capabilities, fbWidth, fbHeight))

	c.Assert(r.DrawFrame(), qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Assert(r.Run(ctx), qt.IsNil)
}
