// Package render builds the fixed pipeline and every GPU resource needed to
// draw a textured mesh, and runs the per-frame draw loop.
package render

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/device"
	"vkviewer/events"
	"vkviewer/lifetime"
	"vkviewer/mesh"
	"vkviewer/shaders"
	"vkviewer/swapchain"
	"vkviewer/texture"
	"vkviewer/unsafer"
)

// Window is the part of the window the renderer drives.
type Window interface {
	Events() <-chan events.Event
	Poll()
	ShouldClose() bool
	FramebufferSize() (int, int)
	WaitForNonZeroSize() (int, int)
}

// Asset names a file inside a file system.
type Asset struct {
	FS   fs.FS
	Name string
}

// Options configure a Renderer.
type Options struct {
	// Shaders holds the compiled vert.spv and frag.spv.
	Shaders fs.FS
	Model   Asset
	Texture Asset

	VSync bool

	// FramesPerSecond caps the draw rate. Zero means no cap.
	FramesPerSecond int

	// Clock drives the animation. NewClock is used when nil.
	Clock Clock
}

// Renderer owns the swapchain and everything drawn into it.
type Renderer struct {
	dev  *device.Device
	win  Window
	opts Options

	program     shaders.Program
	depthFormat vk.Format
	clock       Clock

	swapchain *swapchain.Swapchain

	// Long-lived resources.
	descriptorSetLayout vk.DescriptorSetLayout
	textureImage        *device.Image
	textureImageView    vk.ImageView
	textureSampler      vk.Sampler
	vertexBuffer        *device.Buffer
	indexBuffer         *device.Buffer
	indexCount          uint32
	uniformStaging      *device.Buffer
	uniformBuffer       *device.Buffer
	descriptorPool      vk.DescriptorPool
	descriptorSet       vk.DescriptorSet

	// Resources depending on the swapchain.
	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline
	depthImage     *device.Image
	depthImageView vk.ImageView
	framebuffers   []vk.Framebuffer
	commandBuffers []vk.CommandBuffer

	frames       []frameSync
	owners       owners
	currentFrame int

	res     *lifetime.Stack
	swapRes *lifetime.Stack
}

// New loads the assets and builds the swapchain, the pipeline and all
// resources for drawing into win. On error everything created so far is
// released.
func New(dev *device.Device, win Window, opts Options) (*Renderer, error) {
	program, err := shaders.Load(opts.Shaders)
	if err != nil {
		return nil, fmt.Errorf("loading shaders: %w", err)
	}

	model, err := mesh.LoadOBJ(opts.Model.FS, opts.Model.Name)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	img, err := texture.Load(opts.Texture.FS, opts.Texture.Name)
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}

	depthFormat, err := dev.FindDepthFormat()
	if err != nil {
		return nil, fmt.Errorf("cannot find suitable depth image format: %w", err)
	}

	r := &Renderer{
		dev:         dev,
		win:         win,
		opts:        opts,
		program:     program,
		depthFormat: depthFormat,
		clock:       opts.Clock,
		swapRes:     &lifetime.Stack{},
	}
	if r.clock == nil {
		r.clock = NewClock()
	}

	var res lifetime.Stack
	defer res.Release()

	width, height := win.FramebufferSize()
	sc, err := swapchain.Create(dev, width, height, opts.VSync)
	if err != nil {
		return nil, fmt.Errorf("creating swapchain: %w", err)
	}
	res.Defer(sc.Destroy)
	r.swapchain = sc

	layout, err := r.createDescriptorSetLayout()
	if err != nil {
		return nil, err
	}
	res.Defer(func() {
		vk.DestroyDescriptorSetLayout(dev.Logical, layout, nil)
	})
	r.descriptorSetLayout = layout

	if err := r.createTextureImage(&res, img); err != nil {
		return nil, fmt.Errorf("creating texture: %w", err)
	}
	if err := r.createTextureSampler(&res); err != nil {
		return nil, err
	}
	if err := r.createGeometryBuffers(&res, model); err != nil {
		return nil, err
	}
	if err := r.createUniformBuffers(&res); err != nil {
		return nil, err
	}
	if err := r.createDescriptorPool(&res); err != nil {
		return nil, err
	}
	if err := r.createDescriptorSet(); err != nil {
		return nil, err
	}

	res.Defer(r.destroyFrames)
	if err := r.createFrames(len(sc.Images)); err != nil {
		return nil, err
	}

	res.Defer(func() {
		r.swapRes.Release()
	})
	if err := r.createSwapchainResources(); err != nil {
		return nil, err
	}

	if err := r.UpdateUniformBuffer(); err != nil {
		return nil, err
	}

	r.res = res.Take()

	log.WithFields(log.Fields{
		"images": len(sc.Images),
		"depth":  depthFormat,
	}).Info("renderer ready")

	return r, nil
}

// createSwapchainResources builds, in order, the render pass, the pipeline,
// the depth buffer, the framebuffers and the command buffers for the current
// swapchain.
func (r *Renderer) createSwapchainResources() error {
	var res lifetime.Stack
	defer res.Release()

	renderPass, err := r.createRenderPass()
	if err != nil {
		return err
	}
	res.Defer(func() {
		vk.DestroyRenderPass(r.dev.Logical, renderPass, nil)
	})
	r.renderPass = renderPass

	pipelineLayout, pipeline, err := r.createGraphicsPipeline()
	if pipelineLayout != vk.NullPipelineLayout {
		res.Defer(func() {
			vk.DestroyPipelineLayout(r.dev.Logical, pipelineLayout, nil)
		})
	}
	if err != nil {
		return err
	}
	res.Defer(func() {
		vk.DestroyPipeline(r.dev.Logical, pipeline, nil)
	})
	r.pipelineLayout = pipelineLayout
	r.pipeline = pipeline

	if err := r.createDepthResources(&res); err != nil {
		return err
	}
	if err := r.createFramebuffers(&res); err != nil {
		return err
	}
	if err := r.createCommandBuffers(&res); err != nil {
		return err
	}

	r.owners = newOwners(len(r.swapchain.Images))
	r.swapRes.Adopt(res.Take())
	return nil
}

// rebuild replaces the swapchain and everything depending on it. It waits
// for a window size other than zero first and does nothing when the window
// is closing.
func (r *Renderer) rebuild() error {
	width, height := r.win.WaitForNonZeroSize()
	if width == 0 || height == 0 {
		return nil
	}

	if err := r.dev.WaitIdle(); err != nil {
		return err
	}

	r.swapRes.Release()

	oldCount := len(r.swapchain.Images)
	if err := r.swapchain.Recreate(width, height, r.opts.VSync); err != nil {
		return fmt.Errorf("recreating swapchain: %w", err)
	}

	if err := r.createSwapchainResources(); err != nil {
		return fmt.Errorf("recreating swapchain resources: %w", err)
	}

	if count := len(r.swapchain.Images); count != oldCount {
		r.destroyFrames()
		if err := r.createFrames(count); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"width":  r.swapchain.Extent.Width,
		"height": r.swapchain.Extent.Height,
		"images": len(r.swapchain.Images),
	}).Debug("swapchain rebuilt")

	return nil
}

// DrawFrame renders and presents one frame, then updates the uniform buffer
// for the next one. A stale swapchain is rebuilt on the spot.
func (r *Renderer) DrawFrame() error {
	if err := r.drawFrame(); err != nil {
		return err
	}
	return r.UpdateUniformBuffer()
}

func (r *Renderer) drawFrame() error {
	frame := r.frames[r.currentFrame]
	fences := []vk.Fence{frame.inFlight}

	res := vk.WaitForFences(r.dev.Logical, 1, fences, vk.True, math.MaxUint64)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("waiting for frame fence: %w", err)
	}

	imageIndex, stale, err := r.swapchain.Acquire(frame.imageAvailable, vk.NullFence)
	if err != nil {
		return err
	}
	if stale {
		return r.rebuild()
	}

	if prev, busy := r.owners.claim(imageIndex, r.currentFrame); busy {
		res := vk.WaitForFences(
			r.dev.Logical,
			1,
			[]vk.Fence{r.frames[prev].inFlight},
			vk.True,
			math.MaxUint64,
		)
		if err := vk.Error(res); err != nil {
			return fmt.Errorf("waiting for image owner fence: %w", err)
		}
	}

	// Only reset the fence if we are submitting work.
	vk.ResetFences(r.dev.Logical, 1, fences)

	signalSemaphores := []vk.Semaphore{frame.renderFinished}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{r.commandBuffers[imageIndex]},
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
		PSignalSemaphores:    signalSemaphores,
	}

	res = vk.QueueSubmit(
		r.dev.GraphicsQueue,
		1,
		[]vk.SubmitInfo{submitInfo},
		frame.inFlight,
	)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("queue submit error: %w", err)
	}

	stale, err = r.swapchain.Present(r.dev.PresentQueue, imageIndex, frame.renderFinished)
	if err != nil {
		return err
	}

	r.currentFrame = (r.currentFrame + 1) % len(r.frames)

	if stale || r.swapchain.NeedsRebuild() {
		return r.rebuild()
	}

	return nil
}

// UpdateUniformBuffer writes the transforms for the current time into the
// staging buffer and copies them into the buffer read by the shaders.
func (r *Renderer) UpdateUniformBuffer() error {
	ubo := NewUniform(r.clock(), r.swapchain.Extent)
	data := unsafer.StructToBytes(&ubo)

	if err := r.uniformStaging.Write(data); err != nil {
		return fmt.Errorf("writing uniform buffer: %w", err)
	}

	err := copyUniform(
		r.dev,
		r.uniformStaging.Handle,
		r.uniformBuffer.Handle,
		vk.DeviceSize(len(data)),
	)
	if err != nil {
		return fmt.Errorf("copying uniform buffer: %w", err)
	}

	return nil
}

// Run draws frames until the window asks to close or ctx is cancelled. It
// waits for the device to go idle before returning.
func (r *Renderer) Run(ctx context.Context) error {
	log.Info("main loop started")
	defer func() {
		if err := r.dev.WaitIdle(); err != nil {
			log.WithError(err).Warn("waiting for device idle")
		}
	}()

	var tick <-chan time.Time
	if fps := r.opts.FramesPerSecond; fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		r.win.Poll()
		if closing := r.handleEvents(); closing || r.win.ShouldClose() {
			log.Info("window closed")
			return nil
		}

		if ctx.Err() != nil {
			log.Info("interrupted")
			return nil
		}

		if err := r.DrawFrame(); err != nil {
			return fmt.Errorf("error drawing a frame: %w", err)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
}

// handleEvents drains the window events. Resizes mark the swapchain stale.
// It reports whether closing was requested.
func (r *Renderer) handleEvents() bool {
	closing := false
	for {
		select {
		case ev := <-r.win.Events():
			switch ev.Kind {
			case events.Resized:
				log.WithFields(log.Fields{
					"width":  ev.Width,
					"height": ev.Height,
				}).Debug("window resized")
				r.swapchain.MarkStale()
			case events.CloseRequested:
				closing = true
			}
		default:
			return closing
		}
	}
}

// Destroy waits for the device to finish and releases everything the
// renderer created, the swapchain last.
func (r *Renderer) Destroy() {
	if err := r.dev.WaitIdle(); err != nil {
		log.WithError(err).Warn("waiting for device idle")
	}
	r.res.Release()
}
