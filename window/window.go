// Package window wraps the GLFW window the viewer draws into.
package window

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"vkviewer/config"
	"vkviewer/events"
)

const eventQueueSize = 16

// Init initializes GLFW. It must be called from the main thread before New.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init: %w", err)
	}
	return nil
}

// InitVulkan loads the Vulkan entry points through GLFW's loader. It must be
// called after Init and before any Vulkan function.
func InitVulkan() error {
	if !glfw.VulkanSupported() {
		return fmt.Errorf("vulkan loader not found")
	}

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vk.Init: %w", err)
	}
	return nil
}

// Terminate releases GLFW. No window may be used after it.
func Terminate() {
	glfw.Terminate()
}

// Window is a GLFW window without a client API, ready for Vulkan rendering.
type Window struct {
	win   *glfw.Window
	queue *events.Queue
}

// New creates the window described by cfg.
func New(cfg config.WindowConfig) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(cfg.Resizable))

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	w := &Window{
		win:   win,
		queue: events.NewQueue(eventQueueSize),
	}

	if cfg.Centered {
		w.center()
	}

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width int, height int) {
		w.queue.Resized(width, height)
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		w.queue.CloseRequested()
	})

	return w, nil
}

func (w *Window) center() {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		log.Warn("no primary monitor, window will not be centered")
		return
	}

	mode := monitor.GetVideoMode()
	if mode == nil {
		return
	}

	width, height := w.win.GetSize()
	mx, my := monitor.GetPos()
	w.win.SetPos(mx+(mode.Width-width)/2, my+(mode.Height-height)/2)
}

// Events returns the channel window notifications are delivered on. Events
// are produced while Poll or WaitForNonZeroSize run.
func (w *Window) Events() <-chan events.Event {
	return w.queue.C()
}

// Poll processes pending window system events.
func (w *Window) Poll() {
	glfw.PollEvents()
}

// ShouldClose reports whether closing the window was requested.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.win.GetFramebufferSize()
}

// Resize asks the window system for a new client area size. The matching
// Resized event arrives during a later Poll.
func (w *Window) Resize(width, height int) {
	w.win.SetSize(width, height)
}

// WaitForNonZeroSize blocks while the window is minimized and returns the
// first non-zero framebuffer size. It returns early with a zero size if the
// window is asked to close meanwhile.
func (w *Window) WaitForNonZeroSize() (int, int) {
	for {
		width, height := w.win.GetFramebufferSize()
		if width != 0 && height != 0 {
			return width, height
		}
		if w.win.ShouldClose() {
			return 0, 0
		}

		glfw.WaitEvents()
	}
}

// RequiredExtensions lists the instance extensions needed to present to this
// window. Names are NUL terminated as the Vulkan bindings expect.
func (w *Window) RequiredExtensions() []string {
	exts := w.win.GetRequiredInstanceExtensions()

	names := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !strings.HasSuffix(ext, "\x00") {
			ext += "\x00"
		}
		names = append(names, ext)
	}
	return names
}

// CreateSurface creates a Vulkan surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfacePtr, err := w.win.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("cannot create surface within GLFW window: %w", err)
	}

	return vk.SurfaceFromPointer(surfacePtr), nil
}

// Destroy closes the window.
func (w *Window) Destroy() {
	w.win.Destroy()
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
