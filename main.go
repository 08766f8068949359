package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	log "github.com/sirupsen/logrus"

	"vkviewer/config"
	"vkviewer/device"
	"vkviewer/models"
	"vkviewer/render"
	"vkviewer/shaders"
	"vkviewer/textures"
	"vkviewer/window"
)

// Exit statuses of the program.
const (
	exitOK         = 0
	exitFailure    = 1
	exitGLFWFailed = -1
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return exitFailure
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := window.Init(); err != nil {
		log.WithError(err).Error("failed to initialize GLFW")
		return exitGLFWFailed
	}
	defer window.Terminate()

	if err := viewer(ctx, cfg); err != nil {
		log.WithError(err).Error("viewer failed")
		return exitFailure
	}

	return exitOK
}

func viewer(ctx context.Context, cfg config.Config) error {
	if err := window.InitVulkan(); err != nil {
		return err
	}

	win, err := window.New(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Destroy()

	dev, err := device.New(device.Options{
		AppName:         cfg.Window.Title,
		Validation:      cfg.Debug,
		AllowIntegrated: cfg.Renderer.AllowIntegrated,
	}, win)
	if err != nil {
		return err
	}
	defer dev.Destroy()

	renderer, err := render.New(dev, win, render.Options{
		Shaders:         shaderFS(cfg.Assets.ShaderDir),
		Model:           asset(cfg.Assets.ModelPath, models.FS, models.Default),
		Texture:         asset(cfg.Assets.TexturePath, textures.FS, textures.Default),
		VSync:           cfg.Renderer.VSync,
		FramesPerSecond: cfg.Time.FramesPerSecond,
	})
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	return renderer.Run(ctx)
}

// asset resolves a configured file path. An empty path selects the file
// built into the binary.
func asset(path string, builtin fs.FS, name string) render.Asset {
	if path == "" {
		return render.Asset{FS: builtin, Name: name}
	}
	return render.Asset{
		FS:   os.DirFS(filepath.Dir(path)),
		Name: filepath.Base(path),
	}
}

// shaderFS returns the directory holding the compiled shaders, or the
// built in pair when dir is empty.
func shaderFS(dir string) fs.FS {
	if dir == "" {
		return shaders.FS
	}
	return os.DirFS(dir)
}
