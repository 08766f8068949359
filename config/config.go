// Package config holds the viewer settings and the ways to override them.
//
// Values are layered, lowest precedence first: Default, a dotenv file,
// VKVIEWER_* variables of the process environment and finally command line
// flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when no -env flag is given. Its absence is
// not an error.
const DefaultEnvFile = ".env"

// Config defines a global viewer configuration setting
type Config struct {
	// Debug enables the Vulkan validation layer and debug logging.
	Debug bool

	Window   WindowConfig
	Renderer RendererConfig
	Time     TimeConfiguration
	Assets   AssetConfig
}

// WindowConfig describes the window the model is shown in.
type WindowConfig struct {
	Width     int
	Height    int
	Title     string
	Centered  bool
	Resizable bool
}

// RendererConfig is used to configure the renderer
type RendererConfig struct {
	VSync bool

	// AllowIntegrated lets device selection accept GPUs which are not
	// discrete.
	AllowIntegrated bool
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// AssetConfig points at the files the renderer loads. Empty paths select the
// assets built into the binary.
type AssetConfig struct {
	ShaderDir   string
	ModelPath   string
	TexturePath string
}

// Default returns the built in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:     800,
			Height:    600,
			Title:     "Vulkan",
			Centered:  true,
			Resizable: true,
		},
		Renderer: RendererConfig{
			VSync: false,
		},
	}
}

// Load builds a Config from the defaults, the dotenv file named by the -env
// flag, the process environment and args.
func Load(args []string) (Config, error) {
	var (
		first   = Default()
		envFile string
	)
	if err := newFlagSet(&first, &envFile).Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.loadEnvFile(envFile, envFile == DefaultEnvFile); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(processEnv()); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	if err := newFlagSet(&cfg, &envFile).Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadEnvFile(path string, optional bool) error {
	if path == "" {
		return nil
	}

	vals, err := godotenv.Read(path)
	if optional && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	if err := c.ApplyEnv(vals); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// Validate reports settings the viewer cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d",
			c.Window.Width, c.Window.Height)
	}

	if c.Time.FramesPerSecond < 0 {
		return fmt.Errorf("frames per second must not be negative, got %d",
			c.Time.FramesPerSecond)
	}

	return nil
}

func newFlagSet(cfg *Config, envFile *string) *flag.FlagSet {
	flags := flag.NewFlagSet("vkviewer", flag.ContinueOnError)

	flags.StringVar(envFile, "env", DefaultEnvFile, "Read settings from this dotenv file")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable Vulkan validation layers")

	flags.IntVar(&cfg.Window.Width, "width", cfg.Window.Width, "Window width in pixels")
	flags.IntVar(&cfg.Window.Height, "height", cfg.Window.Height, "Window height in pixels")
	flags.StringVar(&cfg.Window.Title, "title", cfg.Window.Title, "Window title")
	flags.BoolVar(&cfg.Window.Centered, "centered", cfg.Window.Centered,
		"Center the window on the primary monitor")
	flags.BoolVar(&cfg.Window.Resizable, "resizable", cfg.Window.Resizable,
		"Allow resizing of the window")

	flags.BoolVar(&cfg.Renderer.VSync, "vsync", cfg.Renderer.VSync, "Wait for vertical sync")
	flags.BoolVar(&cfg.Renderer.AllowIntegrated, "allow-integrated",
		cfg.Renderer.AllowIntegrated, "Accept GPUs which are not discrete")

	flags.IntVar(&cfg.Time.FramesPerSecond, "fps", cfg.Time.FramesPerSecond,
		"Cap the frame rate, 0 means unlimited")

	flags.StringVar(&cfg.Assets.ShaderDir, "shaders", cfg.Assets.ShaderDir,
		"Directory with vert.spv and frag.spv to use instead of the built in shaders")
	flags.StringVar(&cfg.Assets.ModelPath, "model", cfg.Assets.ModelPath,
		"OBJ file to show instead of the built in model")
	flags.StringVar(&cfg.Assets.TexturePath, "texture", cfg.Assets.TexturePath,
		"Image file to use instead of the built in texture")

	return flags
}

func processEnv() map[string]string {
	vals := make(map[string]string)
	for key := range envKeys {
		if val, ok := os.LookupEnv(key); ok {
			vals[key] = val
		}
	}
	return vals
}

type setter func(c *Config, val string) error

var envKeys = map[string]setter{
	"VKVIEWER_DEBUG":            boolField(func(c *Config) *bool { return &c.Debug }),
	"VKVIEWER_WIDTH":            intField(func(c *Config) *int { return &c.Window.Width }),
	"VKVIEWER_HEIGHT":           intField(func(c *Config) *int { return &c.Window.Height }),
	"VKVIEWER_TITLE":            stringField(func(c *Config) *string { return &c.Window.Title }),
	"VKVIEWER_CENTERED":         boolField(func(c *Config) *bool { return &c.Window.Centered }),
	"VKVIEWER_RESIZABLE":        boolField(func(c *Config) *bool { return &c.Window.Resizable }),
	"VKVIEWER_VSYNC":            boolField(func(c *Config) *bool { return &c.Renderer.VSync }),
	"VKVIEWER_ALLOW_INTEGRATED": boolField(func(c *Config) *bool { return &c.Renderer.AllowIntegrated }),
	"VKVIEWER_FPS":              intField(func(c *Config) *int { return &c.Time.FramesPerSecond }),
	"VKVIEWER_SHADER_DIR":       stringField(func(c *Config) *string { return &c.Assets.ShaderDir }),
	"VKVIEWER_MODEL":            stringField(func(c *Config) *string { return &c.Assets.ModelPath }),
	"VKVIEWER_TEXTURE":          stringField(func(c *Config) *string { return &c.Assets.TexturePath }),
}

// ApplyEnv overrides settings from VKVIEWER_* keys in vals. Unknown keys are
// ignored. Malformed values are reported together with their key.
func (c *Config) ApplyEnv(vals map[string]string) error {
	for key, val := range vals {
		set, ok := envKeys[key]
		if !ok {
			continue
		}

		if err := set(c, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func boolField(field func(*Config) *bool) setter {
	return func(c *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intField(field func(*Config) *int) setter {
	return func(c *Config, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*field(c) = i
		return nil
	}
}

func stringField(field func(*Config) *string) setter {
	return func(c *Config, val string) error {
		*field(c) = val
		return nil
	}
}
