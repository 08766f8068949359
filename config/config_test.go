package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDefault(t *testing.T) {
	c := qt.New(t)

	cfg := Default()
	c.Assert(cfg.Window.Width, qt.Equals, 800)
	c.Assert(cfg.Window.Height, qt.Equals, 600)
	c.Assert(cfg.Window.Title, qt.Equals, "Vulkan")
	c.Assert(cfg.Renderer.VSync, qt.IsFalse)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 0)
	c.Assert(cfg.Validate(), qt.IsNil)
}

func writeEnv(c *qt.C, contents string) string {
	path := filepath.Join(c.TempDir(), "viewer.env")
	err := os.WriteFile(path, []byte(contents), 0o644)
	c.Assert(err, qt.IsNil)
	return path
}

func TestLoadPrecedence(t *testing.T) {
	c := qt.New(t)

	path := writeEnv(c, "VKVIEWER_WIDTH=1024\nVKVIEWER_HEIGHT=768\nVKVIEWER_VSYNC=true\n")
	c.Setenv("VKVIEWER_HEIGHT", "700")

	cfg, err := Load([]string{"-env", path, "-width", "640", "-model", "teapot.obj"})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Width, qt.Equals, 640)
	c.Assert(cfg.Window.Height, qt.Equals, 700)
	c.Assert(cfg.Renderer.VSync, qt.IsTrue)
	c.Assert(cfg.Assets.ModelPath, qt.Equals, "teapot.obj")
	c.Assert(cfg.Assets.ShaderDir, qt.Equals, "")
}

func TestLoadMissingEnvFile(t *testing.T) {
	c := qt.New(t)

	missing := filepath.Join(c.TempDir(), "nope.env")
	_, err := Load([]string{"-env", missing})
	c.Assert(err, qt.ErrorMatches, "reading env file .*")

	cfg, err := Load(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Default())
}

func TestLoadMalformedValue(t *testing.T) {
	c := qt.New(t)

	path := writeEnv(c, "VKVIEWER_FPS=fast\n")
	_, err := Load([]string{"-env", path})
	c.Assert(err, qt.ErrorMatches, `env file .*: VKVIEWER_FPS: .*invalid syntax`)
}

func TestLoadRejectsInvalid(t *testing.T) {
	c := qt.New(t)

	_, err := Load([]string{"-env", "", "-width", "0"})
	c.Assert(err, qt.ErrorMatches, "window size must be positive, got 0x600")

	_, err = Load([]string{"-env", "", "-fps", "-1"})
	c.Assert(err, qt.ErrorMatches, "frames per second must not be negative, got -1")
}

func TestApplyEnvIgnoresUnknownKeys(t *testing.T) {
	c := qt.New(t)

	cfg := Default()
	err := cfg.ApplyEnv(map[string]string{
		"HOME":           "/root",
		"VKVIEWER_TITLE": "Model",
		"VKVIEWER_DEBUG": "1",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Title, qt.Equals, "Model")
	c.Assert(cfg.Debug, qt.IsTrue)
}
