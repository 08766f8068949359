package textures

import "embed"

// Default is the texture used when no other image file is configured.
const Default = "checker.png"

// FS contains the textures built into the viewer. It makes it possible to run
// the binary without any asset files next to it.
//
//go:embed checker.png
var FS embed.FS
