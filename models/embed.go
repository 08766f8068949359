package models

import "embed"

// Default is the model shown when no other model file is configured.
const Default = "cube.obj"

// FS contains the models built into the viewer. It makes it possible to run
// the binary without any asset files next to it.
//
//go:embed cube.obj
var FS embed.FS
