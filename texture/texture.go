// Package texture decodes image files into the RGBA8 pixels uploaded to the
// GPU.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io/fs"

	// Used for decoding textures
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	log "github.com/sirupsen/logrus"
)

// BytesPerPixel of the decoded pixel data.
const BytesPerPixel = 4

// ErrRowPitch is returned by CopyTo for a row pitch too small to hold a row.
var ErrRowPitch = errors.New("row pitch smaller than image row")

// Image is tightly packed RGBA8 pixel data, top row first.
type Image struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

// Size is the length of Pix in bytes.
func (img *Image) Size() int {
	return int(img.Width) * int(img.Height) * BytesPerPixel
}

// Load opens and decodes the file name from fsys.
func Load(fsys fs.FS, name string) (*Image, error) {
	fh, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer fh.Close()

	img, format, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture image %s: %w", name, err)
	}

	tex := FromImage(img)
	log.WithFields(log.Fields{
		"texture": name,
		"format":  format,
		"width":   tex.Width,
		"height":  tex.Height,
	}).Debug("loaded texture")

	return tex, nil
}

// FromImage converts img to RGBA if it is not already.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	rgbaImg := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgbaImg, rgbaImg.Bounds(), img, b.Min, draw.Src)

	return &Image{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Pix:    rgbaImg.Pix,
	}
}

// CopyTo writes the pixels into dst where consecutive rows start rowPitch
// bytes apart, as in a linearly tiled image. Padding bytes are left alone.
func (img *Image) CopyTo(dst []byte, rowPitch int) error {
	rowSize := int(img.Width) * BytesPerPixel
	if rowPitch < rowSize {
		return fmt.Errorf("%w: pitch %d, row %d", ErrRowPitch, rowPitch, rowSize)
	}

	need := rowPitch*(int(img.Height)-1) + rowSize
	if img.Height == 0 {
		need = 0
	}
	if len(dst) < need {
		return fmt.Errorf("destination holds %d bytes, need %d", len(dst), need)
	}

	if rowPitch == rowSize {
		copy(dst, img.Pix)
		return nil
	}

	for y := 0; y < int(img.Height); y++ {
		copy(dst[y*rowPitch:y*rowPitch+rowSize], img.Pix[y*rowSize:(y+1)*rowSize])
	}
	return nil
}
