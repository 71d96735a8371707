// png.go - PNG cover writer.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// writePNG encodes img as PNG to w. Opaque images are written as 8-bit RGB.
func writePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// toRGBA is a convenience to construct color.RGBA with full alpha.
func toRGBA(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
