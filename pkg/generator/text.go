// text.go - Caption rendering with custom TTF support and embedded fallback font.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to Go Regular
// when no font path is given.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// loadFace parses the font at path (or Go Regular when empty) at size points.
func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		data = b
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// DrawCaption draws text centred on canvas, one line per "\n". The text is
// black on light backgrounds and white on dark ones.
func DrawCaption(canvas *image.RGBA, text, fontPath string) error {
	b := canvas.Bounds()
	size := float64(b.Dy()) / 12
	if size < 8 {
		size = 8
	}
	face, err := loadFace(fontPath, size)
	if err != nil {
		return err
	}
	defer face.Close()

	lines := strings.Split(text, "\n")
	lineHeight := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	top := b.Min.Y + (b.Dy()-lineHeight*len(lines))/2

	col := captionColor(canvas.RGBAAt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2))
	drawer := &font.Drawer{Dst: canvas, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		adv := font.MeasureString(face, line).Ceil()
		x := b.Min.X + (b.Dx()-adv)/2
		y := top + i*lineHeight + ascent
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return nil
}

// captionColor picks black or white against bg by Rec. 601 luma.
func captionColor(bg color.RGBA) color.RGBA {
	luma := (299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)) / 1000
	if luma > 127 {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{255, 255, 255, 255}
}
