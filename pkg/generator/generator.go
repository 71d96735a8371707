// Package generator provides cover image generation for steganography.
//
// All output follows a unified pipeline: create an image.Image first, then
// write it as PNG or BMP. Both are lossless, so every generated cover can
// carry a hidden file.
package generator

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Pattern selects how a generated cover is filled.
type Pattern string

const (
	// Solid fills every pixel with Color. Compresses well, so PNG covers are
	// small and give a small capacity budget.
	Solid Pattern = "solid"
	// Noise fills pixels from a CSPRNG, tinted towards Color.
	Noise Pattern = "noise"
)

// MaxSide bounds generated cover width and height.
const MaxSide = 8192

// Config holds parameters for cover generation.
type Config struct {
	Width   int         `json:"width"`   // Pixel width (default: 1280)
	Height  int         `json:"height"`  // Pixel height (default: 720)
	Color   string      `json:"color"`   // Hex "#rrggbb" or "random"
	Pattern Pattern     `json:"pattern"` // "solid" (default) or "noise"
	Text    string      `json:"text"`    // Optional caption, centred
	Font    string      `json:"font"`    // Optional TTF path for Text; Go Regular when empty
	Image   image.Image `json:"-"`       // Pre-rendered image; overrides Width/Height/Color/Pattern
}

// Generate creates an output file. The format is inferred from the file extension:
//   - ".png" → PNG image
//   - ".bmp" → 24-bit BMP image
func Generate(output string, cfg Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	if ext != ".png" && ext != ".bmp" {
		return fmt.Errorf("unsupported format %q: use .png or .bmp", ext)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := GenerateToWriter(f, ext, cfg); err != nil {
		return err
	}
	return f.Sync()
}

// GenerateToWriter writes a cover to w. The format is specified by ext (".png" or ".bmp").
// This is useful for in-memory generation (e.g., WASM, HTTP, tests).
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}

	switch strings.ToLower(ext) {
	case ".png", "png":
		return writePNG(w, img)
	case ".bmp", "bmp":
		return writeBMP(w, img)
	default:
		return fmt.Errorf("unsupported format %q: use .png or .bmp", ext)
	}
}

// resolveImage returns the source image from config, creating a cover from
// Color/Pattern if none is provided, then draws the caption.
func resolveImage(cfg Config) (image.Image, error) {
	if cfg.Image != nil && cfg.Text == "" {
		return cfg.Image, nil
	}

	var canvas *image.RGBA
	if cfg.Image != nil {
		canvas = toRGBACanvas(cfg.Image)
	} else {
		w := cfg.Width
		if w <= 0 {
			w = 1280
		}
		h := cfg.Height
		if h <= 0 {
			h = 720
		}
		if w > MaxSide || h > MaxSide {
			return nil, fmt.Errorf("cover %dx%d exceeds %d pixels per side", w, h, MaxSide)
		}

		r, g, b, err := ParseColor(cfg.Color)
		if err != nil {
			return nil, err
		}

		switch cfg.Pattern {
		case Solid, "":
			canvas = NewSolidImage(w, h, toRGBA(r, g, b))
		case Noise:
			canvas, err = NewNoiseImage(w, h, toRGBA(r, g, b))
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown pattern %q: use solid or noise", cfg.Pattern)
		}
	}

	if cfg.Text != "" {
		if err := DrawCaption(canvas, cfg.Text, cfg.Font); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}
