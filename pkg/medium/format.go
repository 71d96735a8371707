// format.go - Image container detection and PNG/BMP codecs.
// Formats are recognised by magic bytes, never by file name. Only lossless
// single-frame containers are accepted; JPEG and GIF are rejected outright.
package medium

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// Format is a supported carrier container.
type Format string

const (
	PNG Format = "png"
	BMP Format = "bmp"
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	bmpMagic  = []byte{'B', 'M'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	gifMagic  = []byte{'G', 'I', 'F'}
)

// ParseFormat normalises an extension such as ".PNG" or "bmp".
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("%w: %q (use png or bmp)", stegerr.ErrFormat, ext)
	}
}

// MimeType returns the media type for f.
func (f Format) MimeType() string {
	if f == BMP {
		return "image/bmp"
	}
	return "image/png"
}

// Sniff detects the container format of data.
func Sniff(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return PNG, nil
	case bytes.HasPrefix(data, bmpMagic):
		return BMP, nil
	case bytes.HasPrefix(data, jpegMagic):
		return "", fmt.Errorf("%w: JPEG is lossy, use png or bmp", stegerr.ErrFormat)
	case bytes.HasPrefix(data, gifMagic):
		return "", fmt.Errorf("%w: GIF is not supported, use png or bmp", stegerr.ErrFormat)
	default:
		return "", fmt.Errorf("%w: image must be either png or bmp", stegerr.ErrFormat)
	}
}

func decode(data []byte, f Format) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch f {
	case PNG:
		img, err = png.Decode(bytes.NewReader(data))
	case BMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", stegerr.ErrFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", stegerr.ErrFormat, f, err)
	}
	return img, nil
}

func encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case PNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	case BMP:
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode BMP: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", stegerr.ErrInvalidInput, f)
	}
	return buf.Bytes(), nil
}
