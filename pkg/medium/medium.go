// Package medium owns the in-memory pixel grid of a carrier image and exposes
// byte-range reads and writes over it, three bits per pixel.
//
// A Medium is built once by Load, mutated in place by SetBytes, and turned back
// into PNG or BMP bytes by Encode. It is not safe for concurrent use; every
// hide or extract call builds its own.
package medium

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// Medium is a flattened, opaque RGB pixel grid plus the byte length of the
// encoded file it came from.
type Medium struct {
	img        *image.RGBA
	width      int
	height     int
	format     Format
	encodedLen int
}

// Load decodes a PNG or BMP image. Transparency is composited onto an opaque
// white background since alpha cannot carry payload bits.
func Load(data []byte) (*Medium, error) {
	f, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	src, err := decode(data, f)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", stegerr.ErrFormat)
	}
	return &Medium{
		img:        flatten(src),
		width:      b.Dx(),
		height:     b.Dy(),
		format:     f,
		encodedLen: len(data),
	}, nil
}

// flatten draws src over white into a zero-origin RGBA with alpha 255.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func (m *Medium) Width() int      { return m.width }
func (m *Medium) Height() int     { return m.height }
func (m *Medium) Format() Format  { return m.format }
func (m *Medium) EncodedLen() int { return m.encodedLen }

// Pixels returns the number of three-bit slots in the grid.
func (m *Medium) Pixels() int {
	return m.width * m.height
}

// Capacity returns the true payload capacity in bits.
func (m *Medium) Capacity() int {
	return m.Pixels() * 3
}

// CheckCapacity reports whether n bytes fit the budget of one eighth of the
// encoded file size. This is a heuristic on file size, not on pixel count.
func (m *Medium) CheckCapacity(n int) bool {
	return n <= m.encodedLen/8
}

// IndexToCoord maps a slot index to pixel coordinates in row-major order.
func (m *Medium) IndexToCoord(index int) (x, y int, err error) {
	if index < 0 || index >= m.Pixels() {
		return 0, 0, fmt.Errorf("%w: index %d, grid has %d pixels", stegerr.ErrOutOfRange, index, m.Pixels())
	}
	x = index % m.width
	y = (index - x) / m.width
	return x, y, nil
}

// SetBytes writes the bits of b into slots [offset, offset+slots). The last
// slot carries 3-padding bits from b; its trailing padding bits are zeroed.
func (m *Medium) SetBytes(b []byte, slots, offset, padding int) error {
	if err := m.checkSpan(slots, offset, padding); err != nil {
		return err
	}
	if need := bitCount(slots, padding); len(b)*8 < need {
		return fmt.Errorf("%w: %d bytes cannot fill %d bits", stegerr.ErrInvalidInput, len(b), need)
	}

	for i := 0; i < slots; i++ {
		var trio Bits
		used := 3
		if i == slots-1 {
			used -= padding
		}
		for j := 0; j < used; j++ {
			trio[j] = bitAt(b, i*3+j)
		}

		x, y, err := m.IndexToCoord(offset + i)
		if err != nil {
			return err
		}
		m.img.SetRGBA(x, y, WriteBits(m.img.RGBAAt(x, y), trio))
	}
	return nil
}

// GetBytes reads slots*3-padding bits from [offset, offset+slots) and packs
// them into bytes.
func (m *Medium) GetBytes(slots, offset, padding int) ([]byte, error) {
	if err := m.checkSpan(slots, offset, padding); err != nil {
		return nil, err
	}

	bits := make([]byte, 0, bitCount(slots, padding))
	for i := 0; i < slots; i++ {
		x, y, err := m.IndexToCoord(offset + i)
		if err != nil {
			return nil, err
		}
		trio := ReadBits(m.img.RGBAAt(x, y))
		used := 3
		if i == slots-1 {
			used -= padding
		}
		bits = append(bits, trio[:used]...)
	}
	return packBits(bits), nil
}

// Encode serialises the grid as PNG or BMP.
func (m *Medium) Encode(ext string) ([]byte, error) {
	f, err := ParseFormat(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: save image with hidden data as png or bmp, not %q", stegerr.ErrInvalidInput, ext)
	}
	return encode(m.img, f)
}

// Image exposes the pixel grid for read-only inspection.
func (m *Medium) Image() image.Image {
	return m.img
}

// checkSpan validates a field before any pixel is touched.
func (m *Medium) checkSpan(slots, offset, padding int) error {
	if padding < 0 || padding > 2 {
		return fmt.Errorf("%w: padding %d not in [0,2]", stegerr.ErrInvalidInput, padding)
	}
	if slots < 0 || offset < 0 {
		return fmt.Errorf("%w: negative slot count or offset", stegerr.ErrInvalidInput)
	}
	if slots == 0 {
		return nil
	}
	if slots > m.Pixels() || offset > m.Pixels()-slots {
		return fmt.Errorf("%w: slots [%d, %d) exceed %d pixels", stegerr.ErrOutOfRange, offset, offset+slots, m.Pixels())
	}
	return nil
}

func bitCount(slots, padding int) int {
	if slots == 0 {
		return 0
	}
	return slots*3 - padding
}
