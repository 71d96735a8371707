package medium

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

func noiseImage(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadPNGAndBMP(t *testing.T) {
	src := noiseImage(17, 9, 1)

	for name, data := range map[string][]byte{
		"png": encodePNG(t, src),
		"bmp": encodeBMP(t, src),
	} {
		t.Run(name, func(t *testing.T) {
			m, err := Load(data)
			require.NoError(t, err)

			assert.Equal(t, Format(name), m.Format())
			assert.Equal(t, 17, m.Width())
			assert.Equal(t, 9, m.Height())
			assert.Equal(t, len(data), m.EncodedLen())
			assert.Equal(t, 17*9*3, m.Capacity())
			assert.Equal(t, src.RGBAAt(5, 4), m.img.RGBAAt(5, 4))
		})
	}
}

func TestLoadRejectsOtherFormats(t *testing.T) {
	src := noiseImage(8, 8, 2)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))
	var gf bytes.Buffer
	require.NoError(t, gif.Encode(&gf, src, nil))

	tests := map[string][]byte{
		"jpeg":      jpg.Bytes(),
		"gif":       gf.Bytes(),
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": encodePNG(t, src)[:40],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(data)
			assert.ErrorIs(t, err, stegerr.ErrFormat)
		})
	}
}

func TestLoadFlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 0, B: 0, A: 0})

	m, err := Load(encodePNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, m.img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, m.img.RGBAAt(1, 0))
}

func TestLoadNormalisesOrigin(t *testing.T) {
	src := noiseImage(6, 4, 3).SubImage(image.Rect(2, 1, 6, 4))

	m, err := Load(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, image.Rect(0, 0, 4, 3), m.img.Bounds())
}

func TestIndexToCoord(t *testing.T) {
	m, err := Load(encodePNG(t, noiseImage(5, 3, 4)))
	require.NoError(t, err)

	tests := []struct {
		index int
		x, y  int
	}{
		{0, 0, 0},
		{4, 4, 0},
		{5, 0, 1},
		{14, 4, 2},
	}
	for _, tt := range tests {
		x, y, err := m.IndexToCoord(tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.x, x, "index %d", tt.index)
		assert.Equal(t, tt.y, y, "index %d", tt.index)
	}

	_, _, err = m.IndexToCoord(15)
	assert.ErrorIs(t, err, stegerr.ErrOutOfRange)
	_, _, err = m.IndexToCoord(-1)
	assert.ErrorIs(t, err, stegerr.ErrOutOfRange)
}

func TestSetGetBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		slots   int
		padding int
	}{
		{"hash", bytes.Repeat([]byte{0xa5, 0xff}, 16), 86, 2},
		{"block", []byte("0123456789abcdef"), 43, 1},
		{"no padding", []byte{0xde, 0xad, 0xbe}, 8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(encodePNG(t, noiseImage(20, 20, 5)))
			require.NoError(t, err)

			require.NoError(t, m.SetBytes(tt.data, tt.slots, 10, tt.padding))
			got, err := m.GetBytes(tt.slots, 10, tt.padding)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestSetBytesZeroesPaddingBits(t *testing.T) {
	m, err := Load(encodePNG(t, noiseImage(20, 20, 6)))
	require.NoError(t, err)

	// 16 bytes of ones; the last slot keeps bits 126 and 127, pads the blue bit.
	require.NoError(t, m.SetBytes(bytes.Repeat([]byte{0xff}, 16), 43, 0, 1))
	x, y, err := m.IndexToCoord(42)
	require.NoError(t, err)
	assert.Equal(t, Bits{1, 1, 0}, ReadBits(m.img.RGBAAt(x, y)))

	require.NoError(t, m.SetBytes(bytes.Repeat([]byte{0xff}, 32), 86, 43, 2))
	x, y, err = m.IndexToCoord(43 + 85)
	require.NoError(t, err)
	assert.Equal(t, Bits{1, 0, 0}, ReadBits(m.img.RGBAAt(x, y)))
}

func TestSetBytesLeavesOtherPixelsAlone(t *testing.T) {
	src := noiseImage(10, 10, 7)
	m, err := Load(encodePNG(t, src))
	require.NoError(t, err)

	require.NoError(t, m.SetBytes([]byte{0x00, 0xff}, 5, 3, 1))

	for i := 0; i < 100; i++ {
		x, y, _ := m.IndexToCoord(i)
		before, after := src.RGBAAt(x, y), m.img.RGBAAt(x, y)
		if i >= 3 && i < 8 {
			assert.Equal(t, before.R&0xfe, after.R&0xfe)
			assert.Equal(t, before.G&0xfe, after.G&0xfe)
			assert.Equal(t, before.B&0xfe, after.B&0xfe)
			continue
		}
		assert.Equal(t, before, after, "pixel %d", i)
	}
}

func TestSetBytesValidation(t *testing.T) {
	m, err := Load(encodePNG(t, noiseImage(4, 4, 8)))
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetBytes([]byte{1, 2}, 5, 0, 3), stegerr.ErrInvalidInput)
	assert.ErrorIs(t, m.SetBytes([]byte{1}, 5, 0, 0), stegerr.ErrInvalidInput)
	assert.ErrorIs(t, m.SetBytes(make([]byte, 16), 43, 0, 1), stegerr.ErrOutOfRange)
	assert.ErrorIs(t, m.SetBytes([]byte{1, 2}, 5, 12, 1), stegerr.ErrOutOfRange)

	_, err = m.GetBytes(3, 14, 0)
	assert.ErrorIs(t, err, stegerr.ErrOutOfRange)

	got, err := m.GetBytes(0, 16, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckCapacity(t *testing.T) {
	data := encodePNG(t, noiseImage(16, 16, 9))
	m, err := Load(data)
	require.NoError(t, err)

	limit := len(data) / 8
	assert.True(t, m.CheckCapacity(limit))
	assert.True(t, m.CheckCapacity(limit-1))
	assert.False(t, m.CheckCapacity(limit+1))
}

func TestEncodeRoundTripsPayload(t *testing.T) {
	for _, ext := range []string{"png", ".BMP"} {
		t.Run(ext, func(t *testing.T) {
			m, err := Load(encodePNG(t, noiseImage(12, 12, 10)))
			require.NoError(t, err)
			require.NoError(t, m.SetBytes([]byte("hello, medium"), 35, 2, 1))

			out, err := m.Encode(ext)
			require.NoError(t, err)

			again, err := Load(out)
			require.NoError(t, err)
			got, err := again.GetBytes(35, 2, 1)
			require.NoError(t, err)
			assert.Equal(t, []byte("hello, medium"), got)
		})
	}
}

func TestEncodeRejectsUnknownExtension(t *testing.T) {
	m, err := Load(encodePNG(t, noiseImage(2, 2, 11)))
	require.NoError(t, err)

	_, err = m.Encode("jpg")
	assert.ErrorIs(t, err, stegerr.ErrInvalidInput)
}

func TestPixelCodec(t *testing.T) {
	c := color.RGBA{R: 0b1010_1010, G: 0b0101_0101, B: 0xff, A: 0x7f}

	got := WriteBits(c, Bits{1, 0, 0})
	assert.Equal(t, color.RGBA{R: 0b1010_1011, G: 0b0101_0100, B: 0xfe, A: 0x7f}, got)
	assert.Equal(t, Bits{1, 0, 0}, ReadBits(got))
	assert.Equal(t, Bits{0, 1, 1}, ReadBits(c))
}

func TestPackBits(t *testing.T) {
	assert.Equal(t, []byte{0b0000_0101}, packBits([]byte{1, 0, 1}))
	assert.Equal(t, []byte{0xff, 0x01}, packBits([]byte{1, 1, 1, 1, 1, 1, 1, 1, 1}))
	assert.Equal(t, byte(1), bitAt([]byte{0x00, 0x02}, 9))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "image/png", f.MimeType())

	f, err = ParseFormat("bmp")
	require.NoError(t, err)
	assert.Equal(t, BMP, f)
	assert.Equal(t, "image/bmp", f.MimeType())

	_, err = ParseFormat("jpg")
	assert.ErrorIs(t, err, stegerr.ErrFormat)
}
