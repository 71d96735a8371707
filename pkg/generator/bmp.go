// bmp.go - BMP cover writer.
// Opaque images are written as 24-bit uncompressed bitmaps (BGR, bottom-up) by
// golang.org/x/image/bmp, which is the layout every BMP reader accepts.
package generator

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/bmp"
)

// writeBMP encodes img as BMP to w. Transparent pixels are flattened first so
// the output never needs a 32-bit alpha bitmap.
func writeBMP(w io.Writer, img image.Image) error {
	if o, ok := img.(interface{ Opaque() bool }); !ok || !o.Opaque() {
		img = toRGBACanvas(img)
	}
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("encode BMP: %w", err)
	}
	return nil
}
