// pixel.go - Least-significant-bit channel codec.
// Each pixel carries exactly three payload bits, one in bit 0 of R, G and B,
// in that order. Alpha and the upper seven bits of every channel are untouched.
package medium

import "image/color"

// Bits holds one pixel's payload, each element 0 or 1, ordered R, G, B.
type Bits [3]byte

const lastBit = 0

// WriteBits returns c with the low bit of R, G and B replaced by b.
func WriteBits(c color.RGBA, b Bits) color.RGBA {
	c.R = setBit(c.R, lastBit, b[0])
	c.G = setBit(c.G, lastBit, b[1])
	c.B = setBit(c.B, lastBit, b[2])
	return c
}

// ReadBits returns the low bit of R, G and B.
func ReadBits(c color.RGBA) Bits {
	return Bits{
		(c.R >> lastBit) & 1,
		(c.G >> lastBit) & 1,
		(c.B >> lastBit) & 1,
	}
}

func setBit(v uint8, pos uint, bit byte) uint8 {
	if bit&1 == 1 {
		return v | (1 << pos)
	}
	return v &^ (1 << pos)
}
