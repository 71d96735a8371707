package medium

// bitAt returns bit k of b, least-significant bit of each byte first.
func bitAt(b []byte, k int) byte {
	return (b[k/8] >> (k % 8)) & 1
}

// packBits packs a 0/1 sequence into bytes, bit 0 of byte 0 first. A trailing
// partial byte is zero-filled.
func packBits(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for k, bit := range bits {
		if bit&1 == 1 {
			out[k/8] |= 1 << (k % 8)
		}
	}
	return out
}
