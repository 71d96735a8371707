package crypt

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// Filler pads pass-through strings up to one block.
const Filler = "?"

// PassThrough provides no confidentiality. It only reshapes strings and
// integers to the same fixed field widths the AES strategy produces.
type PassThrough struct{}

var _ Strategy = PassThrough{}

func (PassThrough) EncryptBytes(plain, key, iv []byte) ([]byte, error) {
	return plain, nil
}

func (PassThrough) DecryptBytes(ct, key, iv []byte) ([]byte, error) {
	return ct, nil
}

// EncryptString right-pads text with Filler to 16 characters (runes), not 16
// bytes: multi-byte text comes out longer than one block. Longer text is left
// as is.
func (PassThrough) EncryptString(text string, key, iv []byte) ([]byte, error) {
	if n := utf8.RuneCountInString(text); n < BlockSize {
		text += strings.Repeat(Filler, BlockSize-n)
	}
	return []byte(text), nil
}

// DecryptString strips every Filler character.
func (PassThrough) DecryptString(ct, key, iv []byte) (string, error) {
	return strings.ReplaceAll(string(ct), Filler, ""), nil
}

// EncryptInt64 stores n little-endian in the last 8 bytes of a zeroed block.
func (PassThrough) EncryptInt64(n int64, key, iv []byte) ([]byte, error) {
	rs := make([]byte, BlockSize)
	binary.LittleEndian.PutUint64(rs[BlockSize-8:], uint64(n))
	return rs, nil
}

func (PassThrough) DecryptInt64(ct, key, iv []byte) (int64, error) {
	if len(ct) < 8 {
		return 0, fmt.Errorf("%w: integer field is %d bytes", stegerr.ErrInvalidInput, len(ct))
	}
	return int64(binary.LittleEndian.Uint64(ct[len(ct)-8:])), nil
}
