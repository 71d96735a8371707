package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// AESCBC is AES-256 in CBC mode with PKCS#7 padding. Ciphertext is always a
// whole number of blocks and at least one block long.
type AESCBC struct{}

var _ Strategy = AESCBC{}

func (AESCBC) EncryptBytes(plain, key, iv []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, fmt.Errorf("%w: plaintext is empty", stegerr.ErrInvalidInput)
	}
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func (AESCBC) DecryptBytes(ct, key, iv []byte) ([]byte, error) {
	if len(ct) == 0 {
		return nil, fmt.Errorf("%w: ciphertext is empty", stegerr.ErrInvalidInput)
	}
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", stegerr.ErrDecryption, len(ct), aes.BlockSize)
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	return plain, nil
}

func (a AESCBC) EncryptString(text string, key, iv []byte) ([]byte, error) {
	return a.EncryptBytes([]byte(text), key, iv)
}

func (a AESCBC) DecryptString(ct, key, iv []byte) (string, error) {
	plain, err := a.DecryptBytes(ct, key, iv)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (a AESCBC) EncryptInt64(n int64, key, iv []byte) ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return a.EncryptBytes(buf, key, iv)
}

func (a AESCBC) DecryptInt64(ct, key, iv []byte) (int64, error) {
	plain, err := a.DecryptBytes(ct, key, iv)
	if err != nil {
		return 0, err
	}
	if len(plain) != 8 {
		return 0, fmt.Errorf("%w: integer field decrypted to %d bytes", stegerr.ErrDecryption, len(plain))
	}
	return int64(binary.LittleEndian.Uint64(plain)), nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: key is empty", stegerr.ErrInvalidInput)
	}
	if len(iv) == 0 {
		return nil, fmt.Errorf("%w: IV is empty", stegerr.ErrInvalidInput)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", stegerr.ErrInvalidInput, KeySize, len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes, got %d", stegerr.ErrInvalidInput, aes.BlockSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stegerr.ErrInvalidInput, err)
	}
	return block, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: bad padded length %d", stegerr.ErrDecryption, len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", stegerr.ErrDecryption)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", stegerr.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
