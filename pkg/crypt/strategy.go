package crypt

import (
	"fmt"
	"strings"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// Strategy encrypts the container fields. Implementations take a 32-byte key
// and a 16-byte IV; pass-through ignores both.
type Strategy interface {
	EncryptBytes(plain, key, iv []byte) ([]byte, error)
	DecryptBytes(cipher, key, iv []byte) ([]byte, error)
	EncryptString(text string, key, iv []byte) ([]byte, error)
	DecryptString(cipher, key, iv []byte) (string, error)
	EncryptInt64(n int64, key, iv []byte) ([]byte, error)
	DecryptInt64(cipher, key, iv []byte) (int64, error)
}

// Mode selects a Strategy.
type Mode string

const (
	ModeAES  Mode = "aes"
	ModeNone Mode = "none"
)

// ParseMode accepts "aes", "none" and a few aliases, case-insensitively.
// An empty string selects AES.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aes", "aes256", "aes-256-cbc":
		return ModeAES, nil
	case "none", "plain", "passthrough":
		return ModeNone, nil
	default:
		return "", fmt.Errorf("%w: unknown encryption mode %q (use aes or none)", stegerr.ErrInvalidInput, s)
	}
}

// NewStrategy returns the strategy for mode.
func NewStrategy(mode Mode) (Strategy, error) {
	switch mode {
	case ModeAES, "":
		return AESCBC{}, nil
	case ModeNone:
		return PassThrough{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown encryption mode %q", stegerr.ErrInvalidInput, mode)
	}
}
