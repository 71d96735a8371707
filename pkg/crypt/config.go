// Package crypt provides the password hashing, key derivation and symmetric
// encryption strategies used by the steganographic container.
package crypt

import (
	"fmt"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

const (
	// DefaultPasswordIterations is the SHA-256 round count for the auth flag.
	DefaultPasswordIterations = 20000
	// DefaultKeyIterations is the PBKDF2 round count for the encryption key.
	DefaultKeyIterations = 10000

	// KeySize is the derived key length (AES-256).
	KeySize = 32
	// BlockSize is the cipher block, IV and salt length.
	BlockSize = 16
	// HashSize is the auth flag length.
	HashSize = 32
)

// KDF names a password-based key derivation function.
type KDF string

const (
	KDFPBKDF2   KDF = "pbkdf2"
	KDFArgon2id KDF = "argon2id"
)

// Config holds the hasher parameters. The zero value is not usable; start from
// DefaultConfig and override fields.
type Config struct {
	PasswordIterations int
	KeyIterations      int
	KDF                KDF

	// Argon2id only.
	Argon2Time    uint32
	Argon2Memory  uint32 // in KB
	Argon2Threads uint8
}

// DefaultConfig returns 20000 hash rounds and 10000 PBKDF2 rounds.
func DefaultConfig() Config {
	return Config{
		PasswordIterations: DefaultPasswordIterations,
		KeyIterations:      DefaultKeyIterations,
		KDF:                KDFPBKDF2,
		Argon2Time:         3,
		Argon2Memory:       64 * 1024,
		Argon2Threads:      4,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if c.PasswordIterations < 1 {
		return fmt.Errorf("%w: password iterations must be at least 1", stegerr.ErrInvalidInput)
	}
	switch c.KDF {
	case KDFPBKDF2, "":
		if c.KeyIterations < 1 {
			return fmt.Errorf("%w: key iterations must be at least 1", stegerr.ErrInvalidInput)
		}
	case KDFArgon2id:
		if c.Argon2Time < 1 || c.Argon2Memory < 8 || c.Argon2Threads < 1 {
			return fmt.Errorf("%w: argon2id time, memory and threads must be positive", stegerr.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown KDF %q", stegerr.ErrInvalidInput, c.KDF)
	}
	return nil
}
