package crypt

import (
	"crypto/sha256"

	"github.com/tink-crypto/tink-go/v2/subtle/random"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Hasher computes the authentication flag, derives encryption keys and
// generates salts and IVs. It is immutable and safe for concurrent use.
type Hasher struct {
	cfg Config
}

// NewHasher validates cfg and returns a hasher bound to it.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.KDF == "" {
		cfg.KDF = KDFPBKDF2
	}
	return &Hasher{cfg: cfg}, nil
}

// Config returns the parameters the hasher was built with.
func (h *Hasher) Config() Config {
	return h.cfg
}

// HashPassword applies SHA-256 to the UTF-8 password PasswordIterations times,
// feeding each digest back in. Same password, same rounds, same 32 bytes.
func (h *Hasher) HashPassword(password string) []byte {
	rs := []byte(password)
	for i := 0; i < h.cfg.PasswordIterations; i++ {
		sum := sha256.Sum256(rs)
		rs = sum[:]
	}
	return rs
}

// DeriveKey derives a 32-byte key from password and salt with the configured
// KDF. A different salt always yields a different key.
func (h *Hasher) DeriveKey(password string, salt []byte) []byte {
	if h.cfg.KDF == KDFArgon2id {
		return argon2.IDKey([]byte(password), salt, h.cfg.Argon2Time, h.cfg.Argon2Memory, h.cfg.Argon2Threads, KeySize)
	}
	return pbkdf2.Key([]byte(password), salt, h.cfg.KeyIterations, KeySize, sha256.New)
}

// RandomBytes returns n bytes from a cryptographically secure source.
func (h *Hasher) RandomBytes(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	return random.GetRandomBytes(uint32(n))
}
