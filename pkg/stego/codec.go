// Package stego hides a password-encrypted file in the least-significant bits
// of a PNG or BMP image and extracts it again.
//
// The container is laid out in pixel slots as AuthFlag, Extension, Size,
// IvMeta, IvFile, Salt and Payload (see layout.go). The auth flag is an
// iterated hash of the password stored in clear; it is the only way to tell a
// carrier from an ordinary image, so a wrong password and a plain image both
// fail with stegerr.ErrUnauthorized.
package stego

import (
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/medium"
	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// KeySchedule hashes passwords, derives keys and supplies salts and IVs.
// *crypt.Hasher implements it.
type KeySchedule interface {
	HashPassword(password string) []byte
	DeriveKey(password string, salt []byte) []byte
	RandomBytes(n int) []byte
}

// SecretFileData is an extracted file.
type SecretFileData struct {
	Data []byte
	// Extension is lower-case without a leading dot.
	Extension string
}

// Options configures a Codec.
type Options struct {
	// Crypto tunes hashing and key derivation. Zero value means crypt.DefaultConfig().
	Crypto crypt.Config
	// Encryption selects the payload strategy. Empty means AES.
	Encryption crypt.Mode
	// StrictCapacity additionally rejects payloads that overrun the pixel grid.
	StrictCapacity bool
	// Logger receives debug traces. If nil, logging is discarded.
	Logger *logrus.Logger
}

// Codec runs hide and extract operations. It holds no per-call state and is
// safe for concurrent use.
type Codec struct {
	keys     KeySchedule
	strategy crypt.Strategy
	strict   bool
	log      *logrus.Logger
}

// NewCodec builds a codec from opts.
func NewCodec(opts Options) (*Codec, error) {
	cfg := opts.Crypto
	if cfg == (crypt.Config{}) {
		cfg = crypt.DefaultConfig()
	}
	hasher, err := crypt.NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	strategy, err := crypt.NewStrategy(opts.Encryption)
	if err != nil {
		return nil, err
	}
	return newCodec(hasher, strategy, opts.StrictCapacity, opts.Logger), nil
}

func newCodec(keys KeySchedule, strategy crypt.Strategy, strict bool, log *logrus.Logger) *Codec {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Codec{keys: keys, strategy: strategy, strict: strict, log: log}
}

// Hide embeds secret, tagged with secretExt, into the carrier image and
// returns the carrier re-encoded as outputExt ("png" or "bmp"). Every call
// draws a fresh salt and IVs, so identical inputs give different outputs.
func (c *Codec) Hide(carrier, secret []byte, secretExt, password, outputExt string) ([]byte, error) {
	// 1. Validate output before touching anything.
	outFmt, err := medium.ParseFormat(outputExt)
	if err != nil {
		return nil, fmt.Errorf("output must be either png or bmp: %w", err)
	}

	// 2. Load medium.
	m, err := medium.Load(carrier)
	if err != nil {
		return nil, err
	}

	// 3. Key material.
	salt := c.keys.RandomBytes(crypt.BlockSize)
	ivMeta := c.keys.RandomBytes(crypt.BlockSize)
	ivFile := c.keys.RandomBytes(crypt.BlockSize)
	key := c.keys.DeriveKey(password, salt)

	// 4. Encrypt fields.
	ext := NormalizeExtension(secretExt)
	encExt, err := c.strategy.EncryptString(ext, key, ivMeta)
	if err != nil {
		return nil, fmt.Errorf("encrypt extension: %w", err)
	}
	if len(encExt) != crypt.BlockSize {
		return nil, fmt.Errorf("%w: extension %q is %d bytes encoded, the field holds one %d-byte block",
			stegerr.ErrInvalidInput, ext, len(encExt), crypt.BlockSize)
	}
	encPayload, err := c.strategy.EncryptBytes(secret, key, ivFile)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}
	bitLen := int64(len(encPayload)) * 8
	encSize, err := c.strategy.EncryptInt64(bitLen, key, ivMeta)
	if err != nil {
		return nil, fmt.Errorf("encrypt size: %w", err)
	}
	if len(encSize) != crypt.BlockSize {
		return nil, fmt.Errorf("%w: size field is %d bytes", stegerr.ErrInvalidInput, len(encSize))
	}

	// 5. Capacity.
	payload := PayloadField(bitLen)
	if !m.CheckCapacity(len(encPayload)) {
		return nil, fmt.Errorf("%w: %d encrypted bytes exceed budget of %d, choose a bigger medium",
			stegerr.ErrCapacity, len(encPayload), m.EncodedLen()/8)
	}
	if c.strict && payload.End() > m.Pixels() {
		return nil, fmt.Errorf("%w: container needs %d pixels, medium has %d",
			stegerr.ErrCapacity, payload.End(), m.Pixels())
	}

	// 6. Write fields in layout order.
	writes := []struct {
		field Field
		data  []byte
	}{
		{AuthFlag, c.keys.HashPassword(password)},
		{Extension, encExt},
		{Size, encSize},
		{IvMeta, ivMeta},
		{IvFile, ivFile},
		{Salt, salt},
		{payload, encPayload},
	}
	for _, w := range writes {
		if err := m.SetBytes(w.data, w.field.Slots, w.field.Offset, w.field.Padding); err != nil {
			return nil, fmt.Errorf("write %s: %w", w.field.Name, err)
		}
		c.log.WithFields(logrus.Fields{
			"field":  w.field.Name,
			"offset": w.field.Offset,
			"slots":  w.field.Slots,
		}).Debug("field written")
	}

	out, err := m.Encode(string(outFmt))
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"payload_bytes": len(encPayload),
		"pixels":        payload.End(),
		"format":        outFmt,
	}).Debug("secret hidden")
	return out, nil
}

// Extract verifies password against the carrier's auth flag, then decrypts
// and returns the hidden file. The carrier is never modified.
func (c *Codec) Extract(carrier []byte, password string) (*SecretFileData, error) {
	m, err := medium.Load(carrier)
	if err != nil {
		return nil, err
	}

	flag, err := c.readField(m, AuthFlag)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(flag, c.keys.HashPassword(password)) != 1 {
		return nil, stegerr.ErrUnauthorized
	}

	ivMeta, err := c.readField(m, IvMeta)
	if err != nil {
		return nil, err
	}
	salt, err := c.readField(m, Salt)
	if err != nil {
		return nil, err
	}
	key := c.keys.DeriveKey(password, salt)

	encExt, err := c.readField(m, Extension)
	if err != nil {
		return nil, err
	}
	ext, err := c.strategy.DecryptString(encExt, key, ivMeta)
	if err != nil {
		return nil, fmt.Errorf("decrypt extension: %w", err)
	}

	encSize, err := c.readField(m, Size)
	if err != nil {
		return nil, err
	}
	bitLen, err := c.strategy.DecryptInt64(encSize, key, ivMeta)
	if err != nil {
		return nil, fmt.Errorf("decrypt size: %w", err)
	}
	if bitLen < 0 || bitLen%8 != 0 {
		return nil, fmt.Errorf("%w: invalid payload length %d bits", stegerr.ErrDecryption, bitLen)
	}

	ivFile, err := c.readField(m, IvFile)
	if err != nil {
		return nil, err
	}

	if bitLen/3 > int64(m.Pixels()) {
		return nil, fmt.Errorf("%w: payload of %d bits runs past %d pixels", stegerr.ErrOutOfRange, bitLen, m.Pixels())
	}
	encPayload, err := c.readField(m, PayloadField(bitLen))
	if err != nil {
		return nil, err
	}
	data, err := c.strategy.DecryptBytes(encPayload, key, ivFile)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"payload_bytes": len(encPayload),
		"extension":     ext,
	}).Debug("secret extracted")
	return &SecretFileData{Data: data, Extension: NormalizeExtension(ext)}, nil
}

func (c *Codec) readField(m *medium.Medium, f Field) ([]byte, error) {
	b, err := m.GetBytes(f.Slots, f.Offset, f.Padding)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	c.log.WithFields(logrus.Fields{
		"field":  f.Name,
		"offset": f.Offset,
		"slots":  f.Slots,
	}).Debug("field read")
	return b, nil
}
