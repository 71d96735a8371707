// Package stegerr declares the error kinds shared by the codec packages.
//
// Every failure returned by crypt, medium and stego wraps exactly one of the
// sentinels below, so callers route on errors.Is or KindOf regardless of which
// layer produced the error.
package stegerr

import "errors"

var (
	// ErrFormat reports an unsupported image format or output extension.
	ErrFormat = errors.New("unsupported format")
	// ErrCapacity reports a secret that does not fit the medium.
	ErrCapacity = errors.New("medium too small")
	// ErrUnauthorized reports an authentication flag mismatch on extract.
	ErrUnauthorized = errors.New("password incorrect or no hidden data")
	// ErrInvalidInput reports empty or malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecryption reports ciphertext the strategy could not recover.
	ErrDecryption = errors.New("decryption failed")
	// ErrOutOfRange reports a pixel index beyond the grid.
	ErrOutOfRange = errors.New("pixel index out of range")
)

var kinds = []error{
	ErrFormat,
	ErrCapacity,
	ErrUnauthorized,
	ErrInvalidInput,
	ErrDecryption,
	ErrOutOfRange,
}

// KindOf returns the sentinel wrapped by err, or nil if err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
