package main

import (
	"errors"

	"github.com/xob0t/PixelVault/pkg/stegerr"
)

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var hint string
	switch {
	case errors.Is(err, stegerr.ErrFormat):
		hint = "only PNG and BMP images can carry hidden files"
	case errors.Is(err, stegerr.ErrCapacity):
		hint = "the secret is too large for this image, choose a bigger medium"
	case errors.Is(err, stegerr.ErrUnauthorized):
		return "wrong password, or the image holds no hidden file"
	case errors.Is(err, stegerr.ErrDecryption):
		hint = "the hidden data is damaged or was written with different settings"
	case errors.Is(err, stegerr.ErrOutOfRange):
		hint = "the image is too small or truncated"
	default:
		return err.Error()
	}
	return err.Error() + " (" + hint + ")"
}
