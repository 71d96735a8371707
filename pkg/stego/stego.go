package stego

import (
	"sync"

	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/medium"
)

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
	defaultErr   error
)

func getDefault() (*Codec, error) {
	defaultOnce.Do(func() {
		defaultCodec, defaultErr = NewCodec(Options{Encryption: crypt.ModeAES})
	})
	return defaultCodec, defaultErr
}

// Hide uses an AES codec with default iteration counts.
func Hide(carrier, secret []byte, secretExt, password, outputExt string) ([]byte, error) {
	c, err := getDefault()
	if err != nil {
		return nil, err
	}
	return c.Hide(carrier, secret, secretExt, password, outputExt)
}

// Extract uses an AES codec with default iteration counts.
func Extract(carrier []byte, password string) (*SecretFileData, error) {
	c, err := getDefault()
	if err != nil {
		return nil, err
	}
	return c.Extract(carrier, password)
}

// MediumInfo describes a carrier image without reading any hidden data.
type MediumInfo struct {
	Format     medium.Format `json:"format"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	EncodedLen int           `json:"encodedLen"`
	// Budget is the largest encrypted payload, in bytes, the capacity check accepts.
	Budget int `json:"budget"`
	// PixelBytes is the payload the grid can physically hold after the header.
	PixelBytes int `json:"pixelBytes"`
}

// Inspect loads carrier and reports its dimensions and capacity.
func Inspect(carrier []byte) (*MediumInfo, error) {
	m, err := medium.Load(carrier)
	if err != nil {
		return nil, err
	}
	free := max(m.Pixels()-HeaderSlots, 0)
	return &MediumInfo{
		Format:     m.Format(),
		Width:      m.Width(),
		Height:     m.Height(),
		EncodedLen: m.EncodedLen(),
		Budget:     m.EncodedLen() / 8,
		PixelBytes: free * 3 / 8,
	}, nil
}
