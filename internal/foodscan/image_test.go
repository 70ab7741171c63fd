package foodscan

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64(t *testing.T) {
	raw := pngBase64(t)

	tests := []struct {
		name  string
		input string
	}{
		{"plain", raw},
		{"data uri", "data:image/png;base64," + raw},
		{"unpadded", strings.TrimRight(raw, "=")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBase64(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "image/png", img.MIMEType)
			assert.Equal(t, pngBytes(t), img.Data)
		})
	}
}

func TestDecodeBase64_Errors(t *testing.T) {
	_, err := DecodeBase64("  ")
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = DecodeBase64("!!!not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeBase64(base64.StdEncoding.EncodeToString([]byte("just some text")))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeBase64("data:image/png;base64")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestRead(t *testing.T) {
	img, err := Read(bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestRead_TooLarge(t *testing.T) {
	data := append(pngBytes(t), make([]byte, MaxImageBytes)...)
	_, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}
