// Package foodscan recognises food in photos and judges it against the
// user's health goals.
package foodscan

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
)

// MaxImageBytes caps a decoded image.
const MaxImageBytes = 10 << 20

var (
	ErrNoImage       = errors.New("image data is required")
	ErrInvalidImage  = errors.New("invalid image data")
	ErrImageTooLarge = errors.New("image exceeds 10 MiB")
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Image is a validated upload ready for a vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// DecodeBase64 accepts raw base64 or a data URI such as
// "data:image/png;base64,....".
func DecodeBase64(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrNoImage
	}
	if strings.HasPrefix(s, "data:") {
		_, payload, found := strings.Cut(s, ",")
		if !found {
			return Image{}, ErrInvalidImage
		}
		s = payload
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageBytes+3 {
		return Image{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	return validate(data)
}

// Read consumes an uploaded file.
func Read(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrNoImage
	}
	return validate(data)
}

// validate sniffs the content type and makes sure the header decodes.
func validate(data []byte) (Image, error) {
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}
	mimeType := http.DetectContentType(data)
	if !supportedTypes[mimeType] {
		return Image{}, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, mimeType)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
