package foodscan

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/healthassist/healthassist/internal/api"
)

const (
	// maxJSONBody leaves room for a base64-encoded MaxImageBytes image.
	maxJSONBody      = MaxImageBytes/3*4 + 1<<20
	maxMultipartBody = MaxImageBytes + 1<<20

	imageFileField = "imageFile"
	payloadField   = "payload"
)

// DecodeUpload fills v from the request and returns an uploaded image file
// when there is one. A JSON body is decoded into v directly and any base64
// image travels inside it. A multipart body carries v as an optional
// "payload" JSON field next to an "imageFile" part.
func DecodeUpload(w http.ResponseWriter, r *http.Request, v any) (*Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, api.DecodeJSON(w, r, maxJSONBody, v)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, api.ErrPayloadTooLarge
		}
		return nil, api.NewBadRequestError("invalid multipart form")
	}

	if payload := r.FormValue(payloadField); payload != "" {
		if err := json.Unmarshal([]byte(payload), v); err != nil {
			return nil, api.ErrInvalidJSON
		}
	}

	file, _, err := r.FormFile(imageFileField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, api.NewBadRequestError("invalid image upload")
	}
	defer file.Close()

	img, err := Read(file)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// ImageError maps an image decoding failure to an API error.
func ImageError(err error) error {
	switch {
	case errors.Is(err, ErrNoImage):
		return api.NewBadRequestError("Image data is required")
	case errors.Is(err, ErrImageTooLarge):
		return api.ErrPayloadTooLarge
	case errors.Is(err, ErrInvalidImage):
		return api.NewBadRequestError("Invalid image data")
	}
	return err
}
