package foodscan

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/llm"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngBase64(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(pngBytes(t))
}

type fakeVision struct {
	text string
	err  error
	reqs []llm.VisionRequest
}

func (f *fakeVision) Describe(_ context.Context, req llm.VisionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

func (f *fakeVision) Name() string { return "fake-vision" }

type fakeChat struct {
	content string
	err     error
	reqs    []llm.Request
}

func (f *fakeChat) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.content}, nil
}

func (f *fakeChat) Name() string { return "fake-chat" }
