package foodscan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
)

func TestRecognizer_Recognize(t *testing.T) {
	vision := &fakeVision{text: "Pizza\nPizza is high in calories and processed, so limit it."}
	r := NewRecognizer(vision, "vision-model")

	profile := &conversation.UserProfile{Attributes: map[string]conversation.Attribute{
		"weight": conversation.Scalar(90),
	}}
	img := Image{Data: pngBytes(t), MIMEType: "image/png"}

	rec, err := r.Recognize(context.Background(), img, profile, "Lose 10 lbs")
	require.NoError(t, err)

	assert.Equal(t, "Pizza", rec.FoodItem)
	assert.Equal(t, "Image recognized as: Pizza", rec.Description)
	assert.False(t, rec.IsAllowed)
	assert.Equal(t, "Pizza is high in calories and processed, so limit it.", rec.Reason)

	require.Len(t, vision.reqs, 1)
	req := vision.reqs[0]
	assert.Equal(t, "vision-model", req.Model)
	assert.Equal(t, "image/png", req.MIMEType)
	assert.Contains(t, req.Prompt, "The user's health objective is: Lose 10 lbs")
	assert.Contains(t, req.Prompt, "- weight: 90")
}

func TestRecognizer_SingleLineAnswer(t *testing.T) {
	r := NewRecognizer(&fakeVision{text: "**Apple.**"}, "")

	rec, err := r.Recognize(context.Background(), Image{}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Apple", rec.FoodItem)
	assert.True(t, rec.IsAllowed)
	assert.Equal(t, "**Apple.**", rec.Reason)
}

func TestRecognizer_NotConfigured(t *testing.T) {
	r := NewRecognizer(nil, "")
	assert.False(t, r.Available())

	_, err := r.Recognize(context.Background(), Image{}, nil, "")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestRecognizer_ProviderError(t *testing.T) {
	boom := errors.New("timeout")
	r := NewRecognizer(&fakeVision{err: boom}, "")

	_, err := r.Recognize(context.Background(), Image{}, nil, "")
	assert.ErrorIs(t, err, boom)
}

func TestSplitRecognition(t *testing.T) {
	item, assessment := splitRecognition("Food: Banana\n\nA good source of potassium.")
	assert.Equal(t, "Banana", item)
	assert.Equal(t, "A good source of potassium.", assessment)

	item, _ = splitRecognition("   ")
	assert.Equal(t, DefaultFoodItem, item)
}
