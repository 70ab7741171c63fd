package foodscan

import (
	"context"
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
)

const recognitionMaxTokens = 300

const recognitionPrompt = `Identify the main food item in this image.
On the first line write only the name of the food, nothing else.
On the following lines, say whether it is a healthy choice and explain briefly.
If it should be avoided or limited, say so explicitly.`

// Recognition is what a vision model saw in a photo.
type Recognition struct {
	FoodItem    string `json:"foodItem"`
	Description string `json:"description"`
	IsAllowed   bool   `json:"isAllowed"`
	Reason      string `json:"reason"`
}

// Recognizer identifies food in an image.
type Recognizer struct {
	vision llm.VisionClient
	model  string
}

// NewRecognizer creates a recognizer. vision may be nil, in which case every
// call returns llm.ErrNotConfigured.
func NewRecognizer(vision llm.VisionClient, model string) *Recognizer {
	return &Recognizer{vision: vision, model: model}
}

// Available reports whether a vision model is configured.
func (r *Recognizer) Available() bool {
	return r.vision != nil
}

// Recognize asks the vision model for the food and an assessment, optionally
// in light of the user's objective, and judges it with the same rules used
// for conversational food scans.
func (r *Recognizer) Recognize(ctx context.Context, img Image, profile *conversation.UserProfile, objective string) (Recognition, error) {
	if r.vision == nil {
		return Recognition{}, llm.ErrNotConfigured
	}

	text, err := r.vision.Describe(ctx, llm.VisionRequest{
		Model:     r.model,
		Prompt:    recognitionInstruction(profile, objective),
		Image:     img.Data,
		MIMEType:  img.MIMEType,
		MaxTokens: recognitionMaxTokens,
	})
	if err != nil {
		return Recognition{}, err
	}

	item, assessment := splitRecognition(text)
	verdict := Judge(assessment, item)
	return Recognition{
		FoodItem:    item,
		Description: "Image recognized as: " + item,
		IsAllowed:   verdict.IsAllowed,
		Reason:      assessment,
	}, nil
}

func recognitionInstruction(profile *conversation.UserProfile, objective string) string {
	var sb strings.Builder
	sb.WriteString(recognitionPrompt)
	if objective != "" {
		sb.WriteString("\nThe user's health objective is: ")
		sb.WriteString(objective)
	}
	if !profile.IsEmpty() {
		sb.WriteString("\nUser profile:")
		for _, key := range profile.Keys() {
			sb.WriteString("\n- ")
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(profile.Describe(key))
		}
	}
	return sb.String()
}

// splitRecognition takes the first non-empty line as the food name and the
// rest as the assessment. A one-line answer is used for both.
func splitRecognition(text string) (item, assessment string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")

	item = strings.TrimSpace(first)
	for _, prefix := range []string{"Food:", "food:", "Food item:"} {
		item = strings.TrimSpace(strings.TrimPrefix(item, prefix))
	}
	item = strings.Trim(item, "*.# ")
	if item == "" {
		item = DefaultFoodItem
	}

	assessment = strings.TrimSpace(rest)
	if assessment == "" {
		assessment = text
	}
	return item, assessment
}
