package foodscan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/healthassist/healthassist/internal/llm"
)

const (
	ingredientsPrompt    = "Extract and list all ingredients from this image. Format them as a clean, comma-separated list."
	ingredientsMaxTokens = 300
	analysisMaxTokens    = 800
	analysisTemperature  = 0.3
)

const analysisSystemPrompt = `You are a nutrition expert API that MUST return responses in valid JSON format.
CRITICAL: Your entire response must be a single JSON object with no additional text or explanation.
You must follow the exact structure below, replacing the example values with real analysis:

{
    "identified_ingredients": ["ingredient1", "ingredient2"],
    "health_benefits": ["benefit1", "benefit2"],
    "health_risks": ["risk1", "risk2"],
    "diet_compatibility": {
        "status": "positive",
        "details": ["detail1", "detail2"]
    },
    "health_impact": {
        "status": "positive",
        "details": ["detail1", "detail2"]
    }
}

For status fields, only use:
- "positive" for beneficial/compatible ingredients
- "negative" for concerning/incompatible ingredients`

// AnalysisError means the model's answer was not the expected JSON. Message
// is safe to show to callers.
type AnalysisError struct {
	Message string
}

func (e *AnalysisError) Error() string {
	return e.Message
}

var (
	ErrInvalidAnalysis = &AnalysisError{Message: "Invalid analysis format"}
	errAnalysisShape   = &AnalysisError{Message: "Invalid format for diet_compatibility or health_impact"}
)

// Preferences narrow an ingredient analysis to one user.
type Preferences struct {
	DietType         string   `json:"dietType"`
	Allergies        []string `json:"allergies"`
	HealthConditions []string `json:"healthConditions"`
}

type Assessment struct {
	Status  string   `json:"status"`
	Details []string `json:"details"`
}

// Analysis is the structured verdict on the ingredients in a photo.
type Analysis struct {
	IdentifiedIngredients []string    `json:"identified_ingredients"`
	HealthBenefits        []string    `json:"health_benefits"`
	HealthRisks           []string    `json:"health_risks"`
	DietCompatibility     *Assessment `json:"diet_compatibility"`
	HealthImpact          *Assessment `json:"health_impact"`
}

// Analyzer reads ingredients with a vision model, then asks a chat model
// for a JSON analysis against the user's preferences.
type Analyzer struct {
	vision      llm.VisionClient
	visionModel string
	chat        llm.Client
	chatModel   string
}

// NewAnalyzer creates an analyzer. Either client may be nil.
func NewAnalyzer(vision llm.VisionClient, visionModel string, chat llm.Client, chatModel string) *Analyzer {
	return &Analyzer{vision: vision, visionModel: visionModel, chat: chat, chatModel: chatModel}
}

func (a *Analyzer) Analyze(ctx context.Context, img Image, prefs Preferences) (*Analysis, error) {
	if a.vision == nil || a.chat == nil {
		return nil, llm.ErrNotConfigured
	}

	ingredients, err := a.vision.Describe(ctx, llm.VisionRequest{
		Model:     a.visionModel,
		Prompt:    ingredientsPrompt,
		Image:     img.Data,
		MIMEType:  img.MIMEType,
		MaxTokens: ingredientsMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting ingredients: %w", err)
	}
	slog.Info("ingredients extracted",
		"diet_type", prefs.DietType,
		"allergies_count", len(prefs.Allergies),
		"conditions_count", len(prefs.HealthConditions),
	)

	resp, err := a.chat.Complete(ctx, llm.Request{
		Model: a.chatModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: analysisSystemPrompt},
			{Role: llm.RoleUser, Content: analysisQuestion(ingredients, prefs)},
		},
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("analysing ingredients: %w", err)
	}

	return ParseAnalysis(resp.Content)
}

func analysisQuestion(ingredients string, prefs Preferences) string {
	dietType := prefs.DietType
	if dietType == "" {
		dietType = "none"
	}
	return fmt.Sprintf(`Analyze these ingredients considering the following preferences:
- Diet Type: %s
- Allergies: %s
- Health Conditions: %s

Ingredients to analyze: %s

Remember: Return ONLY the JSON object, no other text.`,
		dietType, joinOrNone(prefs.Allergies), joinOrNone(prefs.HealthConditions), ingredients)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

var requiredAnalysisFields = []string{
	"identified_ingredients", "health_benefits", "health_risks", "diet_compatibility", "health_impact",
}

// ParseAnalysis pulls the JSON object out of a model answer that may carry
// extra prose around it, and checks its shape.
func ParseAnalysis(text string) (*Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, ErrInvalidAnalysis
	}
	body := []byte(text[start : end+1])

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, ErrInvalidAnalysis
	}
	var missing []string
	for _, f := range requiredAnalysisFields {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &AnalysisError{Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}

	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, errAnalysisShape
	}
	if analysis.DietCompatibility == nil || analysis.HealthImpact == nil {
		return nil, errAnalysisShape
	}
	statuses := []struct {
		field string
		a     *Assessment
	}{
		{"diet_compatibility", analysis.DietCompatibility},
		{"health_impact", analysis.HealthImpact},
	}
	for _, s := range statuses {
		if s.a.Status != "positive" && s.a.Status != "negative" {
			return nil, &AnalysisError{Message: "Invalid " + s.field + " status"}
		}
	}
	return &analysis, nil
}
