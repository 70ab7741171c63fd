package foodscan

import (
	"strings"

	"github.com/healthassist/healthassist/internal/conversation"
)

// DefaultFoodItem names the food when no known item is mentioned.
const DefaultFoodItem = "food item"

// negativeTerms mark an assessment as advising against the food.
var negativeTerms = []string{
	"not recommended",
	"avoid",
	"limit",
	"high in calories",
	"unhealthy",
	"processed",
	"not allowed",
	"shouldn't eat",
}

// knownFoods are matched in order; the first hit names the item.
var knownFoods = []string{
	"apple", "banana", "pizza", "burger", "salad",
	"chicken", "fish", "meat", "vegetables", "fruit",
}

// Judge reads a verdict out of a free-text assessment. Food is allowed unless
// the assessment uses a negative phrase. The item is looked up in the user's
// question first, then in the assessment.
func Judge(assessment, question string) conversation.FoodVerdict {
	loweredAssessment := strings.ToLower(assessment)
	loweredQuestion := strings.ToLower(question)

	verdict := conversation.FoodVerdict{
		IsAllowed: true,
		Reason:    assessment,
		FoodItem:  DefaultFoodItem,
	}
	for _, term := range negativeTerms {
		if strings.Contains(loweredAssessment, term) {
			verdict.IsAllowed = false
			break
		}
	}
	for _, food := range knownFoods {
		if strings.Contains(loweredQuestion, food) || strings.Contains(loweredAssessment, food) {
			verdict.FoodItem = food
			break
		}
	}
	return verdict
}
