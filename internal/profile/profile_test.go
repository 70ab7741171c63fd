package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/conversation"
)

func TestAssociate_WeightLoss(t *testing.T) {
	p := &conversation.UserProfile{Attributes: map[string]conversation.Attribute{
		"weight": conversation.Scalar(82.5),
	}}

	out := Associate(p, "Lose 10 lbs in 2 months")

	assert.Equal(t, []string{"activityLevel", "height", "targetWeight", "weight"}, out.Keys())
	assert.Equal(t, conversation.Record(82.5, "Lose 10 lbs in 2 months"), out.Attributes["weight"])
	assert.Equal(t, conversation.Record(Unknown, "Lose 10 lbs in 2 months"), out.Attributes["height"])

	// input untouched
	assert.False(t, p.Attributes["weight"].IsRecord())
	assert.Len(t, p.Attributes, 1)
}

func TestAssociate_Rules(t *testing.T) {
	tests := []struct {
		objective string
		keys      []string
	}{
		{"Eat gluten free", []string{"allergies", "dietaryRestrictions"}},
		{"Become vegan", []string{"allergies", "dietaryRestrictions"}},
		{"Keep my blood sugar stable", []string{"bloodSugar"}},
		{"Improve heart health", []string{"bloodPressure", "cholesterol"}},
		{"Lose weight and lower cholesterol", []string{"activityLevel", "bloodPressure", "cholesterol", "height", "targetWeight", "weight"}},
		{"Sleep better", []string{}},
		// "lose" alone is not a weight objective
		{"Lose stress", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.objective, func(t *testing.T) {
			out := Associate(nil, tt.objective)
			keys := out.Keys()
			if keys == nil {
				keys = []string{}
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestAssociate_ListPlaceholders(t *testing.T) {
	out := Associate(nil, "Avoid my peanut allergy")

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"allergies": {"value": [], "objectiveIds": ["Avoid my peanut allergy"]},
		"dietaryRestrictions": {"value": [], "objectiveIds": ["Avoid my peanut allergy"]}
	}`, string(data))
}

func TestAssociate_Idempotent(t *testing.T) {
	once := Associate(nil, "Manage diabetes")
	twice := Associate(once, "Manage diabetes")

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"Manage diabetes"}, twice.Attributes["bloodSugar"].ObjectiveIDs)
}

func TestAssociate_SecondObjective(t *testing.T) {
	out := Associate(Associate(nil, "Manage diabetes"), "Improve heart health")

	assert.Equal(t, []string{"Manage diabetes", "Improve heart health"}, out.Attributes["bloodSugar"].ObjectiveIDs)
	assert.Equal(t, []string{"Improve heart health"}, out.Attributes["cholesterol"].ObjectiveIDs)
}
