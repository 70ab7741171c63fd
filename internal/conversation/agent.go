package conversation

import "fmt"

// AgentType identifies which specialised agent handles a turn.
type AgentType string

const (
	DefineObjective      AgentType = "defineObjective"
	DefineHealthProfile  AgentType = "defineHealthProfile"
	CollectHealthMetrics AgentType = "collectHealthMetrics"
	ScanFood             AgentType = "scanFood"
)

// DefaultAgent handles a turn when no better choice can be made.
const DefaultAgent = DefineObjective

// AgentTypes lists every agent in declaration order.
var AgentTypes = []AgentType{DefineObjective, DefineHealthProfile, CollectHealthMetrics, ScanFood}

// Valid reports whether a is one of the known agents.
func (a AgentType) Valid() bool {
	switch a {
	case DefineObjective, DefineHealthProfile, CollectHealthMetrics, ScanFood:
		return true
	}
	return false
}

func (a AgentType) String() string {
	return string(a)
}

// ParseAgentType matches s exactly against the known agent literals.
func ParseAgentType(s string) (AgentType, error) {
	a := AgentType(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown agent type: %s", s)
	}
	return a, nil
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FoodVerdict is the outcome of judging a food item against the user's goals.
type FoodVerdict struct {
	IsAllowed bool   `json:"isAllowed"`
	Reason    string `json:"reason"`
	FoodItem  string `json:"foodItem"`
}

// Response is the full state returned for a turn. The caller persists
// UpdatedConversation and UpdatedUserProfile between requests.
type Response struct {
	Status              Status       `json:"status"`
	Message             string       `json:"message,omitempty"`
	AgentType           AgentType    `json:"agentType,omitempty"`
	UpdatedConversation Conversation `json:"updatedConversation"`
	UpdatedUserProfile  *UserProfile `json:"updatedUserProfile,omitempty"`
	Objective           *string      `json:"objective,omitempty"`
	DetectedObjective   *string      `json:"detectedObjective,omitempty"`
	Result              *FoodVerdict `json:"result,omitempty"`
}
