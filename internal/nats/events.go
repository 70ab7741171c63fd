package nats

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout bounds a single batch fetch from a durable consumer.
const FetchTimeout = 2 * time.Second

// StreamEvents holds every event the service emits.
const StreamEvents = "HEALTHASSIST_EVENTS"

const (
	subjectEventsWildcard = "healthassist.events.>"
	SubjectTurnEvent      = "healthassist.events.turn"
	SubjectScanEvent      = "healthassist.events.scan"
)

// TurnEvent is published after every conversational turn, successful or not.
type TurnEvent struct {
	ID                uuid.UUID `json:"id"`
	RequestID         string    `json:"request_id"`
	Endpoint          string    `json:"endpoint"`
	AgentType         string    `json:"agent_type"`
	Source            string    `json:"source"`
	Status            string    `json:"status"`
	Provider          string    `json:"provider,omitempty"`
	Model             string    `json:"model,omitempty"`
	TokensUsed        int64     `json:"tokens_used"`
	ConversationSize  int       `json:"conversation_size"`
	DetectedObjective string    `json:"detected_objective,omitempty"`
	Error             string    `json:"error,omitempty"`
	DurationMS        int64     `json:"duration_ms"`
	Timestamp         time.Time `json:"timestamp"`
}

// ScanEvent is published after an image scan or ingredient analysis.
type ScanEvent struct {
	ID         uuid.UUID `json:"id"`
	RequestID  string    `json:"request_id"`
	Endpoint   string    `json:"endpoint"`
	Provider   string    `json:"provider,omitempty"`
	Status     string    `json:"status"`
	Verdict    string    `json:"verdict,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
