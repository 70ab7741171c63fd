// Package audit persists turn and scan events and serves them back.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// TurnRecord matches the agent_turns table schema.
type TurnRecord struct {
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
	CreatedAt         time.Time `json:"created_at"`
}

// ScanRecord matches the food_scans table schema.
type ScanRecord struct {
	ID         uuid.UUID `json:"id"`
	RequestID  string    `json:"request_id"`
	Endpoint   string    `json:"endpoint"`
	Provider   string    `json:"provider,omitempty"`
	Status     string    `json:"status"`
	Verdict    string    `json:"verdict,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListParams holds pagination and filtering parameters for audit queries.
// AgentType only applies to turns.
type ListParams struct {
	AgentType string
	Status    string
	Endpoint  string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func DefaultListParams() ListParams {
	return ListParams{
		Page:     1,
		PageSize: defaultPageSize,
	}
}

func (p *ListParams) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > maxPageSize {
		p.PageSize = defaultPageSize
	}
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.PageSize
}
