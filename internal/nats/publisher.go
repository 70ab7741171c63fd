package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
type Publisher struct {
	js jetstream.JetStream
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishTurnEvent publishes the outcome of a conversational turn.
func (p *Publisher) PublishTurnEvent(ctx context.Context, event TurnEvent) error {
	return p.publish(ctx, SubjectTurnEvent, event)
}

// PublishScanEvent publishes the outcome of a food scan.
func (p *Publisher) PublishScanEvent(ctx context.Context, event ScanEvent) error {
	return p.publish(ctx, SubjectScanEvent, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
