package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// ConsumerManager creates durable pull consumers on the event stream.
type ConsumerManager struct {
	js jetstream.JetStream
}

func NewConsumerManager(js jetstream.JetStream) *ConsumerManager {
	return &ConsumerManager{js: js}
}

// EnsureConsumer creates or updates a durable consumer filtered to one or
// more subjects of stream.
func (cm *ConsumerManager) EnsureConsumer(ctx context.Context, stream, name string, subjects ...string) (jetstream.Consumer, error) {
	cfg := jetstream.ConsumerConfig{
		Durable:   name,
		AckPolicy: jetstream.AckExplicitPolicy,
	}
	if len(subjects) == 1 {
		cfg.FilterSubject = subjects[0]
	} else {
		cfg.FilterSubjects = subjects
	}

	consumer, err := cm.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring consumer %s on %s: %w", name, stream, err)
	}
	return consumer, nil
}
