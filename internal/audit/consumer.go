package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/healthassist/healthassist/internal/metrics"
	inats "github.com/healthassist/healthassist/internal/nats"
)

const consumerName = "audit-persister"

// Sink stores decoded events.
type Sink interface {
	InsertTurn(ctx context.Context, t *TurnRecord) error
	InsertScan(ctx context.Context, s *ScanRecord) error
}

// Consumer listens on the turn and scan subjects and persists every event.
type Consumer struct {
	sink        Sink
	consumerMgr *inats.ConsumerManager
}

func NewConsumer(sink Sink, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		sink:        sink,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, consumerName,
		inats.SubjectTurnEvent, inats.SubjectScanEvent)
	if err != nil {
		return err
	}

	slog.Info("audit consumer started", "consumer", consumerName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("audit consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	if err := c.persist(ctx, msg.Subject(), msg.Data()); err != nil {
		slog.Error("audit consumer: persisting event", "error", err, "subject", msg.Subject())
		metrics.AuditEventsPersisted.WithLabelValues(msg.Subject(), "error").Inc()
		_ = msg.Nak()
		return
	}
	metrics.AuditEventsPersisted.WithLabelValues(msg.Subject(), "ok").Inc()
	_ = msg.Ack()
}

func (c *Consumer) persist(ctx context.Context, subject string, data []byte) error {
	switch subject {
	case inats.SubjectTurnEvent:
		var event inats.TurnEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("unmarshaling turn event: %w", err)
		}
		return c.sink.InsertTurn(ctx, turnFromEvent(event))
	case inats.SubjectScanEvent:
		var event inats.ScanEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("unmarshaling scan event: %w", err)
		}
		return c.sink.InsertScan(ctx, scanFromEvent(event))
	}
	return fmt.Errorf("unexpected subject %q", subject)
}

func turnFromEvent(e inats.TurnEvent) *TurnRecord {
	return &TurnRecord{
		ID:                e.ID,
		RequestID:         e.RequestID,
		Endpoint:          e.Endpoint,
		AgentType:         e.AgentType,
		Source:            e.Source,
		Status:            e.Status,
		Provider:          e.Provider,
		Model:             e.Model,
		TokensUsed:        e.TokensUsed,
		ConversationSize:  e.ConversationSize,
		DetectedObjective: e.DetectedObjective,
		Error:             e.Error,
		DurationMS:        e.DurationMS,
		CreatedAt:         e.Timestamp,
	}
}

func scanFromEvent(e inats.ScanEvent) *ScanRecord {
	return &ScanRecord{
		ID:         e.ID,
		RequestID:  e.RequestID,
		Endpoint:   e.Endpoint,
		Provider:   e.Provider,
		Status:     e.Status,
		Verdict:    e.Verdict,
		Error:      e.Error,
		DurationMS: e.DurationMS,
		CreatedAt:  e.Timestamp,
	}
}
