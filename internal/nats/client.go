package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/healthassist/healthassist/internal/config"
)

const clientName = "healthassist-api"

// Client owns the NATS connection and the JetStream handle used by the
// event publisher and the audit consumer.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewClient connects and declares the event stream.
func NewClient(ctx context.Context, cfg config.NATSConfig) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	c := &Client{conn: nc, js: js}
	if err := c.declareEventStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	slog.Info("connected to NATS", "url", cfg.URL, "stream", StreamEvents)
	return c, nil
}

// declareEventStream keeps a week of turn and scan events.
func (c *Client) declareEventStream(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamEvents,
		Subjects:  []string{subjectEventsWildcard},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("creating stream %s: %w", StreamEvents, err)
	}
	return nil
}

func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Healthy reports whether the connection is currently up.
func (c *Client) Healthy() bool {
	return c.conn.IsConnected()
}

// Close drains and closes the NATS connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		slog.Warn("draining NATS connection", "error", err)
	}
}
