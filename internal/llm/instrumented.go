package llm

import (
	"context"
	"strings"
	"time"

	"github.com/healthassist/healthassist/internal/metrics"
)

// Instrumented decorates a provider with Prometheus metrics and normalises
// failures: every error, including a blank completion, comes back as a
// *ProviderError naming the provider.
type Instrumented struct {
	chat   Client
	vision VisionClient
}

// Instrument wraps a chat client.
func Instrument(c Client) *Instrumented {
	return &Instrumented{chat: c}
}

// InstrumentVision wraps a vision client.
func InstrumentVision(v VisionClient) *Instrumented {
	return &Instrumented{vision: v}
}

func (i *Instrumented) Name() string {
	if i.chat != nil {
		return i.chat.Name()
	}
	return i.vision.Name()
}

func (i *Instrumented) Complete(ctx context.Context, req Request) (Response, error) {
	if i.chat == nil {
		return Response{}, ErrNotConfigured
	}
	start := time.Now()
	resp, err := i.chat.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = ErrEmptyResponse
	}
	err = i.observe(i.chat.Name(), start, err)
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (i *Instrumented) Describe(ctx context.Context, req VisionRequest) (string, error) {
	if i.vision == nil {
		return "", ErrNotConfigured
	}
	start := time.Now()
	text, err := i.vision.Describe(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	err = i.observe(i.vision.Name(), start, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (i *Instrumented) observe(provider string, start time.Time, err error) error {
	metrics.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
		if IsProviderError(err) {
			return err
		}
		return &ProviderError{Provider: provider, Err: err}
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, "success").Inc()
	return nil
}
