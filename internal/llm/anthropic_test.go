package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-haiku-latest", body.Model)
		assert.Equal(t, 500, body.MaxTokens)
		require.Len(t, body.System, 1)
		assert.Equal(t, "be helpful", body.System[0].Text)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "assistant", body.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-3-5-haiku-latest",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": "Hello "},
				{"type": "text", "text": "there"},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	client := NewAnthropicClient(ProviderConfig{APIKey: "test-key", Model: "claude-3-5-haiku-latest", BaseURL: srv.URL})
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "be helpful"},
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, "anthropic", client.Name())
}

func TestAnthropicClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"nope"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic messages")
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	require.Len(t, turns, 1)
	assert.Equal(t, "u", turns[0].Content)
}
