package agents

import (
	"context"

	"github.com/healthassist/healthassist/internal/conversation"
	"github.com/healthassist/healthassist/internal/llm"
)

// fakeLLM returns replies in order and remembers every request.
type fakeLLM struct {
	replies []string
	err     error
	reqs    []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return llm.Response{Content: reply, TokensUsed: 42}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func user(text string) conversation.Message {
	return conversation.NewMessage(conversation.RoleUser, text)
}

func assistant(text string) conversation.Message {
	return conversation.NewMessage(conversation.RoleAssistant, text)
}

func system(text string) conversation.Message {
	return conversation.NewMessage(conversation.RoleSystem, text)
}
