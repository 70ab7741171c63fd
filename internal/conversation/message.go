package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// InteractionPlaceholder replaces message content that is not plain text
// (for example a serialized UI event) before it reaches a model.
const InteractionPlaceholder = "User interaction received"

// Content is a message body. Clients normally send a string, but the frontend
// occasionally posts an arbitrary JSON object; that payload is kept verbatim so
// it round-trips back to the caller unchanged.
type Content struct {
	text string
	raw  json.RawMessage
}

// Text returns content holding s.
func Text(s string) Content {
	return Content{text: s}
}

// IsText reports whether the content is a plain string.
func (c Content) IsText() bool {
	return c.raw == nil
}

// String returns the text, or InteractionPlaceholder for non-text payloads.
func (c Content) String() string {
	if c.raw != nil {
		return InteractionPlaceholder
	}
	return c.text
}

// Raw returns the original JSON payload of a non-text content, or nil.
func (c Content) Raw() json.RawMessage {
	return c.raw
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.raw != nil {
		return c.raw, nil
	}
	return json.Marshal(c.text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding message content: %w", err)
		}
		*c = Content{text: s}
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}
	*c = Content{raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}

type Message struct {
	Role    Role    `json:"role" validate:"required,oneof=system user assistant"`
	Content Content `json:"content"`
}

// NewMessage builds a text message.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Content: Text(text)}
}

// Conversation is an ordered turn history. Order is significant and is
// preserved by every operation in this module.
type Conversation []Message

// Clone returns a copy that can be appended to or edited without touching c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Last returns the final message.
func (c Conversation) Last() (Message, bool) {
	if len(c) == 0 {
		return Message{}, false
	}
	return c[len(c)-1], true
}

// LastUser returns the most recent message with the user role.
func (c Conversation) LastUser() (Message, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i], true
		}
	}
	return Message{}, false
}

// Tail returns at most the last n messages.
func (c Conversation) Tail(n int) Conversation {
	if n <= 0 {
		return Conversation{}
	}
	if len(c) <= n {
		return c
	}
	return c[len(c)-n:]
}

// Plain returns a copy in which every non-text content is replaced by
// InteractionPlaceholder.
func (c Conversation) Plain() Conversation {
	out := make(Conversation, len(c))
	for i, m := range c {
		out[i] = NewMessage(m.Role, m.Content.String())
	}
	return out
}

// InsertBeforeLast places m immediately before the final message.
func (c Conversation) InsertBeforeLast(m Message) Conversation {
	if len(c) == 0 {
		return Conversation{m}
	}
	out := make(Conversation, 0, len(c)+1)
	out = append(out, c[:len(c)-1]...)
	out = append(out, m, c[len(c)-1])
	return out
}
