package a2a

import (
	"encoding/json"
	"os"
)

// Conversation aggregates messages by reference order. Deleting a
// Conversation value does not delete the Message values if they are held
// elsewhere (e.g. in a Task history).
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

func NewConversation(id string) *Conversation {
	if id == "" {
		id = NewID()
	}
	return &Conversation{ConversationID: id}
}

// AddMessage appends m, stamping its ConversationID and validating that
// conversation_id matches (or is unset before stamping) and that
// parent_message_id, if set, references an earlier message in this
// conversation.
func (c *Conversation) AddMessage(m Message) error {
	if m.ConversationID != "" && m.ConversationID != c.ConversationID {
		return ValidationError("message conversation_id %q does not match conversation %q", m.ConversationID, c.ConversationID)
	}
	if m.ParentMessageID != "" {
		if _, ok := c.find(m.ParentMessageID); !ok {
			return ValidationError("parent_message_id %q does not reference an earlier message in conversation %q", m.ParentMessageID, c.ConversationID)
		}
	}
	m.ConversationID = c.ConversationID
	c.Messages = append(c.Messages, m)
	return nil
}

func (c *Conversation) find(id string) (Message, bool) {
	for _, m := range c.Messages {
		if m.MessageID == id {
			return m, true
		}
	}
	return Message{}, false
}

// SaveTranscript round-trips the conversation to JSON, the data model's
// natural on-disk transcript shape.
func (c *Conversation) SaveTranscript(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return WrapError(KindValidation, err, "encode conversation transcript")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapError(KindRequest, err, "write conversation transcript %s", path)
	}
	return nil
}

// LoadTranscript reads back a transcript written by SaveTranscript.
func LoadTranscript(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(KindRequest, err, "read conversation transcript %s", path)
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, WrapError(KindValidation, err, "decode conversation transcript %s", path)
	}
	return &c, nil
}
