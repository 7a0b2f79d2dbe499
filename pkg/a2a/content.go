package a2a

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a Message. Canonical form is lower-case;
// decoding is case-insensitive.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAgent:
		return RoleAgent, nil
	case RoleSystem:
		return RoleSystem, nil
	default:
		return "", ValidationError("unknown role %q", s)
	}
}

// ContentType discriminates the Content tagged union.
type ContentType string

const (
	ContentText             ContentType = "text"
	ContentFunctionCall     ContentType = "function_call"
	ContentFunctionResponse ContentType = "function_response"
	ContentError            ContentType = "error"
	// ContentOpaque is not a wire value; it marks a Content decoded from an
	// unrecognised "type" tag, keeping the raw object for round-tripping.
	ContentOpaque ContentType = "opaque"
)

// FunctionParameter is one named argument of a FunctionCall content.
type FunctionParameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Content is the tagged-union payload of a Message. Exactly one of the
// Text/Call/Response/ErrorMessage/Raw fields is meaningful, selected by
// Type.
type Content struct {
	Type ContentType

	// type == text
	Text string

	// type == function_call
	CallName   string
	Parameters []FunctionParameter

	// type == function_response
	ResponseName string
	Response     any

	// type == error
	ErrorMessage string

	// type == opaque (unknown type tag): the raw decoded object, preserved
	// verbatim so forward-compatibility never loses bytes.
	Raw map[string]any
}

func TextContent(text string) Content {
	return Content{Type: ContentText, Text: text}
}

func FunctionCallContent(name string, params []FunctionParameter) Content {
	return Content{Type: ContentFunctionCall, CallName: name, Parameters: params}
}

func FunctionResponseContent(name string, response any) Content {
	return Content{Type: ContentFunctionResponse, ResponseName: name, Response: response}
}

func ErrorContent(message string) Content {
	return Content{Type: ContentError, ErrorMessage: message}
}

// wireContent is the object-form wire shape: {"type": "...", ...fields}.
type wireContent struct {
	Type       string              `json:"type"`
	Text       *string             `json:"text,omitempty"`
	Name       *string             `json:"name,omitempty"`
	Parameters []FunctionParameter `json:"parameters,omitempty"`
	Response   any                 `json:"response,omitempty"`
	Message    *string             `json:"message,omitempty"`
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentText:
		return json.Marshal(wireContent{Type: string(ContentText), Text: &c.Text})
	case ContentFunctionCall:
		name := c.CallName
		return json.Marshal(wireContent{Type: string(ContentFunctionCall), Name: &name, Parameters: c.Parameters})
	case ContentFunctionResponse:
		name := c.ResponseName
		return json.Marshal(wireContent{Type: string(ContentFunctionResponse), Name: &name, Response: c.Response})
	case ContentError:
		msg := c.ErrorMessage
		return json.Marshal(wireContent{Type: string(ContentError), Message: &msg})
	case ContentOpaque:
		return json.Marshal(c.Raw)
	default:
		return nil, ValidationError("content has no type set")
	}
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, _ := raw["type"].(string)
	switch ContentType(typ) {
	case ContentText:
		var w wireContent
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Text == nil {
			return ValidationError("text content missing 'text' field")
		}
		*c = Content{Type: ContentText, Text: *w.Text}
	case ContentFunctionCall:
		var w wireContent
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Name == nil {
			return ValidationError("function_call content missing 'name' field")
		}
		*c = Content{Type: ContentFunctionCall, CallName: *w.Name, Parameters: w.Parameters}
	case ContentFunctionResponse:
		var w wireContent
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Name == nil {
			return ValidationError("function_response content missing 'name' field")
		}
		*c = Content{Type: ContentFunctionResponse, ResponseName: *w.Name, Response: w.Response}
	case ContentError:
		var w wireContent
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Message == nil {
			return ValidationError("error content missing 'message' field")
		}
		*c = Content{Type: ContentError, ErrorMessage: *w.Message}
	default:
		// Unknown type tag: preserve the raw object verbatim.
		*c = Content{Type: ContentOpaque, Raw: raw}
	}
	return nil
}

// Message is the atomic unit of conversation, immutable once placed in a
// Conversation or Task history.
type Message struct {
	MessageID       string         `json:"message_id"`
	Role            Role           `json:"role"`
	Content         Content        `json:"content"`
	ParentMessageID string         `json:"parent_message_id,omitempty"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`

	// Extra holds top-level fields this decode didn't recognize, preserved
	// verbatim so decode(encode(m)) round-trips forward-compatibly.
	Extra map[string]any `json:"-"`
}

type messageAlias Message

var messageKnownFields = map[string]struct{}{
	"message_id": {}, "role": {}, "content": {},
	"parent_message_id": {}, "conversation_id": {}, "metadata": {},
}

// UnmarshalJSON fills a missing message_id, case-folds the role, and
// preserves any unrecognised top-level fields in Extra.
func (m *Message) UnmarshalJSON(data []byte) error {
	var a messageAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.MessageID == "" {
		a.MessageID = NewID()
	}
	role, err := ParseRole(string(a.Role))
	if err != nil {
		return err
	}
	a.Role = role

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		for k, v := range raw {
			if _, known := messageKnownFields[k]; known {
				continue
			}
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				continue
			}
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = val
		}
	}
	*m = Message(a)
	return nil
}

// MarshalJSON emits the typed fields plus any Extra fields captured on
// decode, so unknown top-level keys survive a round trip.
func (m Message) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(messageAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return data, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// NewMessage constructs a Message, generating a MessageID if none is given.
func NewMessage(role Role, content Content) Message {
	return Message{MessageID: NewID(), Role: role, Content: content}
}

// NewTextMessage is the common case: a user/agent/system text message.
func NewTextMessage(role Role, text string) Message {
	return NewMessage(role, TextContent(text))
}
