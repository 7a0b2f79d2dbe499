// Package a2a implements the A2A wire data model: messages, content
// variants, conversations, tasks, and agent cards, plus the JSON codec and
// JSON-RPC 2.0 envelope shared by the server and client packages.
package a2a

import "encoding/json"

// MarshalJSON flattens Extra alongside the typed fields so a Part round-trips
// any vendor-specific keys it didn't recognize on decode.
func (p Part) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": p.Type}
	for k, v := range p.Extra {
		m[k] = v
	}
	if p.Text != "" || p.Type == "text" {
		m["text"] = p.Text
	}
	return json.Marshal(m)
}

func (p *Part) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	typ, _ := m["type"].(string)
	text, _ := m["text"].(string)
	delete(m, "type")
	delete(m, "text")
	*p = Part{Type: typ, Text: text, Extra: m}
	return nil
}

// encodeMessageObjectForm is the canonical wire encoding for a Message: the
// "content" field is a type-tagged object. This is the form every encoder
// emits by default.
func encodeMessageObjectForm(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// contentToParts projects a Content onto the Google-compat parts array. The
// mapping is lossless for the variants this module defines: a single Part
// carries everything needed to reconstruct the Content on the way back in.
func contentToParts(c Content) []Part {
	switch c.Type {
	case ContentText:
		return []Part{{Type: "text", Text: c.Text}}
	case ContentFunctionCall:
		return []Part{{Type: "data", Extra: map[string]any{
			"kind": "function_call", "name": c.CallName, "parameters": c.Parameters,
		}}}
	case ContentFunctionResponse:
		return []Part{{Type: "data", Extra: map[string]any{
			"kind": "function_response", "name": c.ResponseName, "response": c.Response,
		}}}
	case ContentError:
		return []Part{{Type: "error", Text: c.ErrorMessage}}
	case ContentOpaque:
		return []Part{{Type: "data", Extra: c.Raw}}
	default:
		return nil
	}
}

// partsToContent reverses contentToParts for the first part in the slice;
// a task message carries exactly one logical content value.
func partsToContent(parts []Part) (Content, error) {
	if len(parts) == 0 {
		return Content{}, ValidationError("parts array message has no parts")
	}
	p := parts[0]
	switch p.Type {
	case "text":
		return TextContent(p.Text), nil
	case "error":
		return ErrorContent(p.Text), nil
	case "data":
		kind, _ := p.Extra["kind"].(string)
		switch kind {
		case "function_call":
			name, _ := p.Extra["name"].(string)
			var params []FunctionParameter
			if raw, err := json.Marshal(p.Extra["parameters"]); err == nil {
				_ = json.Unmarshal(raw, &params)
			}
			return FunctionCallContent(name, params), nil
		case "function_response":
			name, _ := p.Extra["name"].(string)
			return FunctionResponseContent(name, p.Extra["response"]), nil
		default:
			return Content{Type: ContentOpaque, Raw: p.Extra}, nil
		}
	default:
		// The part's own type is the opaque content's original type tag.
		raw := map[string]any{"type": p.Type}
		for k, v := range p.Extra {
			raw[k] = v
		}
		return Content{Type: ContentOpaque, Raw: raw}, nil
	}
}

// messagePartsWire is the Google-compat wire shape: a message with "parts"
// instead of "content".
type messagePartsWire struct {
	MessageID       string         `json:"message_id,omitempty"`
	Role            string         `json:"role"`
	Parts           []Part         `json:"parts"`
	ParentMessageID string         `json:"parent_message_id,omitempty"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// EncodeMessage encodes m using the object-content form, or the
// Google-compat parts-array form when partsArray is true. Per SPEC_FULL.md,
// a *client.Client picks the form once per peer, based on the peer's
// advertised capabilities.
func EncodeMessage(m Message, partsArray bool) ([]byte, error) {
	if !partsArray {
		return encodeMessageObjectForm(m)
	}
	return json.Marshal(messagePartsWire{
		MessageID:       m.MessageID,
		Role:            string(m.Role),
		Parts:           contentToParts(m.Content),
		ParentMessageID: m.ParentMessageID,
		ConversationID:  m.ConversationID,
		Metadata:        m.Metadata,
	})
}

// DecodeMessage accepts either wire shape symmetrically: an object "content"
// field or a "parts" array, selecting on which key is present.
func DecodeMessage(data []byte) (Message, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Message{}, ValidationError("malformed message JSON: %v", err)
	}
	if _, hasParts := probe["parts"]; hasParts {
		if _, hasContent := probe["content"]; !hasContent {
			var w messagePartsWire
			if err := json.Unmarshal(data, &w); err != nil {
				return Message{}, ValidationError("malformed parts-array message: %v", err)
			}
			content, err := partsToContent(w.Parts)
			if err != nil {
				return Message{}, err
			}
			role, err := ParseRole(w.Role)
			if err != nil {
				return Message{}, err
			}
			id := w.MessageID
			if id == "" {
				id = NewID()
			}
			return Message{
				MessageID:       id,
				Role:            role,
				Content:         content,
				ParentMessageID: w.ParentMessageID,
				ConversationID:  w.ConversationID,
				Metadata:        w.Metadata,
			}, nil
		}
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}
