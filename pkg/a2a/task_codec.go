package a2a

import "encoding/json"

// taskWire mirrors Task but leaves Message/History as raw JSON so the
// symmetric content/parts decoding in codec.go can be applied to them.
type taskWire struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id,omitempty"`
	Status    taskStatusWire    `json:"status"`
	Message   json.RawMessage   `json:"message,omitempty"`
	History   []json.RawMessage `json:"history,omitempty"`
	Artifacts []Artifact        `json:"artifacts"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
}

type taskStatusWire struct {
	State     TaskState       `json:"state"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timestamp *string         `json:"timestamp,omitempty"`
}

var taskKnownFields = map[string]struct{}{
	"id": {}, "session_id": {}, "status": {}, "message": {},
	"history": {}, "artifacts": {}, "metadata": {},
}

// DecodeTask decodes a Task from either wire shape for its embedded
// message(s), returning whether the parts-array form was used so the
// caller can mirror it back in a response (SPEC_FULL.md's per-connection
// encode-form rule).
func DecodeTask(data []byte) (t *Task, usedParts bool, err error) {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false, ValidationError("malformed task JSON: %v", err)
	}
	t = &Task{
		ID:        w.ID,
		SessionID: w.SessionID,
		Artifacts: w.Artifacts,
		Metadata:  w.Metadata,
		Status:    TaskStatus{State: w.Status.State},
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Status.State == "" {
		t.Status.State = TaskSubmitted
	}
	if len(w.Message) > 0 {
		usedParts = messageUsesParts(w.Message)
		msg, err := DecodeMessage(w.Message)
		if err != nil {
			return nil, false, err
		}
		t.Message = &msg
	}
	if len(w.Status.Message) > 0 {
		msg, err := DecodeMessage(w.Status.Message)
		if err != nil {
			return nil, false, err
		}
		t.Status.Message = &msg
	}
	for _, raw := range w.History {
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, false, ValidationError("malformed history entry: %v", err)
		}
		t.History = append(t.History, entry)
	}
	var rawTop map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawTop); err == nil {
		for k, v := range rawTop {
			if _, known := taskKnownFields[k]; known {
				continue
			}
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				continue
			}
			if t.Extra == nil {
				t.Extra = make(map[string]any)
			}
			t.Extra[k] = val
		}
	}
	return t, usedParts, nil
}

func messageUsesParts(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, hasParts := probe["parts"]
	_, hasContent := probe["content"]
	return hasParts && !hasContent
}

// EncodeTask marshals t, optionally rewriting its Message field to the
// Google-compat parts-array form to mirror the request that produced it.
// Any Extra fields captured by DecodeTask are merged back into the output
// so unknown top-level keys survive a round trip.
func EncodeTask(t *Task, partsArray bool) ([]byte, error) {
	var base []byte
	if !partsArray || t.Message == nil {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		base = data
	} else {
		msgBytes, err := EncodeMessage(*t.Message, true)
		if err != nil {
			return nil, err
		}
		type alias Task
		data, err := json.Marshal(struct {
			*alias
			Message json.RawMessage `json:"message,omitempty"`
		}{alias: (*alias)(t), Message: msgBytes})
		if err != nil {
			return nil, err
		}
		base = data
	}
	if len(t.Extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range t.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
