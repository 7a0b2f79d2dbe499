package a2a

import (
	"encoding/json"
	"time"
)

// TaskState is one of the values in the task lifecycle state machine.
type TaskState string

const (
	TaskSubmitted     TaskState = "submitted"
	TaskWaiting       TaskState = "waiting"
	TaskInputRequired TaskState = "input_required"
	TaskCompleted     TaskState = "completed"
	TaskCanceled      TaskState = "canceled"
	TaskFailed        TaskState = "failed"
	TaskUnknown       TaskState = "unknown"
)

// Terminal reports whether s is a terminal state; terminal states never
// transition further.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskCompleted, TaskCanceled, TaskFailed:
		return true
	default:
		return false
	}
}

// TaskStatus is the current lifecycle position of a Task plus the message
// that produced it (e.g. an input-required prompt or a failure reason).
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func NewTaskStatus(state TaskState) TaskStatus {
	ts := time.Now().UTC()
	return TaskStatus{State: state, Timestamp: &ts}
}

// Part is one fragment of an Artifact's content. Only Type "text" is
// interpreted by the core; other types are preserved verbatim through
// Extra. A reader displays an artifact by concatenating its Parts' Text in
// order.
type Part struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Extra map[string]any `json:"-"`
}

// Artifact is a structured output fragment produced by a task handler.
// Index groups chunks belonging to the same logical artifact across
// multiple streaming snapshots; Append indicates this artifact should be
// merged with prior content at the same Index rather than replacing it;
// LastUpdate marks the final chunk for that index.
type Artifact struct {
	Parts      []Part `json:"parts"`
	Index      int    `json:"index,omitempty"`
	Append     bool   `json:"append,omitempty"`
	LastUpdate bool   `json:"lastUpdate,omitempty"`
}

// Text concatenates the artifact's text parts into a single display string.
func (a Artifact) Text() string {
	var s string
	for _, p := range a.Parts {
		s += p.Text
	}
	return s
}

func TextArtifact(text string) Artifact {
	return Artifact{Parts: []Part{{Type: "text", Text: text}}}
}

// Task carries an input message and accumulates artifacts over its
// lifecycle. History entries are stored as generic maps (a sequence of
// message-shaped dicts) so a handler can append entries that are not
// strictly Message values without the engine rejecting them.
type Task struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id,omitempty"`
	Status    TaskStatus       `json:"status"`
	Message   *Message         `json:"message,omitempty"`
	History   []map[string]any `json:"history,omitempty"`
	Artifacts []Artifact       `json:"artifacts"`
	Metadata  map[string]any   `json:"metadata,omitempty"`

	// Extra holds top-level fields DecodeTask didn't recognize, preserved
	// verbatim so decode(encode(t)) round-trips forward-compatibly.
	Extra map[string]any `json:"-"`
}

// NewTask creates a task in the initial "submitted" state, wrapping msg.
func NewTask(msg Message) *Task {
	return &Task{
		ID:      NewID(),
		Status:  NewTaskStatus(TaskSubmitted),
		Message: &msg,
	}
}

// AppendHistory records m in the task's history as a plain map, Task's
// wire shape for History entries.
func (t *Task) AppendHistory(m Message) error {
	data, err := encodeMessageObjectForm(m)
	if err != nil {
		return err
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	t.History = append(t.History, entry)
	return nil
}

// PutArtifact applies the accumulation rule: for a given Index, Append
// concatenates text parts onto the existing artifact at that index,
// otherwise the artifact at that index is replaced.
func (t *Task) PutArtifact(a Artifact) {
	for i := range t.Artifacts {
		if t.Artifacts[i].Index != a.Index {
			continue
		}
		if a.Append {
			t.Artifacts[i].Parts = append(t.Artifacts[i].Parts, a.Parts...)
			t.Artifacts[i].LastUpdate = a.LastUpdate
		} else {
			t.Artifacts[i] = a
		}
		return
	}
	t.Artifacts = append(t.Artifacts, a)
}
