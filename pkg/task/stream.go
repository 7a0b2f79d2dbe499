package task

import (
	"context"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// EventKind discriminates a StreamEvent.
type EventKind string

const (
	EventUpdate   EventKind = "update"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// StreamEvent is one item delivered to a streaming session's consumer
// (pkg/server, which renders it as an SSE frame).
type StreamEvent struct {
	Kind EventKind
	Task *a2a.Task
	Err  error
}

// Session is an in-flight streaming task. Consumers range over Events
// until the channel closes; the final event is always EventComplete or
// EventError.
type Session struct {
	Events <-chan StreamEvent
	cancel context.CancelFunc
}

// Cancel requests cooperative cancellation of the streaming session.
func (s *Session) Cancel() { s.cancel() }

func cloneTask(t *a2a.Task) *a2a.Task {
	c := *t
	if t.Status.Message != nil {
		msg := *t.Status.Message
		c.Status.Message = &msg
	}
	c.Artifacts = make([]a2a.Artifact, len(t.Artifacts))
	for i, a := range t.Artifacts {
		a.Parts = append([]a2a.Part(nil), a.Parts...)
		c.Artifacts[i] = a
	}
	c.History = append([]map[string]any(nil), t.History...)
	return &c
}

func markLastArtifactFinal(t *a2a.Task) {
	if len(t.Artifacts) == 0 {
		t.Artifacts = append(t.Artifacts, a2a.Artifact{LastUpdate: true})
		return
	}
	t.Artifacts[len(t.Artifacts)-1].LastUpdate = true
}

// Stream starts a streaming session for t. If the engine's handler also
// implements agent.StreamHandler, it drives the handler's incremental
// snapshots directly; otherwise it auto-wraps the non-streaming Handle call
// into a single terminal snapshot (SPEC_FULL.md open-question pin: "a
// Handler with no StreamHandler is auto-wrapped into a single-snapshot
// stream").
func (e *Engine) Stream(ctx context.Context, t *a2a.Task) *Session {
	if t.Status.State == "" {
		t.Status = a2a.NewTaskStatus(a2a.TaskSubmitted)
	}
	e.store(t)

	runCtx, cancel := context.WithCancel(ctx)
	e.track(t.ID, cancel)

	events := make(chan StreamEvent, 16)

	send := func(snap *a2a.Task) error {
		select {
		case events <- StreamEvent{Kind: EventUpdate, Task: cloneTask(snap)}:
			return nil
		case <-runCtx.Done():
			return runCtx.Err()
		}
	}

	// Initial snapshot, delivered immediately so the SSE channel is
	// established well within the configured budget.
	events <- StreamEvent{Kind: EventUpdate, Task: cloneTask(t)}

	go func() {
		defer close(events)
		defer e.untrack(t.ID)

		if e.streamHandler != nil {
			if err := e.streamHandler.HandleTaskStream(runCtx, t, send); err != nil {
				failed := e.fail(t, err)
				events <- StreamEvent{Kind: EventError, Task: cloneTask(failed), Err: err}
				return
			}
			if !t.Status.State.Terminal() {
				t.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
			}
			markLastArtifactFinal(t)
			e.countTransition(t.Status.State)
			e.store(t)
			events <- StreamEvent{Kind: EventComplete, Task: cloneTask(t)}
			return
		}

		result, err := e.handler.HandleTask(runCtx, t)
		if err != nil {
			failed := e.fail(t, err)
			events <- StreamEvent{Kind: EventError, Task: cloneTask(failed), Err: err}
			return
		}
		if !result.Status.State.Terminal() {
			result.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
		}
		markLastArtifactFinal(result)
		e.countTransition(result.Status.State)
		e.store(result)
		events <- StreamEvent{Kind: EventComplete, Task: cloneTask(result)}
	}()

	return &Session{Events: events, cancel: cancel}
}
