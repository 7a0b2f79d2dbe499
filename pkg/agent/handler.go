// Package agent defines the small capability surface a server-side agent
// implementation provides to pkg/task and pkg/server: a duck-typed pair of
// handler methods, letting an agent supply only the shape it needs while a
// default implementation derives the rest.
package agent

import (
	"context"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// MessageHandler handles the legacy message-in/message-out path.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error)
}

// TaskHandler handles the full task path: it receives the task (already
// created by the engine) and returns it, mutated, at completion.
type TaskHandler interface {
	HandleTask(ctx context.Context, task *a2a.Task) (*a2a.Task, error)
}

// StreamHandler is the incremental variant of TaskHandler: it pushes
// successive task snapshots to send instead of returning once.
type StreamHandler interface {
	HandleTaskStream(ctx context.Context, task *a2a.Task, send func(*a2a.Task) error) error
}

// Handler is the full capability surface a registered agent may implement.
// An implementation needs only one of MessageHandler/TaskHandler: the
// adapters below synthesize the other.
type Handler interface {
	MessageHandler
	TaskHandler
}

// FromMessageHandler adapts a MessageHandler into a full Handler by
// wrapping HandleMessage: the task's message is passed to HandleMessage and
// recorded as the task's one history entry, and a text reply becomes a
// single text artifact (a reply of any other content type adds no artifact).
func FromMessageHandler(h MessageHandler) Handler {
	return &messageOnlyHandler{h}
}

type messageOnlyHandler struct{ h MessageHandler }

func (m *messageOnlyHandler) HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	return m.h.HandleMessage(ctx, msg)
}

func (m *messageOnlyHandler) HandleTask(ctx context.Context, task *a2a.Task) (*a2a.Task, error) {
	if task.Message == nil {
		return nil, a2a.ValidationError("task has no input message")
	}
	reply, err := m.h.HandleMessage(ctx, *task.Message)
	if err != nil {
		return nil, err
	}
	if err := task.AppendHistory(*task.Message); err != nil {
		return nil, err
	}
	if reply.Content.Type == a2a.ContentText {
		task.PutArtifact(a2a.TextArtifact(reply.Content.Text))
	}
	task.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
	return task, nil
}

// FromTaskHandler adapts a TaskHandler into a full Handler by synthesizing
// HandleMessage: it wraps msg in a throwaway task, runs HandleTask, and
// projects the result back onto a reply Message.
func FromTaskHandler(h TaskHandler) Handler {
	return &taskOnlyHandler{h}
}

type taskOnlyHandler struct{ h TaskHandler }

func (t *taskOnlyHandler) HandleTask(ctx context.Context, task *a2a.Task) (*a2a.Task, error) {
	return t.h.HandleTask(ctx, task)
}

func (t *taskOnlyHandler) HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	task := a2a.NewTask(msg)
	result, err := t.h.HandleTask(ctx, task)
	if err != nil {
		return a2a.Message{}, err
	}
	if len(result.Artifacts) > 0 {
		return a2a.NewTextMessage(a2a.RoleAgent, result.Artifacts[0].Text()), nil
	}
	if result.Status.State == a2a.TaskFailed && result.Status.Message != nil {
		return *result.Status.Message, nil
	}
	return a2a.NewTextMessage(a2a.RoleAgent, ""), nil
}

// Func adapts a plain function into a MessageHandler, the common case for
// small agents such as an echo responder.
type Func func(ctx context.Context, msg a2a.Message) (a2a.Message, error)

func (f Func) HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	return f(ctx, msg)
}
