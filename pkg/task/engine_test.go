package task

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
)

func echoHandler() agent.Handler {
	return agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "Echo: "+msg.Content.Text), nil
	}))
}

func TestEngineEcho(t *testing.T) {
	e := New(echoHandler())
	result, err := e.Submit(context.Background(), a2a.NewTextMessage(a2a.RoleUser, "hello"))
	require.NoError(t, err)
	require.Equal(t, a2a.TaskCompleted, result.Status.State)
	require.Len(t, result.History, 1)
	require.Len(t, result.Artifacts, 1)
	require.Equal(t, "Echo: hello", result.Artifacts[0].Text())
}

func TestEngineImplicitCompletion(t *testing.T) {
	h := agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "ok"), nil
	})
	e := New(agent.FromMessageHandler(h))
	result, err := e.Submit(context.Background(), a2a.NewTextMessage(a2a.RoleUser, "x"))
	require.NoError(t, err)
	require.True(t, result.Status.State.Terminal())
}

type failingTaskHandler struct{}

func (failingTaskHandler) HandleTask(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	return nil, a2a.NewError(a2a.KindResponse, "simulated failure")
}

func TestEngineHandlerFailure(t *testing.T) {
	e := New(agent.FromTaskHandler(failingTaskHandler{}))
	result, err := e.Submit(context.Background(), a2a.NewTextMessage(a2a.RoleUser, "x"))
	require.NoError(t, err)
	require.Equal(t, a2a.TaskFailed, result.Status.State)
	require.NotNil(t, result.Status.Message)
	require.Empty(t, result.Artifacts, "engine must not fabricate an artifact on failure")
}

type counterStreamHandler struct{}

func (counterStreamHandler) HandleTask(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	return t, nil
}

func (counterStreamHandler) HandleTaskStream(ctx context.Context, t *a2a.Task, send func(*a2a.Task) error) error {
	for _, s := range []string{"1", "2", "3", "4", "5"} {
		t.PutArtifact(a2a.Artifact{Index: 0, Parts: []a2a.Part{{Type: "text", Text: s}}, Append: true})
		if err := send(t); err != nil {
			return err
		}
	}
	t.PutArtifact(a2a.Artifact{Index: 0, Parts: []a2a.Part{{Type: "text", Text: "done"}}, Append: true})
	t.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
	return nil
}

func TestEngineStreamedCounter(t *testing.T) {
	h := counterStreamHandler{}
	e := New(agent.FromTaskHandler(h), WithStreamHandler(h))

	task := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, "count"))
	sess := e.Stream(context.Background(), task)

	var updates int
	var completes int
	var final *a2a.Task
	for ev := range sess.Events {
		switch ev.Kind {
		case EventUpdate:
			updates++
		case EventComplete:
			completes++
			final = ev.Task
		case EventError:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}

	require.Equal(t, 1, completes)
	require.GreaterOrEqual(t, updates, 5)
	require.NotNil(t, final)
	require.Equal(t, "12345done", final.Artifacts[0].Text())
	require.True(t, final.Artifacts[len(final.Artifacts)-1].LastUpdate)
	require.True(t, final.Status.State.Terminal())
}

func TestEngineAutoWrapsNonStreamingHandler(t *testing.T) {
	e := New(echoHandler())
	task := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, "hi"))
	sess := e.Stream(context.Background(), task)

	var kinds []EventKind
	for ev := range sess.Events {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []EventKind{EventUpdate, EventComplete}, kinds)
}

func TestMetricsRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveTransition(a2a.TaskCompleted)

	mf, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mf)
}
