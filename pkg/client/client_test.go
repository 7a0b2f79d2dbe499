package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/server"
)

func testServer() *httptest.Server {
	card := a2a.AgentCard{Name: "echo-agent", Version: "0.1.0"}
	h := agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "Echo: "+msg.Content.Text), nil
	}))
	return httptest.NewServer(server.NewAgent(card, h))
}

func TestClientAsk(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	c := New(srv.URL, nil)
	reply, err := c.Ask(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Echo: hello", reply)
}

func TestClientProbeResolvesCardWithinBudget(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.ProbeBudget = 200 * time.Millisecond
	c := New(srv.URL, cfg)
	card := c.Probe(context.Background())
	require.NotNil(t, card)
	require.Equal(t, "echo-agent", card.Name)
}

func TestClientSendTask(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	c := New(srv.URL, nil)
	task := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, "hi"))
	result, err := c.SendTask(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, a2a.TaskCompleted, result.Status.State)
	require.Equal(t, "Echo: hi", result.Artifacts[0].Text())
}

func TestClientStreamResponse(t *testing.T) {
	card := a2a.AgentCard{Name: "counter-agent"}
	h := counterStreamHandler{}
	srv := httptest.NewServer(server.NewAgent(card, h))
	defer srv.Close()

	c := New(srv.URL, nil)
	task := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, "count"))
	chunks, err := c.StreamResponse(context.Background(), task)
	require.NoError(t, err)

	var sawComplete bool
	for ch := range chunks {
		require.NoError(t, ch.Err)
		if ch.Task != nil && ch.Task.Status.State == a2a.TaskCompleted {
			sawComplete = true
		}
	}
	require.True(t, sawComplete)
}

type counterStreamHandler struct{}

func (counterStreamHandler) HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	return a2a.NewTextMessage(a2a.RoleAgent, "n/a"), nil
}

func (counterStreamHandler) HandleTask(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	return t, nil
}

func (counterStreamHandler) HandleTaskStream(ctx context.Context, t *a2a.Task, send func(*a2a.Task) error) error {
	for _, s := range []string{"1", "2", "3"} {
		t.PutArtifact(a2a.Artifact{Index: 0, Parts: []a2a.Part{{Type: "text", Text: s}}, Append: true})
		if err := send(t); err != nil {
			return err
		}
	}
	t.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
	return nil
}
