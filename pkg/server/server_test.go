package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/task"
)

func testCard() a2a.AgentCard {
	return a2a.AgentCard{
		Name:    "echo-agent",
		URL:     "http://example.invalid",
		Version: "0.1.0",
		Capabilities: map[string]bool{
			a2a.CapabilityStreaming: true,
		},
		Skills: []a2a.AgentSkill{{ID: "echo", Name: "Echo"}},
	}
}

func echoAgent() agent.Handler {
	return agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "Echo: "+msg.Content.Text), nil
	}))
}

func TestAgentCardEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewAgent(testCard(), echoAgent()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/agent.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	require.Equal(t, "echo-agent", card.Name)

	resp2, err := http.Get(srv.URL + "/a2a/agent.json")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestTaskSendEcho(t *testing.T) {
	srv := httptest.NewServer(NewAgent(testCard(), echoAgent()))
	defer srv.Close()

	taskJSON := `{"id":"t1","message":{"message_id":"m1","role":"user","content":{"type":"text","text":"hello"}}}`
	resp, err := http.Post(srv.URL+"/tasks/send", "application/json", strings.NewReader(taskJSON))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result a2a.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, a2a.TaskCompleted, result.Status.State)
	require.Len(t, result.History, 1) // id+message path via engine.Run (task.AppendHistory already happened inside handler)
	require.Equal(t, "Echo: hello", result.Artifacts[0].Text())
}

func TestRootDispatchRawText(t *testing.T) {
	srv := httptest.NewServer(NewAgent(testCard(), echoAgent()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "text/plain", strings.NewReader("hi there"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg a2a.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Equal(t, "Echo: hi there", msg.Content.Text)
}

func TestJSONRPCUnknownMethod(t *testing.T) {
	srv := httptest.NewServer(NewAgent(testCard(), echoAgent()))
	defer srv.Close()

	body := `{"jsonrpc":"2.0","id":7,"method":"tasks/unknown"}`
	resp, err := http.Post(srv.URL+"/tasks/send", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpc a2a.RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpc))
	require.Nil(t, rpc.Result)
	require.NotNil(t, rpc.Error)
	require.EqualValues(t, a2a.CodeMethodNotFound, rpc.Error.Code)
	require.EqualValues(t, float64(7), rpc.ID)
}

type counterStreamAgent struct{}

func (counterStreamAgent) HandleMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	return a2a.NewTextMessage(a2a.RoleAgent, "n/a"), nil
}

func (counterStreamAgent) HandleTask(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	return t, nil
}

func (counterStreamAgent) HandleTaskStream(ctx context.Context, t *a2a.Task, send func(*a2a.Task) error) error {
	for _, s := range []string{"1", "2", "3"} {
		t.PutArtifact(a2a.Artifact{Index: 0, Parts: []a2a.Part{{Type: "text", Text: s}}, Append: true})
		if err := send(t); err != nil {
			return err
		}
	}
	t.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
	return nil
}

func TestStreamEndpoint(t *testing.T) {
	h := counterStreamAgent{}
	srv := httptest.NewServer(NewAgent(testCard(), h, WithTaskConfig(task.DefaultConfig())))
	defer srv.Close()

	taskJSON := `{"id":"t2","message":{"message_id":"m1","role":"user","content":{"type":"text","text":"count"}}}`
	resp, err := http.Post(srv.URL+"/tasks/stream", "application/json", strings.NewReader(taskJSON))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	require.Contains(t, events, "complete")
	require.NotContains(t, events, "error")
}
