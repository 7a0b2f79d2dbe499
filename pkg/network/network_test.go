package network

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/server"
)

func TestNetworkInProcessHandler(t *testing.T) {
	n := New()
	h := agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "Echo: "+msg.Content.Text), nil
	}))
	n.AddHandler("echo", h, "echoes input")

	a, ok := n.Get("echo")
	require.True(t, ok)
	reply, err := a.Ask(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "Echo: hi", reply)
}

func TestNetworkRemoteEntryAndCard(t *testing.T) {
	card := a2a.AgentCard{Name: "remote-agent", Skills: []a2a.AgentSkill{{ID: "s1"}, {ID: "s2"}}}
	h := agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "ok"), nil
	}))
	srv := httptest.NewServer(server.NewAgent(card, h))
	defer srv.Close()

	n := New()
	n.Add("remote", srv.URL, "a remote peer")

	fetched := n.Card(context.Background(), "remote")
	require.NotNil(t, fetched)
	require.Equal(t, 2, len(fetched.Skills))

	summaries := n.List(context.Background())
	require.Len(t, summaries, 1)
	require.Equal(t, "remote", summaries[0].Name)
	require.Equal(t, 2, summaries[0].SkillsCount)
}

func TestNetworkSaveLoad(t *testing.T) {
	n := New()
	n.Add("a", "http://a.invalid", "agent a")
	n.Add("b", "http://b.invalid", "agent b")

	path := filepath.Join(t.TempDir(), "network.json")
	require.NoError(t, n.Save(path))

	n2 := New()
	require.NoError(t, n2.Load(path))

	summaries := n2.List(context.Background())
	require.Len(t, summaries, 2)
}

func TestNetworkDuplicateAddReplaces(t *testing.T) {
	n := New()
	n.Add("a", "http://old.invalid")
	n.Add("a", "http://new.invalid")

	n.mu.RLock()
	url := n.entries["a"].URL
	n.mu.RUnlock()
	require.Equal(t, "http://new.invalid", url)
}
