package registry

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

func TestRegisterIdempotentAndList(t *testing.T) {
	r := New()
	defer r.Close()

	card := a2a.AgentCard{Name: "agent-a", URL: "http://a.invalid", Version: "1.0"}
	r.Register(card)
	card.Version = "1.1"
	r.Register(card)

	agents := r.Agents()
	require.Len(t, agents, 1)
	require.Equal(t, "1.1", agents[0].Version)
}

func TestHeartbeatUnknownURLFails(t *testing.T) {
	r := New()
	defer r.Close()
	require.False(t, r.Heartbeat("http://unknown.invalid"))
}

func TestHeartbeatKnownURLSucceeds(t *testing.T) {
	r := New()
	defer r.Close()
	r.Register(a2a.AgentCard{Name: "a", URL: "http://a.invalid"})
	require.True(t, r.Heartbeat("http://a.invalid"))
}

func TestUnregisterRemoves(t *testing.T) {
	r := New()
	defer r.Close()
	r.Register(a2a.AgentCard{Name: "a", URL: "http://a.invalid"})
	require.True(t, r.Unregister("http://a.invalid"))
	require.Empty(t, r.Agents())
	require.False(t, r.Unregister("http://a.invalid"))
}

func TestPruneEvictsStaleEntries(t *testing.T) {
	r := New(WithMaxAge(50 * time.Millisecond))
	defer r.Close()
	r.Register(a2a.AgentCard{Name: "a", URL: "http://a.invalid"})

	require.Eventually(t, func() bool {
		return len(r.Agents()) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRegistryHTTPEndpoints(t *testing.T) {
	r := New()
	defer r.Close()
	srv := httptest.NewServer(r.Handler([]string{"*"}))
	defer srv.Close()

	d := NewDiscoveryClient(a2a.AgentCard{Name: "agent-a", URL: "http://a.invalid"}, []string{srv.URL})
	results := d.Register(t.Context())
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.True(t, results[0].Success)

	cards, err := d.Discover(t.Context())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, "agent-a", cards[0].Name)

	hbResults := d.Heartbeat(t.Context())
	require.True(t, hbResults[0].Success)

	unregResults := d.Unregister(t.Context())
	require.True(t, unregResults[0].Success)
	require.Empty(t, r.Agents())
}
