package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/network"
)

func TestRouteExactAdvisorMatch(t *testing.T) {
	net := network.New()
	net.Add("billing", "http://billing.invalid", "handles invoices")
	net.Add("support", "http://support.invalid", "handles tickets")

	advisor := func(ctx context.Context, prompt string) (string, error) {
		return "  Billing  ", nil
	}
	r := New(net, advisor)
	result := r.Route(context.Background(), "I need a refund")
	require.Equal(t, "billing", result.AgentName)
	require.Equal(t, 1.0, result.Confidence)
}

func TestRouteAdvisorFirstMentionWins(t *testing.T) {
	net := network.New()
	net.Add("billing", "http://billing.invalid")
	net.Add("support", "http://support.invalid")

	advisor := func(ctx context.Context, prompt string) (string, error) {
		return "Either support or billing could help, but try support first.", nil
	}
	r := New(net, advisor)
	result := r.Route(context.Background(), "ticket issue")
	require.Equal(t, "support", result.AgentName)
}

func TestRouteFallsBackOnAdvisorError(t *testing.T) {
	net := network.New()
	net.Add("billing", "http://billing.invalid", "invoice payment refund")
	net.Add("support", "http://support.invalid", "ticket bug crash")

	advisor := func(ctx context.Context, prompt string) (string, error) {
		return "", assertErr{}
	}
	r := New(net, advisor)
	result := r.Route(context.Background(), "I have a billing refund question")
	require.Equal(t, "billing", result.AgentName)
	require.Greater(t, result.Confidence, 0.0)
}

func TestRouteEmptyNetwork(t *testing.T) {
	net := network.New()
	r := New(net, nil)
	result := r.Route(context.Background(), "anything")
	require.Equal(t, "", result.AgentName)
	require.Equal(t, 0.0, result.Confidence)
}

func TestRouteNoAdvisorUsesFallback(t *testing.T) {
	net := network.New()
	net.Add("billing", "http://billing.invalid", "invoice payment refund")
	net.Add("support", "http://support.invalid", "ticket bug crash")

	r := New(net, nil)
	result := r.Route(context.Background(), "crash bug report")
	require.Equal(t, "support", result.AgentName)
}

type assertErr struct{}

func (assertErr) Error() string { return "advisor failed" }
