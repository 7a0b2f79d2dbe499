package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/network"
)

func weatherNetwork(reply string) *network.Network {
	net := network.New()
	net.AddHandler("weather", agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, reply), nil
	})))
	net.AddHandler("activities", agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
		return a2a.NewTextMessage(a2a.RoleAgent, "indoor: museum for "+msg.Content.Text), nil
	})))
	return net
}

func TestFlowSequentialSubstitution(t *testing.T) {
	net := weatherNetwork("rainy in London")
	f := New(net).
		Ask("weather", "What's the weather in {city}?").
		Func(func(ctx context.Context, fctx Context) (any, error) {
			return fctx["_last"].(string) + "!", nil
		})

	result, err := f.Run(context.Background(), Context{"city": "London"})
	require.NoError(t, err)
	require.Equal(t, "rainy in London!", result)
}

func TestFlowConditionalBranching(t *testing.T) {
	net := weatherNetwork("It's rainy today")
	f := New(net).
		Ask("weather", "weather in {city}").
		IfContains("rain").
		Ask("activities", "indoor activities").
		ElseBranch().
		Ask("activities", "outdoor activities").
		EndIf()

	result, err := f.Run(context.Background(), Context{"city": "London"})
	require.NoError(t, err)
	require.Contains(t, result, "indoor")
}

func TestFlowConditionalElseBranch(t *testing.T) {
	net := weatherNetwork("It's sunny today")
	f := New(net).
		Ask("weather", "weather in {city}").
		IfContains("rain").
		Ask("activities", "indoor activities").
		ElseBranch().
		Func(func(ctx context.Context, fctx Context) (any, error) { return "outdoor chosen", nil }).
		EndIf()

	result, err := f.Run(context.Background(), Context{"city": "Paris"})
	require.NoError(t, err)
	require.Equal(t, "outdoor chosen", result)
}

func TestFlowParallelMergeConcat(t *testing.T) {
	net := weatherNetwork("sunny")
	f := New(net).Parallel(0, Concat(" | "),
		func(sub *Flow) { sub.Func(func(ctx context.Context, fctx Context) (any, error) { return "a", nil }) },
		func(sub *Flow) { sub.Func(func(ctx context.Context, fctx Context) (any, error) { return "b", nil }) },
		func(sub *Flow) { sub.Func(func(ctx context.Context, fctx Context) (any, error) { return "c", nil }) },
	)

	result, err := f.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "a | b | c", result)
}

func TestFlowParallelPreservesDeclarationOrder(t *testing.T) {
	net := weatherNetwork("sunny")
	f := New(net).Parallel(0, List(),
		func(sub *Flow) { sub.Func(func(ctx context.Context, fctx Context) (any, error) { return 1, nil }) },
		func(sub *Flow) { sub.Func(func(ctx context.Context, fctx Context) (any, error) { return 2, nil }) },
	)

	result, err := f.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{1, 2}, result)
}

func TestFlowAbortsOnStepFailure(t *testing.T) {
	net := weatherNetwork("sunny")
	f := New(net).Func(func(ctx context.Context, fctx Context) (any, error) {
		return nil, errors.New("boom")
	})
	_, err := f.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestFlowOnErrorSubstitutesValue(t *testing.T) {
	net := weatherNetwork("sunny")
	f := New(net, WithErrorHandler(func(err error) (any, bool) { return "fallback", true })).
		Func(func(ctx context.Context, fctx Context) (any, error) { return nil, errors.New("boom") })

	result, err := f.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "fallback", result)
}
