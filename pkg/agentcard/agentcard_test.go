package agentcard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

func TestBuilderSynthesizesCard(t *testing.T) {
	card := New("weather-agent", "http://localhost:8080", "1.0.0").
		Describe("Provides weather information").
		Capability(a2a.CapabilityStreaming).
		Skill(SkillSpec{ID: "current", Name: "Current Weather", Tags: []string{"weather"}}).
		Card()

	require.Equal(t, "weather-agent", card.Name)
	require.True(t, card.HasCapability(a2a.CapabilityStreaming))
	require.False(t, card.HasCapability(a2a.CapabilityPushNotifications))
	require.Len(t, card.Skills, 1)
	require.Equal(t, "current", card.Skills[0].ID)
}
