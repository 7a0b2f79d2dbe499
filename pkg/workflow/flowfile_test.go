package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFileSequentialAndConditional(t *testing.T) {
	net := weatherNetwork("It's rainy today")

	def := `{
		"initial": {"city": "London"},
		"steps": [
			{"kind": "ask", "agent": "weather", "template": "What's the weather in {city}?"},
			{"kind": "if_contains", "substr": "rainy",
				"then": [{"kind": "ask", "agent": "activities", "template": "suggest for {city}"}],
				"else": [{"kind": "ask", "agent": "activities", "template": "outdoor for {city}"}]}
		]
	}`
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(def), 0o644))

	f, initial, err := LoadFile(path, net)
	require.NoError(t, err)
	require.Equal(t, "London", initial["city"])

	result, err := f.RunText(context.Background(), initial)
	require.NoError(t, err)
	require.Contains(t, result, "museum")
}

func TestLoadFileParallel(t *testing.T) {
	net := weatherNetwork("sunny")

	def := `{
		"steps": [
			{"kind": "parallel", "merge": "concat", "sep": "|", "branches": [
				[{"kind": "ask", "agent": "weather", "template": "a"}],
				[{"kind": "ask", "agent": "activities", "template": "b"}]
			]}
		]
	}`
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(def), 0o644))

	f, initial, err := LoadFile(path, net)
	require.NoError(t, err)

	result, err := f.RunText(context.Background(), initial)
	require.NoError(t, err)
	require.Contains(t, result, "sunny")
	require.Contains(t, result, "museum")
}

func TestLoadFileUnknownKind(t *testing.T) {
	net := weatherNetwork("sunny")
	def := `{"steps": [{"kind": "bogus"}]}`
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(def), 0o644))

	_, _, err := LoadFile(path, net)
	require.Error(t, err)
}
