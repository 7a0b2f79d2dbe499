package a2a

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	cases := []Message{
		NewTextMessage(RoleUser, "hello"),
		NewMessage(RoleAgent, FunctionCallContent("lookup", []FunctionParameter{{Name: "q", Value: "weather"}})),
		NewMessage(RoleAgent, FunctionResponseContent("lookup", map[string]any{"temp": 72.0})),
		NewMessage(RoleSystem, ErrorContent("boom")),
	}
	for _, m := range cases {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		got, err := DecodeMessage(data)
		require.NoError(t, err)
		if diff := cmp.Diff(m, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestMessageMissingIDIsGenerated(t *testing.T) {
	data := []byte(`{"role":"user","content":{"type":"text","text":"hi"}}`)
	m, err := DecodeMessage(data)
	require.NoError(t, err)
	require.NotEmpty(t, m.MessageID)
}

func TestMessageRoleCaseInsensitive(t *testing.T) {
	data := []byte(`{"message_id":"m1","role":"USER","content":{"type":"text","text":"hi"}}`)
	m, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, RoleUser, m.Role)
}

func TestMessageUnknownRoleFails(t *testing.T) {
	data := []byte(`{"role":"narrator","content":{"type":"text","text":"hi"}}`)
	_, err := DecodeMessage(data)
	require.Error(t, err)
	var a *Error
	require.ErrorAs(t, err, &a)
	require.Equal(t, KindValidation, a.Kind)
}

func TestUnknownContentTypeDecodesOpaque(t *testing.T) {
	data := []byte(`{"message_id":"m1","role":"agent","content":{"type":"thinking","steps":["a","b"]}}`)
	m, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, ContentOpaque, m.Content.Type)
	require.Equal(t, "thinking", m.Content.Raw["type"])

	// Re-encoding preserves the raw bytes.
	out, err := json.Marshal(m)
	require.NoError(t, err)
	m2, err := DecodeMessage(out)
	require.NoError(t, err)
	require.Equal(t, m.Content.Raw, m2.Content.Raw)
}

func TestObjectAndPartsFormsDecodeToSameMessage(t *testing.T) {
	m := NewTextMessage(RoleUser, "London weather")
	objForm, err := EncodeMessage(m, false)
	require.NoError(t, err)
	partsForm, err := EncodeMessage(m, true)
	require.NoError(t, err)

	viaObj, err := DecodeMessage(objForm)
	require.NoError(t, err)
	viaParts, err := DecodeMessage(partsForm)
	require.NoError(t, err)

	require.Equal(t, viaObj.Content, viaParts.Content)
	require.Equal(t, viaObj.Role, viaParts.Role)
}

func TestConversationInvariants(t *testing.T) {
	c := NewConversation("conv-1")
	m1 := NewTextMessage(RoleUser, "hi")
	require.NoError(t, c.AddMessage(m1))

	m2 := NewTextMessage(RoleAgent, "hello")
	m2.ParentMessageID = m1.MessageID
	require.NoError(t, c.AddMessage(m2))

	bad := NewTextMessage(RoleUser, "???")
	bad.ParentMessageID = "does-not-exist"
	require.Error(t, c.AddMessage(bad))

	mismatched := NewTextMessage(RoleUser, "other conv")
	mismatched.ConversationID = "conv-2"
	require.Error(t, c.AddMessage(mismatched))
}

func TestTaskArtifactAccumulation(t *testing.T) {
	task := NewTask(NewTextMessage(RoleUser, "count"))
	task.PutArtifact(Artifact{Index: 0, Parts: []Part{{Type: "text", Text: "1"}}, Append: false})
	task.PutArtifact(Artifact{Index: 0, Parts: []Part{{Type: "text", Text: "2"}}, Append: true})
	task.PutArtifact(Artifact{Index: 0, Parts: []Part{{Type: "text", Text: "3"}}, Append: true, LastUpdate: true})

	require.Len(t, task.Artifacts, 1)
	require.Equal(t, "123", task.Artifacts[0].Text())
	require.True(t, task.Artifacts[0].LastUpdate)
}

func TestMessageUnknownTopLevelFieldRoundTrips(t *testing.T) {
	data := []byte(`{"message_id":"m1","role":"user","content":{"type":"text","text":"hi"},"vendor_trace_id":"xyz-123"}`)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, "xyz-123", m.Extra["vendor_trace_id"])

	out, err := json.Marshal(m)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, "xyz-123", back["vendor_trace_id"])
}

func TestAgentCardUnknownTopLevelFieldRoundTrips(t *testing.T) {
	data := []byte(`{"name":"weather","url":"http://x","version":"1.0","capabilities":{},"skills":[],"x_vendor_region":"us-east"}`)
	var c AgentCard
	require.NoError(t, json.Unmarshal(data, &c))
	require.Equal(t, "us-east", c.Extra["x_vendor_region"])

	out, err := json.Marshal(c)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, "us-east", back["x_vendor_region"])
}

func TestTaskUnknownTopLevelFieldRoundTrips(t *testing.T) {
	data := []byte(`{"id":"t1","status":{"state":"submitted"},"artifacts":[],"x_custom_priority":5}`)
	task, _, err := DecodeTask(data)
	require.NoError(t, err)
	require.Equal(t, float64(5), task.Extra["x_custom_priority"])

	out, err := EncodeTask(task, false)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, float64(5), back["x_custom_priority"])
}

func TestTaskStateTerminal(t *testing.T) {
	require.True(t, TaskCompleted.Terminal())
	require.True(t, TaskCanceled.Terminal())
	require.True(t, TaskFailed.Terminal())
	require.False(t, TaskSubmitted.Terminal())
	require.False(t, TaskWaiting.Terminal())
	require.False(t, TaskInputRequired.Terminal())
	require.False(t, TaskUnknown.Terminal())
}
