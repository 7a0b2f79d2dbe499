package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// handleRoot dispatches POST / by content shape: JSON-RPC envelope, naked
// task, naked message, or raw text.
func (a *Agent) handleRoot(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, a2a.NewError(a2a.KindValidation, "failed to read request body: %v", err)))
		return
	}

	if a2a.IsRPCEnvelope(body) {
		a.dispatchRPC(c, body)
		return
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		// Not JSON at all: synthesize a user text message.
		a.replyMessage(c, a2a.NewTextMessage(a2a.RoleUser, string(body)))
		return
	}

	_, hasID := probe["id"]
	_, hasMessage := probe["message"]

	switch {
	case hasID && hasMessage:
		// handleSend reads the body itself; hand it back the bytes read above.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		a.handleSend(c)
	case hasMessage:
		msg, usedParts, err := decodeNakedMessage(probe["message"])
		if err != nil {
			c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, err))
			return
		}
		a.replyMessageForm(c, msg, usedParts)
	default:
		a.replyMessage(c, a2a.NewTextMessage(a2a.RoleUser, string(body)))
	}
}

func decodeNakedMessage(raw json.RawMessage) (a2a.Message, bool, error) {
	usedParts := messageLooksLikeParts(raw)
	msg, err := a2a.DecodeMessage(raw)
	return msg, usedParts, err
}

func messageLooksLikeParts(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasParts := probe["parts"]
	_, hasContent := probe["content"]
	return hasParts && !hasContent
}

func (a *Agent) replyMessage(c *gin.Context, msg a2a.Message) {
	a.replyMessageForm(c, msg, false)
}

func (a *Agent) replyMessageForm(c *gin.Context, msg a2a.Message, usedParts bool) {
	reply, err := a.handler.HandleMessage(c.Request.Context(), msg)
	if err != nil {
		c.JSON(http.StatusOK, a2a.NewMessage(a2a.RoleAgent, a2a.ErrorContent(err.Error())))
		return
	}
	data, err := a2a.EncodeMessage(reply, usedParts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, a2a.RPCErrorResponse(nil, err))
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// handleSend implements POST /tasks/send: a naked task or a JSON-RPC
// tasks/send envelope, returning the updated task.
func (a *Agent) handleSend(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, a2a.NewError(a2a.KindValidation, "failed to read request body: %v", err)))
		return
	}

	if a2a.IsRPCEnvelope(body) {
		a.dispatchRPC(c, body)
		return
	}

	t, usedParts, err := a2a.DecodeTask(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, err))
		return
	}

	result, err := a.engine.Run(c.Request.Context(), t)
	if err != nil {
		c.JSON(http.StatusInternalServerError, a2a.RPCErrorResponse(nil, err))
		return
	}
	ensureFailureArtifact(result)

	data, err := a2a.EncodeTask(result, usedParts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, a2a.RPCErrorResponse(nil, err))
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// handleStream implements POST /tasks/stream and /stream: a naked task or
// a JSON-RPC tasks/sendSubscribe envelope, replying with an SSE stream.
func (a *Agent) handleStream(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, a2a.NewError(a2a.KindValidation, "failed to read request body: %v", err)))
		return
	}

	var rpcID any
	taskBody := body
	if a2a.IsRPCEnvelope(body) {
		var req a2a.RPCRequest
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, a2a.NewError(a2a.KindValidation, "malformed JSON-RPC envelope: %v", err)))
			return
		}
		if req.Method != a2a.MethodTasksSendSubscribe {
			c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(req.ID, &a2a.Error{Kind: a2a.KindRequest, Code: a2a.CodeMethodNotFound, Message: "method not found"}))
			return
		}
		rpcID = req.ID
		taskBody = req.Params
	}

	t, usedParts, err := a2a.DecodeTask(taskBody)
	if err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(rpcID, err))
		return
	}

	sess := a.engine.Stream(c.Request.Context(), t)
	a.writeSSE(c, sess, usedParts, rpcID)
}

// ensureFailureArtifact backstops a failed task with no artifact: the task
// engine itself never fabricates one on failure, but the HTTP boundary does
// so callers always have something to render.
func ensureFailureArtifact(t *a2a.Task) {
	if t.Status.State != a2a.TaskFailed || len(t.Artifacts) > 0 {
		return
	}
	text := "task failed"
	if t.Status.Message != nil {
		switch t.Status.Message.Content.Type {
		case a2a.ContentError:
			text = t.Status.Message.Content.ErrorMessage
		case a2a.ContentText:
			text = t.Status.Message.Content.Text
		}
	}
	t.Artifacts = append(t.Artifacts, a2a.TextArtifact(text))
}
