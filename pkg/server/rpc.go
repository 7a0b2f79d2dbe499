package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// dispatchRPC handles a JSON-RPC 2.0 envelope received on POST / (or
// /tasks/send). Other paths accept a naked task body as a convenience, but
// an explicit envelope is routed by method here.
func (a *Agent) dispatchRPC(c *gin.Context, body []byte) {
	var req a2a.RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(nil, &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeParseError, Message: "parse error"}))
		return
	}
	if req.JSONRPC != "2.0" {
		c.JSON(http.StatusBadRequest, a2a.RPCErrorResponse(req.ID, &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeInvalidRequest, Message: "invalid request"}))
		return
	}

	switch req.Method {
	case a2a.MethodTasksSend:
		t, usedParts, err := a2a.DecodeTask(req.Params)
		if err != nil {
			c.JSON(http.StatusOK, a2a.RPCErrorResponse(req.ID, &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeInvalidParams, Message: err.Error()}))
			return
		}
		result, err := a.engine.Run(c.Request.Context(), t)
		if err != nil {
			c.JSON(http.StatusOK, a2a.RPCErrorResponse(req.ID, err))
			return
		}
		ensureFailureArtifact(result)
		data, err := a2a.EncodeTask(result, usedParts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, a2a.RPCErrorResponse(req.ID, err))
			return
		}
		c.Data(http.StatusOK, "application/json", wrapRPCResult(req.ID, data))

	case a2a.MethodTasksSendSubscribe:
		t, usedParts, err := a2a.DecodeTask(req.Params)
		if err != nil {
			c.JSON(http.StatusOK, a2a.RPCErrorResponse(req.ID, &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeInvalidParams, Message: err.Error()}))
			return
		}
		sess := a.engine.Stream(c.Request.Context(), t)
		a.writeSSE(c, sess, usedParts, req.ID)

	default:
		c.JSON(http.StatusOK, a2a.RPCErrorResponse(req.ID, &a2a.Error{
			Kind: a2a.KindRequest, Code: a2a.CodeMethodNotFound, Message: "method not found",
		}))
	}
}

// wrapRPCResult builds {"jsonrpc":"2.0","id":...,"result":<data>} without a
// redundant marshal/unmarshal round trip of the already-encoded task.
func wrapRPCResult(id any, data json.RawMessage) []byte {
	idBytes, _ := json.Marshal(id)
	out := append([]byte(`{"jsonrpc":"2.0","id":`), idBytes...)
	out = append(out, []byte(`,"result":`)...)
	out = append(out, data...)
	out = append(out, '}')
	return out
}
