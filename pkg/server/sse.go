package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/task"
)

// writeSSE drains sess, rendering each event as `event: update`, one
// terminal `event: complete` or `event: error`, and keep-alive comments
// when the handler is quiet.
func (a *Agent) writeSSE(c *gin.Context, sess *task.Session, usedParts bool, rpcID any) {
	w := c.Writer
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	flush := func() {
		if canFlush {
			flusher.Flush()
		}
	}

	fmt.Fprint(w, ": channel established\n\n")
	flush()

	keepAlive := time.NewTicker(a.taskCfg.KeepAliveInterval)
	defer keepAlive.Stop()
	hardTimeout := time.NewTimer(a.taskCfg.HardTimeout)
	defer hardTimeout.Stop()

	for {
		select {
		case ev, ok := <-sess.Events:
			if !ok {
				return
			}
			keepAlive.Reset(a.taskCfg.KeepAliveInterval)
			writeSSEEvent(w, ev, usedParts, rpcID)
			flush()
			if ev.Kind == task.EventComplete || ev.Kind == task.EventError {
				return
			}
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flush()
		case <-hardTimeout.C:
			sess.Cancel()
			writeSSEEvent(w, task.StreamEvent{
				Kind: task.EventError,
				Err:  a2a.NewError(a2a.KindResponse, "stream exceeded hard timeout of %s", a.taskCfg.HardTimeout),
			}, usedParts, rpcID)
			flush()
			return
		case <-c.Request.Context().Done():
			sess.Cancel()
			return
		}
	}
}

func writeSSEEvent(w interface{ Write([]byte) (int, error) }, ev task.StreamEvent, usedParts bool, rpcID any) {
	name := "update"
	switch ev.Kind {
	case task.EventComplete:
		name = "complete"
	case task.EventError:
		name = "error"
	}

	var payload []byte
	switch {
	case ev.Task != nil:
		data, err := a2a.EncodeTask(ev.Task, usedParts)
		if err != nil {
			data, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		if rpcID != nil {
			payload = wrapRPCResult(rpcID, data)
		} else {
			payload = data
		}
	case ev.Err != nil:
		payload, _ = json.Marshal(map[string]string{"error": ev.Err.Error()})
	default:
		payload = []byte(`{}`)
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}
