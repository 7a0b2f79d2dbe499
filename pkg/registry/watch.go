package registry

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// watchEvent is one message pushed to /registry/watch subscribers.
type watchEvent struct {
	Type string        `json:"type"` // register | unregister | prune
	URL  string        `json:"url"`
	Card *a2a.AgentCard `json:"card,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type watcher struct {
	conn *websocket.Conn
	send chan watchEvent
}

func (r *Registry) handleWatch(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("registry: websocket upgrade failed", "error", err)
		return
	}

	wt := &watcher{conn: conn, send: make(chan watchEvent, 16)}
	r.watchMu.Lock()
	if r.watchers == nil {
		r.watchers = make(map[*watcher]struct{})
	}
	r.watchers[wt] = struct{}{}
	r.watchMu.Unlock()

	go r.serveWatcher(wt)
}

func (r *Registry) serveWatcher(wt *watcher) {
	defer func() {
		r.watchMu.Lock()
		delete(r.watchers, wt)
		r.watchMu.Unlock()
		wt.conn.Close()
	}()

	// Drain inbound messages so the connection's read deadline logic
	// notices a closed client; the watch feed is send-only.
	go func() {
		for {
			if _, _, err := wt.conn.ReadMessage(); err != nil {
				close(wt.send)
				return
			}
		}
	}()

	for ev := range wt.send {
		if err := wt.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (r *Registry) broadcast(ev watchEvent) {
	r.watchMu.RLock()
	defer r.watchMu.RUnlock()
	for wt := range r.watchers {
		select {
		case wt.send <- ev:
		default: // slow subscriber, drop rather than block the registry
		}
	}
}

func (r *Registry) closeWatchers() {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	for wt := range r.watchers {
		wt.conn.Close()
	}
	r.watchers = nil
}
