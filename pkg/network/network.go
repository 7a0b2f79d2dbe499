// Package network implements a named mapping from short agent names to
// remote endpoints or in-process handlers, with JSON persistence and an
// fsnotify-based file watcher for hot reload.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/client"
)

// Entry describes one network member, either a remote endpoint resolved
// over HTTP or an in-process handler wired directly.
type Entry struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`

	handler agent.Handler // non-nil for in-process members, never persisted
}

// Summary is the listing projection returned by List.
type Summary struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	SkillsCount int    `json:"skills_count,omitempty"`
}

// Network is a concurrency-safe registry of named agents, lazily resolving
// and caching agent cards for its remote members.
type Network struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	cards   map[string]*a2a.AgentCard
	cfg     *client.Config
	log     *slog.Logger

	watcher *fsnotify.Watcher
	watchCh chan struct{}
}

// Option customizes Network construction.
type Option func(*Network)

func WithClientConfig(cfg *client.Config) Option { return func(n *Network) { n.cfg = cfg } }
func WithLogger(l *slog.Logger) Option           { return func(n *Network) { n.log = l } }

// New builds an empty network.
func New(opts ...Option) *Network {
	n := &Network{
		entries: make(map[string]*Entry),
		cards:   make(map[string]*a2a.AgentCard),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Add registers name as a remote endpoint. A duplicate name replaces the
// prior entry and invalidates any cached card.
func (n *Network) Add(name, endpoint string, description ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	n.entries[name] = &Entry{Name: name, URL: endpoint, Description: desc}
	delete(n.cards, name)
}

// AddHandler registers name as an in-process handler, bypassing HTTP
// entirely; Get returns a client-shaped wrapper that dispatches locally.
func (n *Network) AddHandler(name string, h agent.Handler, description ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	desc := ""
	if len(description) > 0 {
		desc = description[0]
	}
	n.entries[name] = &Entry{Name: name, Description: desc, handler: h}
	delete(n.cards, name)
}

// Get resolves name to a callable agent. Remote entries return an HTTP
// client.Client; in-process entries return an inProcessAgent adapter.
func (n *Network) Get(name string) (Agent, bool) {
	n.mu.RLock()
	e, ok := n.entries[name]
	n.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.handler != nil {
		return inProcessAgent{e.handler}, true
	}
	return client.New(e.URL, n.cfg), true
}

// Agent is the minimal callable surface both client.Client and in-process
// handlers satisfy, the shape the router and workflow engine depend on.
type Agent interface {
	Ask(ctx context.Context, text string) (string, error)
}

type inProcessAgent struct{ h agent.Handler }

func (a inProcessAgent) Ask(ctx context.Context, text string) (string, error) {
	reply, err := a.h.HandleMessage(ctx, a2a.NewTextMessage(a2a.RoleUser, text))
	if err != nil {
		return "", err
	}
	return reply.Content.Text, nil
}

// List returns a stable-by-name summary of every registered member,
// fetching cards lazily for any remote member not yet cached.
func (n *Network) List(ctx context.Context) []Summary {
	n.mu.RLock()
	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	n.mu.RUnlock()
	sort.Strings(names)

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		n.mu.RLock()
		e := n.entries[name]
		n.mu.RUnlock()
		s := Summary{Name: e.Name, URL: e.URL, Description: e.Description}
		if card := n.Card(ctx, name); card != nil {
			s.SkillsCount = len(card.Skills)
			if s.Description == "" {
				s.Description = card.Description
			}
		}
		out = append(out, s)
	}
	return out
}

// Card returns the cached agent card for name, fetching it if unresolved.
// In-process members have no card; nil is returned for those and for
// unknown names.
func (n *Network) Card(ctx context.Context, name string) *a2a.AgentCard {
	n.mu.RLock()
	if c, ok := n.cards[name]; ok {
		n.mu.RUnlock()
		return c
	}
	e, ok := n.entries[name]
	n.mu.RUnlock()
	if !ok || e.handler != nil || e.URL == "" {
		return nil
	}

	c := client.New(e.URL, n.cfg)
	card := c.Probe(ctx)
	if card == nil {
		return nil
	}
	n.mu.Lock()
	n.cards[name] = card
	n.mu.Unlock()
	return card
}

// Refresh discards the cached card for name, forcing the next Card call to
// re-probe the remote endpoint.
func (n *Network) Refresh(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.cards, name)
}

// document is the JSON shape Save/Load persist, a plain list of remote
// entries; in-process handlers are never persisted.
type document struct {
	Agents []Entry `json:"agents"`
}

// Save writes the network's remote members to path as a JSON document.
func (n *Network) Save(path string) error {
	n.mu.RLock()
	doc := document{}
	for _, e := range n.entries {
		if e.handler != nil {
			continue
		}
		doc.Agents = append(doc.Agents, Entry{Name: e.Name, URL: e.URL, Description: e.Description})
	}
	n.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create network directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a JSON document written by Save and merges its entries,
// replacing any existing entry with the same name.
func (n *Network) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read network file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse network file: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range doc.Agents {
		entry := e
		n.entries[entry.Name] = &entry
		delete(n.cards, entry.Name)
	}
	return nil
}

// WatchFile reloads the network from path every time it changes on disk,
// logging failures rather than propagating them (a bad edit should not
// crash a running network). Call the returned stop function to cancel the
// watch and close its goroutine.
func (n *Network) WatchFile(ctx context.Context, path string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	base := filepath.Base(path)

	done := make(chan struct{})
	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case <-done:
				if debounce != nil {
					debounce.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(100*time.Millisecond, func() {
					if err := n.Load(path); err != nil {
						n.log.Warn("network file reload failed", "path", path, "error", err)
					} else {
						n.log.Info("network file reloaded", "path", path)
					}
				})
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				n.log.Warn("network file watcher error", "error", werr)
			}
		}
	}()

	return func() { close(done) }, nil
}
