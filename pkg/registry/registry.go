// Package registry implements the discovery registry: a map from agent URL
// to (AgentCard, last_seen), an HTTP surface to register/unregister/
// heartbeat/list, and a background pruner for stale entries, served over a
// stdlib ServeMux wrapped in rs/cors, with a robfig/cron scheduler driving
// the pruner.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

const (
	DefaultMaxAge = 300 * time.Second
)

type entry struct {
	card     a2a.AgentCard
	lastSeen time.Time
}

// Registry holds the registered-agent state and serves the discovery HTTP
// endpoints.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	maxAge time.Duration
	log    *slog.Logger

	scheduler *cronlib.Cron
	sizeGauge prometheus.Gauge

	mux *http.ServeMux

	watchMu  sync.RWMutex
	watchers map[*watcher]struct{}
}

// Option customizes Registry construction.
type Option func(*Registry)

func WithMaxAge(d time.Duration) Option  { return func(r *Registry) { r.maxAge = d } }
func WithLogger(l *slog.Logger) Option   { return func(r *Registry) { r.log = l } }
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Registry) {
		r.sizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "a2a",
			Subsystem: "registry",
			Name:      "agents",
			Help:      "Number of agents currently registered.",
		})
		reg.MustRegister(r.sizeGauge)
	}
}

// New builds a Registry and starts its background pruner. Call Close to
// stop the pruner.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		maxAge:  DefaultMaxAge,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.scheduler = cronlib.New()
	period := r.maxAge / 3
	if period < time.Second {
		period = time.Second
	}
	_, err := r.scheduler.AddFunc(fmt.Sprintf("@every %s", period), r.prune)
	if err != nil {
		r.log.Error("registry: failed to schedule pruner", "error", err)
	}
	r.scheduler.Start()

	r.mux = http.NewServeMux()
	r.mux.HandleFunc("/registry/register", r.handleRegister)
	r.mux.HandleFunc("/registry/unregister", r.handleUnregister)
	r.mux.HandleFunc("/registry/heartbeat", r.handleHeartbeat)
	r.mux.HandleFunc("/registry/agents", r.handleAgents)
	r.mux.HandleFunc("/registry/watch", r.handleWatch)
	r.mux.HandleFunc("/agent.json", r.handleSelfCard)
	r.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// Handler returns the CORS-wrapped HTTP handler to serve.
func (r *Registry) Handler(allowOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowCredentials: false,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	return c.Handler(r.mux)
}

// Close stops the background pruner.
func (r *Registry) Close() {
	r.scheduler.Stop()
	r.closeWatchers()
}

func (r *Registry) updateGauge() {
	if r.sizeGauge == nil {
		return
	}
	r.mu.RLock()
	n := len(r.entries)
	r.mu.RUnlock()
	r.sizeGauge.Set(float64(n))
}

// Register is idempotent: it replaces the card and updates last_seen.
func (r *Registry) Register(card a2a.AgentCard) {
	r.mu.Lock()
	r.entries[card.URL] = &entry{card: card, lastSeen: time.Now()}
	r.mu.Unlock()
	r.updateGauge()
	r.broadcast(watchEvent{Type: "register", URL: card.URL, Card: &card})
}

// Unregister removes url if present.
func (r *Registry) Unregister(url string) bool {
	r.mu.Lock()
	_, ok := r.entries[url]
	delete(r.entries, url)
	r.mu.Unlock()
	if ok {
		r.updateGauge()
		r.broadcast(watchEvent{Type: "unregister", URL: url})
	}
	return ok
}

// Heartbeat refreshes last_seen for a known url; unknown urls return false
// without an implicit register.
func (r *Registry) Heartbeat(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[url]
	if !ok {
		return false
	}
	e.lastSeen = time.Now()
	return true
}

// Agents returns every registered card.
func (r *Registry) Agents() []a2a.AgentCard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]a2a.AgentCard, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.card)
	}
	return out
}

func (r *Registry) prune() {
	cutoff := time.Now().Add(-r.maxAge)
	var pruned []string
	r.mu.Lock()
	for url, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			pruned = append(pruned, url)
			delete(r.entries, url)
		}
	}
	r.mu.Unlock()
	if len(pruned) > 0 {
		r.updateGauge()
		for _, url := range pruned {
			r.log.Info("registry: pruned stale agent", "url", url)
			r.broadcast(watchEvent{Type: "prune", URL: url})
		}
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

func (r *Registry) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var card a2a.AgentCard
	if err := json.NewDecoder(req.Body).Decode(&card); err != nil || card.URL == "" {
		http.Error(w, "invalid agent card", http.StatusBadRequest)
		return
	}
	r.Register(card)
	writeJSON(w, successResponse{Success: true})
}

type urlRequest struct {
	URL string `json:"url"`
}

func (r *Registry) handleUnregister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body urlRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ok := r.Unregister(body.URL)
	writeJSON(w, successResponse{Success: ok})
}

func (r *Registry) handleHeartbeat(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body urlRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ok := r.Heartbeat(body.URL)
	writeJSON(w, successResponse{Success: ok})
}

func (r *Registry) handleAgents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, r.Agents())
}

// handleSelfCard advertises the registry's own card, with
// capabilities.agent_discovery=true and registry=true.
func (r *Registry) handleSelfCard(w http.ResponseWriter, req *http.Request) {
	card := a2a.AgentCard{
		Name:    "a2a-registry",
		Version: "1.0.0",
		Capabilities: map[string]bool{
			a2a.CapabilityAgentDiscovery: true,
			a2a.CapabilityRegistry:       true,
		},
	}
	writeJSON(w, card)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
