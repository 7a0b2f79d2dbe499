// Package server implements the A2A agent HTTP endpoint: agent-card
// discovery, task send, and SSE task streaming, dispatched over gin.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/task"
)

// Agent serves one agent's A2A endpoint over HTTP, with the same route set
// mirrored under /a2a for compatibility.
type Agent struct {
	card    a2a.AgentCard
	handler agent.Handler
	engine  *task.Engine
	taskCfg task.Config
	log     *slog.Logger
	origins []string
	router  *gin.Engine
}

type config struct {
	taskCfg       task.Config
	metrics       *task.Metrics
	logger        *slog.Logger
	origins       []string
	streamHandler agent.StreamHandler
}

// Option customizes Agent construction.
type Option func(*config)

func WithTaskConfig(cfg task.Config) Option { return func(c *config) { c.taskCfg = cfg } }
func WithMetrics(m *task.Metrics) Option    { return func(c *config) { c.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(c *config) { c.logger = l } }
func WithCORSOrigins(origins []string) Option {
	return func(c *config) { c.origins = origins }
}

// WithStreamHandler registers the streaming variant of handler; if handler
// already implements agent.StreamHandler this is implicit, but a caller may
// want to supply a different stream-capable value (e.g. a decorator).
func WithStreamHandler(h agent.StreamHandler) Option {
	return func(c *config) { c.streamHandler = h }
}

// NewAgent builds the HTTP endpoint for handler, describing itself with
// card. The card's URL is not validated against the bind address — callers
// own that wiring; the AgentCard is owned by the agent it describes, not by
// the server that happens to host it.
func NewAgent(card a2a.AgentCard, handler agent.Handler, opts ...Option) *Agent {
	cfg := &config{
		taskCfg: task.DefaultConfig(),
		logger:  slog.Default(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	engineOpts := []task.Option{task.WithConfig(cfg.taskCfg), task.WithLogger(cfg.logger)}
	if cfg.metrics != nil {
		engineOpts = append(engineOpts, task.WithMetrics(cfg.metrics))
	}
	if cfg.streamHandler != nil {
		engineOpts = append(engineOpts, task.WithStreamHandler(cfg.streamHandler))
	}

	a := &Agent{
		card:    card,
		handler: handler,
		engine:  task.New(handler, engineOpts...),
		taskCfg: cfg.taskCfg,
		log:     cfg.logger,
		origins: cfg.origins,
	}
	a.router = a.buildRouter()
	return a
}

func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Engine exposes the underlying task engine, e.g. for out-of-band
// Cancel(taskID) calls from an operator surface.
func (a *Agent) Engine() *task.Engine { return a.engine }

func (a *Agent) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: a.origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"*"},
	}))

	for _, base := range []string{"", "/a2a"} {
		r.GET(base+"/agent.json", a.handleCard)
		r.POST(base+"/", a.handleRoot)
		r.POST(base+"/tasks/send", a.handleSend)
		r.POST(base+"/tasks/stream", a.handleStream)
		r.POST(base+"/stream", a.handleStream)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (a *Agent) handleCard(c *gin.Context) {
	c.JSON(http.StatusOK, a.card)
}
