// Package task implements the server-side task-execution engine: lifecycle
// management, artifact accumulation, and streaming snapshot fan-out over an
// abstract sink (pkg/server adapts the sink to Server-Sent Events).
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
)

// Config tunes the engine's streaming timing knobs.
type Config struct {
	// InitialSnapshotBudget bounds how long the engine takes to emit a
	// first snapshot after a streaming session starts.
	InitialSnapshotBudget time.Duration
	// KeepAliveInterval is how often pkg/server should write a keep-alive
	// comment when no snapshot has been produced.
	KeepAliveInterval time.Duration
	// HardTimeout is the absolute ceiling on a streaming session.
	HardTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialSnapshotBudget: time.Second,
		KeepAliveInterval:     15 * time.Second,
		HardTimeout:           60 * time.Second,
	}
}

// running tracks an in-flight task so Cancel can reach it.
type running struct {
	cancel context.CancelFunc
}

// Engine executes a single agent's handler against tasks it owns. The
// engine never calls the handler while holding its lock.
type Engine struct {
	handler       agent.Handler
	streamHandler agent.StreamHandler
	cfg           Config
	metrics       *Metrics
	log           *slog.Logger

	mu      sync.RWMutex
	tasks   map[string]*a2a.Task
	inFlight map[string]*running
}

// Option customizes Engine construction.
type Option func(*Engine)

func WithConfig(cfg Config) Option { return func(e *Engine) { e.cfg = cfg } }

func WithStreamHandler(h agent.StreamHandler) Option {
	return func(e *Engine) { e.streamHandler = h }
}

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// New creates an Engine bound to handler. If handler also implements
// agent.StreamHandler, streaming tasks use it directly; otherwise the
// engine auto-wraps Handle into a single terminal snapshot (SPEC_FULL.md
// open-question pin).
func New(handler agent.Handler, opts ...Option) *Engine {
	e := &Engine{
		handler:  handler,
		cfg:      DefaultConfig(),
		tasks:    make(map[string]*a2a.Task),
		inFlight: make(map[string]*running),
		log:      slog.Default(),
	}
	if sh, ok := handler.(agent.StreamHandler); ok {
		e.streamHandler = sh
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get returns a previously created task by id, returning ok=false rather
// than inventing a task for an id that was never submitted.
func (e *Engine) Get(id string) (*a2a.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tasks[id]
	return t, ok
}

func (e *Engine) store(t *a2a.Task) {
	e.mu.Lock()
	e.tasks[t.ID] = t
	e.mu.Unlock()
}

// Submit creates a new task from msg and runs it to completion
// synchronously: the non-streaming `Handle(task) -> task` contract.
func (e *Engine) Submit(ctx context.Context, msg a2a.Message) (*a2a.Task, error) {
	t := a2a.NewTask(msg)
	return e.Run(ctx, t)
}

// Run executes an existing task (e.g. one decoded from a wire Task body)
// to completion. The handler may mutate status/artifacts/history but must
// not change ID; the engine transitions a non-terminal result to
// "completed" implicitly and never retries.
func (e *Engine) Run(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	if t.Status.State == "" {
		t.Status = a2a.NewTaskStatus(a2a.TaskSubmitted)
	}
	e.store(t)

	runCtx, cancel := context.WithCancel(ctx)
	e.track(t.ID, cancel)
	defer e.untrack(t.ID)

	id := t.ID
	result, err := e.handler.HandleTask(runCtx, t)
	if err != nil {
		return e.fail(t, err), nil
	}
	if result.ID != id {
		return nil, a2a.NewError(a2a.KindValidation, "handler changed task id from %q to %q", id, result.ID)
	}
	if !result.Status.State.Terminal() {
		result.Status = a2a.NewTaskStatus(a2a.TaskCompleted)
	}
	e.countTransition(result.Status.State)
	e.store(result)
	return result, nil
}

// Cancel requests cooperative cancellation of a running task. The handler
// observes ctx.Done() and is responsible for transitioning to "canceled";
// the engine only signals it.
func (e *Engine) Cancel(taskID string) bool {
	e.mu.Lock()
	r, ok := e.inFlight[taskID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	r.cancel()
	return true
}

func (e *Engine) track(id string, cancel context.CancelFunc) {
	e.mu.Lock()
	e.inFlight[id] = &running{cancel: cancel}
	e.mu.Unlock()
}

func (e *Engine) untrack(id string) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}

// fail turns a handler error into a failed task whose status message
// records the error kind and human-readable message; no artifact is
// fabricated here (pkg/server synthesizes a display artifact at the HTTP
// boundary).
func (e *Engine) fail(t *a2a.Task, err error) *a2a.Task {
	kind := a2a.KindResponse
	if ae, ok := err.(*a2a.Error); ok {
		kind = ae.Kind
	}
	status := a2a.NewTaskStatus(a2a.TaskFailed)
	msg := a2a.NewMessage(a2a.RoleAgent, a2a.ErrorContent(string(kind)+": "+err.Error()))
	status.Message = &msg
	t.Status = status
	e.log.Error("task handler failed", "task_id", t.ID, "kind", kind, "error", err)
	e.countTransition(a2a.TaskFailed)
	e.store(t)
	return t
}

func (e *Engine) countTransition(s a2a.TaskState) {
	if e.metrics != nil {
		e.metrics.ObserveTransition(s)
	}
}
