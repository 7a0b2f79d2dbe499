// Package workflow implements a flow DSL: a tree of Query/AutoRoute/
// Function/Conditional/Parallel steps executed over a shared context,
// built with an ask/if_contains/else_branch/end_if chain and a
// sync.WaitGroup fan-out for the parallel step.
package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/agent-protocol/a2a-go/pkg/network"
	"github.com/agent-protocol/a2a-go/pkg/router"
)

// Context is the string-keyed dictionary threaded through a flow run.
// "_last" always holds the most recent step's value.
type Context map[string]any

// Clone returns an independent copy for parallel-branch forking.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c Context) last() string {
	if v, ok := c["_last"]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// MergeStrategy combines the ordered results of a Parallel step's branches.
type MergeStrategy func(results []any) any

// Concat joins string-formatted results with sep, default "\n\n".
func Concat(sep string) MergeStrategy {
	return func(results []any) any {
		parts := make([]string, len(results))
		for i, r := range results {
			parts[i] = fmt.Sprint(r)
		}
		return strings.Join(parts, sep)
	}
}

// List collects every branch's result, in declaration order.
func List() MergeStrategy {
	return func(results []any) any { return results }
}

// step is the internal node type; Flow exposes builder methods, not this.
type step interface {
	run(ctx context.Context, fctx Context) (any, error)
}

// Flow is a sequential list of steps built via the chaining methods below.
type Flow struct {
	net     *network.Network
	router  *router.Router
	steps   []step
	onError func(err error) (any, bool) // substitute value, true to swallow

	// conditional-builder state, active between If*/EndIf
	pendingCond *conditionalStep
	condStack   []*conditionalStep
}

// New builds an empty flow bound to net for Query/AutoRoute steps.
func New(net *network.Network, opts ...Option) *Flow {
	f := &Flow{net: net}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option customizes Flow construction.
type Option func(*Flow)

// WithRouter enables AutoRoute steps.
func WithRouter(r *router.Router) Option { return func(f *Flow) { f.router = r } }

// WithErrorHandler installs a flow-wide on_error hook: if it returns
// (value, true), the failing step's error is swallowed and value used as
// its result; otherwise the flow aborts and the error propagates.
func WithErrorHandler(h func(err error) (any, bool)) Option {
	return func(f *Flow) { f.onError = h }
}

func substitute(template string, fctx Context) string {
	var b strings.Builder
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			if end := strings.IndexByte(template[i:], '}'); end >= 0 {
				key := template[i+1 : i+end]
				if v, ok := fctx[key]; ok {
					b.WriteString(fmt.Sprint(v))
					i += end + 1
					continue
				}
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}

func runQuery(ctx context.Context, fctx Context, net *network.Network, agentName, template, storeKey string) (any, error) {
	a, ok := net.Get(agentName)
	if !ok {
		return nil, fmt.Errorf("workflow: agent %q not found in network", agentName)
	}
	prompt := substitute(template, fctx)
	result, err := a.Ask(ctx, prompt)
	if err != nil {
		return nil, err
	}
	fctx["_last"] = result
	if storeKey != "" {
		fctx[storeKey] = result
	}
	return result, nil
}

// Ask appends a Query step: substitutes {var} placeholders in template from
// the context, calls agent, and stores the result under storeKey (if
// non-empty) and always under "_last".
func (f *Flow) Ask(agentName, template string, storeKey ...string) *Flow {
	key := ""
	if len(storeKey) > 0 {
		key = storeKey[0]
	}
	f.append(&boundQueryStep{net: f.net, agent: agentName, template: template, storeKey: key})
	return f
}

type boundQueryStep struct {
	net      *network.Network
	agent    string
	template string
	storeKey string
}

func (s *boundQueryStep) run(ctx context.Context, fctx Context) (any, error) {
	return runQuery(ctx, fctx, s.net, s.agent, s.template, s.storeKey)
}

type autoRouteStep struct {
	net      *network.Network
	router   *router.Router
	template string
	storeKey string
}

func (s *autoRouteStep) run(ctx context.Context, fctx Context) (any, error) {
	query := substitute(s.template, fctx)
	result := s.router.Route(ctx, query)
	if result.AgentName == "" {
		return nil, fmt.Errorf("workflow: AutoRoute found no agent for query %q", query)
	}
	return runQuery(ctx, fctx, s.net, result.AgentName, s.template, s.storeKey)
}

// AutoRoute appends a step that picks an agent via the flow's router, then
// runs a Query against it. Requires WithRouter at construction.
func (f *Flow) AutoRoute(template string, storeKey ...string) *Flow {
	key := ""
	if len(storeKey) > 0 {
		key = storeKey[0]
	}
	f.append(&autoRouteStep{net: f.net, router: f.router, template: template, storeKey: key})
	return f
}

type funcStep struct {
	fn       func(ctx context.Context, fctx Context) (any, error)
	storeKey string
}

func (s *funcStep) run(ctx context.Context, fctx Context) (any, error) {
	v, err := s.fn(ctx, fctx)
	if err != nil {
		return nil, err
	}
	fctx["_last"] = v
	if s.storeKey != "" {
		fctx[s.storeKey] = v
	}
	return v, nil
}

// Func appends an in-process step that computes a value from the context.
func (f *Flow) Func(fn func(ctx context.Context, fctx Context) (any, error), storeKey ...string) *Flow {
	key := ""
	if len(storeKey) > 0 {
		key = storeKey[0]
	}
	f.append(&funcStep{fn: fn, storeKey: key})
	return f
}

// append adds s either to the active conditional branch or to the flow's
// top-level sequence.
func (f *Flow) append(s step) {
	if f.pendingCond != nil {
		f.pendingCond.appendCurrent(s)
		return
	}
	f.steps = append(f.steps, s)
}

// Run executes the flow's steps in order against a fresh context (or a
// supplied one), returning the final step's value ("_last").
func (f *Flow) Run(ctx context.Context, initial Context) (any, error) {
	if initial == nil {
		initial = Context{}
	}
	var last any = ""
	if v, ok := initial["_last"]; ok {
		last = v
	}
	for _, s := range f.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		v, err := s.run(ctx, initial)
		if err != nil {
			if f.onError != nil {
				if sub, ok := f.onError(err); ok {
					v = sub
					initial["_last"] = v
				} else {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		last = v
	}
	return last, nil
}

// RunText is a convenience wrapper returning the string form of Run's
// result.
func (f *Flow) RunText(ctx context.Context, initial Context) (string, error) {
	v, err := f.Run(ctx, initial)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// conditionalStep implements the if_contains(s).ask(...).else_branch()....end_if()
// builder chain.
type conditionalStep struct {
	predicate func(fctx Context) bool
	thenSteps []step
	elseSteps []step
	inElse    bool
}

func (s *conditionalStep) appendCurrent(st step) {
	if s.inElse {
		s.elseSteps = append(s.elseSteps, st)
	} else {
		s.thenSteps = append(s.thenSteps, st)
	}
}

func (s *conditionalStep) run(ctx context.Context, fctx Context) (any, error) {
	branch := s.thenSteps
	if !s.predicate(fctx) {
		branch = s.elseSteps
	}
	last := fctx["_last"]
	for _, st := range branch {
		v, err := st.run(ctx, fctx)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// IfContains opens a conditional branch: the predicate tests whether the
// current value ("_last") contains substr (case-insensitive).
func (f *Flow) IfContains(substr string) *Flow {
	return f.If(func(fctx Context) bool {
		return strings.Contains(strings.ToLower(fctx.last()), strings.ToLower(substr))
	})
}

// IfMatches opens a conditional branch using a regular expression against
// the current value.
func (f *Flow) IfMatches(pattern string) *Flow {
	re := regexp.MustCompile(pattern)
	return f.If(func(fctx Context) bool { return re.MatchString(fctx.last()) })
}

// If opens a conditional branch with an arbitrary predicate over the
// context.
func (f *Flow) If(predicate func(fctx Context) bool) *Flow {
	cond := &conditionalStep{predicate: predicate}
	if f.pendingCond != nil {
		f.condStack = append(f.condStack, f.pendingCond)
	}
	f.pendingCond = cond
	return f
}

// ElseBranch switches the active conditional to populate its else-branch.
func (f *Flow) ElseBranch() *Flow {
	if f.pendingCond != nil {
		f.pendingCond.inElse = true
	}
	return f
}

// EndIf closes the active conditional, appending it to the enclosing
// sequence (or the parent conditional, if nested).
func (f *Flow) EndIf() *Flow {
	if f.pendingCond == nil {
		return f
	}
	done := f.pendingCond
	if n := len(f.condStack); n > 0 {
		f.pendingCond = f.condStack[n-1]
		f.condStack = f.condStack[:n-1]
		f.pendingCond.appendCurrent(done)
	} else {
		f.pendingCond = nil
		f.steps = append(f.steps, done)
	}
	return f
}

// branch is one sub-flow of a Parallel step.
type branch struct {
	name string
	flow *Flow
}

type parallelStep struct {
	branches []branch
	merge    MergeStrategy
	limit    int
}

func (s *parallelStep) run(ctx context.Context, fctx Context) (any, error) {
	n := len(s.branches)
	results := make([]any, n)
	errs := make([]error, n)

	limit := s.limit
	if limit <= 0 || limit > n {
		limit = n
	}
	sem := make(chan struct{}, limit)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i, b := range s.branches {
		wg.Add(1)
		go func(i int, b branch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			branchCtx := fctx.Clone()
			v, err := b.flow.Run(runCtx, branchCtx)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = v
		}(i, b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	merge := s.merge
	if merge == nil {
		merge = Concat("\n\n")
	}
	merged := merge(results)
	fctx["_last"] = merged
	return merged, nil
}

// Parallel appends a step running each sub-flow concurrently, merging
// their ordered results with merge (default Concat("\n\n")). limit caps
// in-flight branches; 0 means unbounded. Callers fanning out over large
// branch counts should pass a cap (e.g. 16) to avoid runaway concurrency.
func (f *Flow) Parallel(limit int, merge MergeStrategy, branches ...func(sub *Flow)) *Flow {
	bs := make([]branch, len(branches))
	for i, build := range branches {
		sub := New(f.net, WithRouter(f.router))
		build(sub)
		bs[i] = branch{flow: sub}
	}
	f.append(&parallelStep{branches: bs, merge: merge, limit: limit})
	return f
}
