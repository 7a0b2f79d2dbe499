// Package router selects the best agent in a network for a free-form
// query: an advisor proposes a name, falling back to keyword overlap when
// the advisor is absent, errs, or names nothing registered.
package router

import (
	"context"
	"regexp"
	"strings"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/network"
)

// Advisor is an opaque callable that produces text given a prompt, e.g. an
// LLM completion call. It has no other contract with this package.
type Advisor func(ctx context.Context, prompt string) (string, error)

// Result is a routing decision: the chosen agent and how confident the
// match was.
type Result struct {
	AgentName  string
	Confidence float64
}

// Router picks an agent from a network for a query.
type Router struct {
	net     *network.Network
	advisor Advisor
}

// New builds a Router over net. advisor may be nil, in which case routing
// always uses the keyword-overlap fallback.
func New(net *network.Network, advisor Advisor) *Router {
	return &Router{net: net, advisor: advisor}
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// candidateText builds the corpus a candidate agent is matched against:
// description + skills.tags + skills.examples.
func candidateText(summary string, card *a2a.AgentCard) string {
	var b strings.Builder
	b.WriteString(summary)
	if card == nil {
		return b.String()
	}
	b.WriteByte(' ')
	b.WriteString(card.Description)
	for _, sk := range card.Skills {
		for _, tag := range sk.Tags {
			b.WriteByte(' ')
			b.WriteString(tag)
		}
		for _, ex := range sk.Examples {
			b.WriteByte(' ')
			b.WriteString(ex)
		}
	}
	return b.String()
}

// Route selects the best agent in the router's network for query. It never
// errors: an unroutable query returns the lowest-confidence match, possibly
// {"", 0} for an empty network.
func (r *Router) Route(ctx context.Context, query string) Result {
	names := make([]string, 0)
	summaries := r.net.List(ctx)
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	if len(names) == 0 {
		return Result{}
	}

	if r.advisor != nil {
		if name, ok := r.matchAdvisor(ctx, query, names); ok {
			return Result{AgentName: name, Confidence: 1}
		}
	}

	return r.fallback(ctx, query, summaries)
}

// matchAdvisor asks the advisor to name one agent and parses its reply
// against the registered names: exact case-insensitive/trimmed match wins;
// if the reply mentions several registered names, the first one it names
// (by position in the reply) wins.
func (r *Router) matchAdvisor(ctx context.Context, query string, names []string) (string, bool) {
	prompt := buildAdvisorPrompt(query, names)
	reply, err := r.advisor(ctx, prompt)
	if err != nil {
		return "", false
	}
	reply = strings.TrimSpace(reply)

	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(reply), n) {
			return n, true
		}
	}

	lower := strings.ToLower(reply)
	bestName := ""
	bestPos := -1
	for _, n := range names {
		pos := strings.Index(lower, strings.ToLower(n))
		if pos < 0 {
			continue
		}
		if bestPos == -1 || pos < bestPos {
			bestPos = pos
			bestName = n
		}
	}
	if bestPos >= 0 {
		return bestName, true
	}
	return "", false
}

func buildAdvisorPrompt(query string, names []string) string {
	var b strings.Builder
	b.WriteString("Available agents:\n")
	for _, n := range names {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteByte('\n')
	}
	b.WriteString("\nQuery: ")
	b.WriteString(query)
	b.WriteString("\n\nReply with exactly one agent name.")
	return b.String()
}

func (r *Router) fallback(ctx context.Context, query string, summaries []network.Summary) Result {
	queryTokens := tokenize(query)

	best := Result{}
	for _, s := range summaries {
		card := r.net.Card(ctx, s.Name)
		text := candidateText(s.Description, card)
		score := jaccard(queryTokens, tokenize(text))
		if score > best.Confidence || best.AgentName == "" {
			best = Result{AgentName: s.Name, Confidence: score}
		}
	}
	return best
}
