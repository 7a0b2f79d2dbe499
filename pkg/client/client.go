// Package client implements the HTTP side of the A2A wire protocol: agent
// card probing, the naked message/task paths, and SSE streaming consumption.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// Config controls transport behavior. Zero value is usable; DefaultConfig
// fills in conventional defaults.
type Config struct {
	Timeout     time.Duration
	HTTPClient  *http.Client
	BaseURL     string
	Headers     map[string]string
	ProbeBudget time.Duration // agent-card probing timeout
	IdleTimeout time.Duration // SSE read idle timeout
}

// DefaultConfig returns conventional defaults, with probe and idle timeouts
// set for the streaming and discovery paths.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     600 * time.Second,
		Headers:     make(map[string]string),
		ProbeBudget: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// Client talks to a single remote A2A agent endpoint.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	baseURL    string

	card       *a2a.AgentCard
	cardProbed bool
	usedParts  bool
}

// New constructs a Client bound to baseURL. The agent card is not fetched
// until first needed (Probe, or implicitly by StreamResponse/Ask when
// capability-dependent behavior is requested).
func New(baseURL string, cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Probe resolves the agent card via GET /agent.json, falling back to
// /a2a/agent.json, within cfg.ProbeBudget. A failure to resolve a card is
// not an error: the client continues in "no card" mode.
func (c *Client) Probe(ctx context.Context) *a2a.AgentCard {
	if c.cardProbed {
		return c.card
	}
	c.cardProbed = true

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeBudget)
	defer cancel()

	for _, path := range []string{"/agent.json", "/a2a/agent.json"} {
		card, err := c.fetchCard(ctx, path)
		if err == nil {
			c.card = card
			c.usedParts = card.PrefersPartsArray()
			return c.card
		}
	}
	return nil
}

func (c *Client) fetchCard(ctx context.Context, relPath string) (*a2a.AgentCard, error) {
	full, err := url.JoinPath(c.baseURL, relPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, a2a.ConnectionError(full, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, a2a.ResponseError(full, "agent card probe returned HTTP %d", resp.StatusCode)
	}
	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, a2a.ResponseError(full, "agent card decode failed: %v", err)
	}
	return &card, nil
}

// Ask wraps text in a user message, sends it as a task, and returns the
// concatenated text of the first artifact's text parts.
func (c *Client) Ask(ctx context.Context, text string) (string, error) {
	c.Probe(ctx)
	t := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, text))
	result, err := c.SendTask(ctx, t)
	if err != nil {
		return "", err
	}
	if len(result.Artifacts) > 0 {
		if s := result.Artifacts[0].Text(); s != "" {
			return s, nil
		}
	}
	if result.Status.State.Terminal() {
		return "", a2a.ResponseError(c.baseURL, "task %s completed with no text artifact", result.ID)
	}
	return "", a2a.ResponseError(c.baseURL, "task %s produced no text artifact and is not terminal (state=%s)", result.ID, result.Status.State)
}

// SendMessage posts a naked message to / and decodes the agent's reply
// message (the legacy non-task, message-only path).
func (c *Client) SendMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	data, err := a2a.EncodeMessage(msg, c.usedParts)
	if err != nil {
		return a2a.Message{}, err
	}
	body, err := c.post(ctx, "/", `{"message":`+string(data)+`}`)
	if err != nil {
		return a2a.Message{}, err
	}
	return a2a.DecodeMessage(body)
}

// SendTask posts t to /tasks/send and returns the updated task.
func (c *Client) SendTask(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	data, err := a2a.EncodeTask(t, c.usedParts)
	if err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "/tasks/send", string(data))
	if err != nil {
		return nil, err
	}
	result, _, err := a2a.DecodeTask(body)
	return result, err
}

func (c *Client) post(ctx context.Context, path string, body string) ([]byte, error) {
	full, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, full, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, a2a.ConnectionError(full, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, a2a.ResponseError(full, "failed reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, a2a.ResponseError(full, "HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Chunk is one element of a StreamResponse sequence: either free text
// (server emitted a pure text delta) or a task snapshot.
type Chunk struct {
	Text string
	Task *a2a.Task
	Err  error
}

// StreamResponse posts t to /tasks/stream and returns a channel of Chunks
// parsed from the SSE response, closed when the stream ends. It tolerates
// partial reads, CRLF line endings, multi-line data fields, `:`-comments,
// and applies cfg.IdleTimeout as a silent-stream guard.
func (c *Client) StreamResponse(ctx context.Context, t *a2a.Task) (<-chan Chunk, error) {
	c.Probe(ctx)
	data, err := a2a.EncodeTask(t, c.usedParts)
	if err != nil {
		return nil, err
	}
	full, err := url.JoinPath(c.baseURL, "/tasks/stream")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, full, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, a2a.ConnectionError(full, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, a2a.ResponseError(full, "HTTP %d: %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		defer resp.Body.Close()
		return nil, a2a.ResponseError(full, "expected text/event-stream, got %q", ct)
	}

	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		if err := streamSSE(ctx, resp.Body, c.cfg.IdleTimeout, out); err != nil {
			select {
			case out <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// sseFrame is one accumulated SSE event: a (possibly multi-line) data field
// plus an optional event type.
type sseFrame struct {
	event string
	data  string
}

func streamSSE(ctx context.Context, body io.Reader, idleTimeout time.Duration, out chan<- Chunk) error {
	type readResult struct {
		buf []byte
		n   int
		err error
	}
	reads := make(chan readResult, 1)
	readLoop := func() {
		buf := make([]byte, 4096)
		n, err := body.Read(buf)
		reads <- readResult{buf: buf, n: n, err: err}
	}

	var lineBuf strings.Builder
	var frame sseFrame
	var haveData bool

	flushFrame := func() error {
		if !haveData {
			return nil
		}
		haveData = false
		data := frame.data
		frame = sseFrame{}
		if data == "" {
			return nil
		}
		if t, _, err := a2a.DecodeTask([]byte(data)); err == nil && t != nil {
			select {
			case out <- Chunk{Task: t}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		var text struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(data), &text); err == nil && text.Text != "" {
			select {
			case out <- Chunk{Text: text.Text}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		select {
		case out <- Chunk{Text: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	processLine := func(line string) error {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case line == "":
			return flushFrame()
		case strings.HasPrefix(line, ":"):
			return nil // comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			frame.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			if frame.event == "error" {
				haveData = true
			}
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(line, "data:")
			chunk = strings.TrimPrefix(chunk, " ")
			if haveData {
				frame.data += "\n" + chunk
			} else {
				frame.data = chunk
			}
			haveData = true
		}
		return nil
	}

	go readLoop()
	for {
		var timer *time.Timer
		var timeoutCh <-chan time.Time
		if idleTimeout > 0 {
			timer = time.NewTimer(idleTimeout)
			timeoutCh = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-timeoutCh:
			return a2a.NewError(a2a.KindConnection, "SSE stream idle for longer than %s", idleTimeout)
		case r := <-reads:
			if timer != nil {
				timer.Stop()
			}
			if r.n > 0 {
				lineBuf.Write(r.buf[:r.n])
				content := lineBuf.String()
				lines := strings.Split(content, "\n")
				complete := lines[:len(lines)-1]
				remainder := lines[len(lines)-1]
				lineBuf.Reset()
				lineBuf.WriteString(remainder)
				for _, ln := range complete {
					if err := processLine(ln); err != nil {
						return err
					}
				}
			}
			if r.err != nil {
				if r.err == io.EOF {
					if rest := lineBuf.String(); rest != "" {
						_ = processLine(rest)
					}
					return flushFrame()
				}
				return a2a.WrapError(a2a.KindConnection, r.err, "SSE stream read failed")
			}
			go readLoop()
		}
	}
}
