package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// RegisterResult is one registry's outcome in a DiscoveryClient batch call.
type RegisterResult struct {
	RegistryURL string
	Success     bool
	Err         error
}

// DiscoveryClient wraps an agent card and a list of registry URLs, offering
// Register/Unregister/Heartbeat/Discover plus a background auto-heartbeat
// loop built on the same robfig/cron scheduler the registry server's
// pruner uses.
type DiscoveryClient struct {
	card          a2a.AgentCard
	registryURLs  []string
	httpClient    *http.Client
	log           *slog.Logger
	heartbeatIntv time.Duration

	mu        sync.Mutex
	scheduler *cronlib.Cron
}

// ClientOption customizes DiscoveryClient construction.
type ClientOption func(*DiscoveryClient)

func WithHTTPClient(c *http.Client) ClientOption { return func(d *DiscoveryClient) { d.httpClient = c } }
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(d *DiscoveryClient) { d.log = l }
}
func WithHeartbeatInterval(iv time.Duration) ClientOption {
	return func(d *DiscoveryClient) { d.heartbeatIntv = iv }
}

// NewDiscoveryClient builds a client advertising card to registryURLs.
func NewDiscoveryClient(card a2a.AgentCard, registryURLs []string, opts ...ClientOption) *DiscoveryClient {
	d := &DiscoveryClient{
		card:          card,
		registryURLs:  registryURLs,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		log:           slog.Default(),
		heartbeatIntv: DefaultMaxAge / 3,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register posts the card to every registry. Failures on individual
// registries do not abort the batch.
func (d *DiscoveryClient) Register(ctx context.Context) []RegisterResult {
	return d.postToAll(ctx, "/registry/register", d.card)
}

// Unregister removes the card's URL from every registry.
func (d *DiscoveryClient) Unregister(ctx context.Context) []RegisterResult {
	return d.postToAll(ctx, "/registry/unregister", urlRequest{URL: d.card.URL})
}

// Heartbeat refreshes last_seen on every registry.
func (d *DiscoveryClient) Heartbeat(ctx context.Context) []RegisterResult {
	return d.postToAll(ctx, "/registry/heartbeat", urlRequest{URL: d.card.URL})
}

func (d *DiscoveryClient) postToAll(ctx context.Context, path string, body any) []RegisterResult {
	results := make([]RegisterResult, len(d.registryURLs))
	var wg sync.WaitGroup
	for i, reg := range d.registryURLs {
		wg.Add(1)
		go func(i int, reg string) {
			defer wg.Done()
			ok, err := d.post(ctx, reg+path, body)
			results[i] = RegisterResult{RegistryURL: reg, Success: ok, Err: err}
		}(i, reg)
	}
	wg.Wait()
	return results
}

func (d *DiscoveryClient) post(ctx context.Context, url string, body any) (bool, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, a2a.ConnectionError(url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, a2a.ResponseError(url, "HTTP %d", resp.StatusCode)
	}
	var sr successResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return false, a2a.ResponseError(url, "invalid response: %v", err)
	}
	return sr.Success, nil
}

// Discover fetches /registry/agents from every registry and returns the
// union of discovered cards, deduplicated by URL.
func (d *DiscoveryClient) Discover(ctx context.Context) ([]a2a.AgentCard, error) {
	seen := make(map[string]a2a.AgentCard)
	var firstErr error
	for _, reg := range d.registryURLs {
		cards, err := d.discoverOne(ctx, reg)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, c := range cards {
			seen[c.URL] = c
		}
	}
	out := make([]a2a.AgentCard, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (d *DiscoveryClient) discoverOne(ctx context.Context, registryURL string) ([]a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, registryURL+"/registry/agents", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, a2a.ConnectionError(registryURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, a2a.ResponseError(registryURL, "HTTP %d", resp.StatusCode)
	}
	var cards []a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, a2a.ResponseError(registryURL, "invalid response: %v", err)
	}
	return cards, nil
}

// StartAutoHeartbeat begins a background heartbeat loop at the client's
// heartbeat interval (default max_age/3, see WithHeartbeatInterval). Call
// Stop to end it.
func (d *DiscoveryClient) StartAutoHeartbeat() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil {
		return fmt.Errorf("auto-heartbeat already running")
	}
	d.scheduler = cronlib.New()
	_, err := d.scheduler.AddFunc(fmt.Sprintf("@every %s", d.heartbeatIntv), func() {
		results := d.Heartbeat(context.Background())
		for _, r := range results {
			if r.Err != nil {
				d.log.Warn("discovery: heartbeat failed", "registry", r.RegistryURL, "error", r.Err)
			}
		}
	})
	if err != nil {
		d.scheduler = nil
		return err
	}
	d.scheduler.Start()
	return nil
}

// Stop ends the auto-heartbeat loop, if running.
func (d *DiscoveryClient) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil {
		d.scheduler.Stop()
		d.scheduler = nil
	}
}
