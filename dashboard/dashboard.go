// Package dashboard polls the external task dashboard feed and proxies it to browsers.
// The feed is unrelated to the agent simulation; nothing here touches the engine.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// DefaultEndpoint is used when no endpoint is configured
const DefaultEndpoint = "http://127.0.0.1:4001/state"

// DefaultInterval is the polling period of the feed
const DefaultInterval = 5 * time.Second

// Task is one entry of the dashboard task list
type Task struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
}

// State is the document served by the dashboard endpoint
type State struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Tasks       []Task    `json:"tasks"`
}

// RootTasks returns the tasks without a parent
func (s *State) RootTasks() []Task {
	var roots []Task
	for _, t := range s.Tasks {
		if t.ParentID == nil {
			roots = append(roots, t)
		}
	}
	return roots
}

// Poller fetches the dashboard state on a fixed interval and keeps the last good copy
type Poller struct {
	endpoint string
	interval time.Duration
	client   *http.Client

	mu     sync.RWMutex
	latest *State
}

// NewPoller creates a poller for endpoint. A zero interval means DefaultInterval.
func NewPoller(endpoint string, interval time.Duration, client *http.Client) *Poller {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{
		endpoint: endpoint,
		interval: interval,
		client:   client,
	}
}

// Run polls immediately and then on every interval until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	state, err := p.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Dashboard state fetch error: %v", err)
		}
		return
	}
	p.mu.Lock()
	p.latest = state
	p.mu.Unlock()
}

// Fetch performs a single request against the endpoint
func (p *Poller) Fetch(ctx context.Context) (*State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to fetch dashboard state: %s", resp.Status)
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode dashboard state: %w", err)
	}
	return &state, nil
}

// Latest returns the last successfully fetched state, or nil before the first success
func (p *Poller) Latest() *State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}
