package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/temoto/robotstxt"
)

// RobotsPolicy answers robots.txt questions, caching one ruleset per host.
// Hosts whose robots.txt cannot be fetched are treated as allowing everything.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string
	logger    *log.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsPolicy creates a robots.txt policy for userAgent
func NewRobotsPolicy(userAgent string, timeout time.Duration, logger *log.Logger) *RobotsPolicy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "*"
	}
	return &RobotsPolicy{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	origin := u.Scheme + "://" + u.Host

	p.mu.RLock()
	data, cached := p.cache[origin]
	p.mu.RUnlock()

	if !cached {
		data, err = p.load(ctx, origin)
		if err != nil {
			p.logger.Debug("robots.txt unavailable, allowing", "origin", origin, "err", err)
		}
		p.mu.Lock()
		p.cache[origin] = data
		p.mu.Unlock()
	}
	if data == nil {
		return true
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return data.TestAgent(target, p.userAgent)
}

func (p *RobotsPolicy) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}
	return data, nil
}
