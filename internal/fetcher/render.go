package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RenderStrategy asks a JS rendering service (Splash-compatible
// /render.html endpoint) to return the rendered page.
type RenderStrategy struct {
	baseURL    string
	timeout    time.Duration
	wait       time.Duration
	httpClient *http.Client
}

// NewRenderStrategy creates a client for the render service at baseURL
func NewRenderStrategy(baseURL string, timeout time.Duration) *RenderStrategy {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RenderStrategy{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		wait:    2 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout + 5*time.Second,
		},
	}
}

func (s *RenderStrategy) Name() Method { return MethodRender }

func (s *RenderStrategy) Fetch(ctx context.Context, pageURL string) (string, error) {
	params := url.Values{}
	params.Set("url", pageURL)
	params.Set("wait", fmt.Sprintf("%.1f", s.wait.Seconds()))
	params.Set("timeout", fmt.Sprintf("%.0f", s.timeout.Seconds()))

	endpoint := fmt.Sprintf("%s/render.html?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("render service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read render response: %w", err)
	}
	return string(body), nil
}

// HealthCheck verifies the render service is reachable
func (s *RenderStrategy) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/_ping", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("render service not reachable at %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("render service returned status %d", resp.StatusCode)
	}
	return nil
}
