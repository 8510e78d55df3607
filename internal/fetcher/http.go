package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"scraper-llm/internal/logging"
)

// retryableStatus are the responses worth retrying after a pause
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code       int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPOptions configures the plain HTTP strategy
type HTTPOptions struct {
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	MaxSize    int64
	UserAgents *UserAgents
	Proxies    *ProxyRotator
	Logger     *log.Logger
}

// HTTPStrategy fetches pages with a plain HTTP client, retrying transient failures
type HTTPStrategy struct {
	timeout time.Duration
	retries int
	backoff time.Duration
	maxSize int64
	agents  *UserAgents
	proxies *ProxyRotator
	client  *http.Client
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHTTPStrategy creates the plain HTTP strategy
func NewHTTPStrategy(opts HTTPOptions) *HTTPStrategy {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 10 * 1024 * 1024
	}
	if opts.UserAgents == nil {
		opts.UserAgents = NewUserAgents("")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("http")
	}
	s := &HTTPStrategy{
		timeout: opts.Timeout,
		retries: opts.Retries,
		backoff: opts.Backoff,
		maxSize: opts.MaxSize,
		agents:  opts.UserAgents,
		proxies: opts.Proxies,
		logger:  opts.Logger,
		sleep:   sleepCtx,
	}
	s.client = s.newClient(baseTransport())
	return s
}

func (s *HTTPStrategy) newClient(transport http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   s.timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Allow up to 10 redirects
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

func (s *HTTPStrategy) Name() Method { return MethodHTTP }

// Fetch GETs url, retrying retryable statuses and network errors with exponential backoff
func (s *HTTPStrategy) Fetch(ctx context.Context, url string) (string, error) {
	client := s.client
	if s.proxies != nil {
		client = s.newClient(s.proxies.Transport())
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			wait := s.backoff * time.Duration(1<<(attempt-1))
			var statusErr *StatusError
			if errors.As(lastErr, &statusErr) && statusErr.RetryAfter > wait {
				wait = statusErr.RetryAfter
			}
			s.logger.Debug("retrying", "url", url, "attempt", attempt, "wait", wait, "err", lastErr)
			if err := s.sleep(ctx, wait); err != nil {
				return "", err
			}
		}

		body, err := s.get(ctx, client, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryableStatus[statusErr.Code] {
			return "", err
		}
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", s.retries+1, lastErr)
}

func (s *HTTPStrategy) get(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.agents.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
