package fetcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromeCandidates are the binary names probed when no explicit path is configured
var chromeCandidates = []string{
	"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome",
}

// FindChrome returns a usable Chrome/Chromium path, preferring explicit
func FindChrome(explicit string) (string, bool) {
	if explicit != "" {
		if p, err := exec.LookPath(explicit); err == nil {
			return p, true
		}
		return "", false
	}
	for _, name := range chromeCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, true
		}
	}
	return "", false
}

// BrowserStrategy renders pages in headless Chrome via the DevTools protocol
type BrowserStrategy struct {
	execPath string
	timeout  time.Duration
	agents   *UserAgents
}

// NewBrowserStrategy creates the headless Chrome strategy
func NewBrowserStrategy(execPath string, timeout time.Duration, agents *UserAgents) *BrowserStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if agents == nil {
		agents = NewUserAgents("")
	}
	return &BrowserStrategy{execPath: execPath, timeout: timeout, agents: agents}
}

func (s *BrowserStrategy) Name() Method { return MethodBrowser }

// Fetch loads url with a desktop viewport, waits for the page to settle,
// scrolls to trigger lazy content and returns the rendered document.
func (s *BrowserStrategy) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(s.agents.Random()),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, s.timeout)
	defer cancel()

	idle := make(chan struct{})
	var once sync.Once
	chromedp.ListenTarget(runCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			once.Do(func() { close(idle) })
		}
	})

	settle := time.Second + rand.N(2*time.Second)
	var html string
	err := chromedp.Run(runCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		waitNetworkIdle(idle, s.timeout/2),
		chromedp.Sleep(settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chrome render failed: %w", err)
	}
	return html, nil
}

// waitNetworkIdle blocks until the page reports network idle or limit passes.
// Pages that keep polling never go idle; those continue after limit.
func waitNetworkIdle(idle <-chan struct{}, limit time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		t := time.NewTimer(limit)
		defer t.Stop()
		select {
		case <-idle:
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
}
