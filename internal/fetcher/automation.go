package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// FindAutomationBrowser reports whether the automation engine can find a browser
func FindAutomationBrowser(explicit string) (string, bool) {
	if explicit != "" {
		return FindChrome(explicit)
	}
	return launcher.LookPath()
}

// AutomationStrategy drives a browser through rod. It is the engine promoted
// to the front of the plan for JS-heavy sites.
type AutomationStrategy struct {
	bin      string
	timeout  time.Duration
	agents   *UserAgents
	slowSite []string
}

// NewAutomationStrategy creates the rod strategy. slowSites get extra settle time.
func NewAutomationStrategy(bin string, timeout time.Duration, agents *UserAgents, slowSites []string) *AutomationStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if agents == nil {
		agents = NewUserAgents("")
	}
	return &AutomationStrategy{bin: bin, timeout: timeout, agents: agents, slowSite: slowSites}
}

func (s *AutomationStrategy) Name() Method { return MethodAutomation }

func (s *AutomationStrategy) Fetch(ctx context.Context, url string) (string, error) {
	l := launcher.New().Context(ctx).Headless(true).Set("window-size", "1920,1080")
	if s.bin != "" {
		l = l.Bin(s.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Timeout(s.timeout)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.agents.Random()}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not load: %w", err)
	}

	settle := 2 * time.Second
	if matchesDomain(url, s.slowSite) {
		settle = 3 * time.Second
	}
	if err := sleepCtx(ctx, settle); err != nil {
		return "", err
	}
	if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return "", fmt.Errorf("scroll failed: %w", err)
	}
	if err := sleepCtx(ctx, time.Second); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}
