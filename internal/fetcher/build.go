package fetcher

import (
	"github.com/charmbracelet/log"

	"scraper-llm/internal/config"
)

// FromConfig resolves which engines are enabled and available on this host
// and assembles an orchestrator from them. Plain HTTP is always present.
func FromConfig(cfg *config.Config, logger *log.Logger) *Orchestrator {
	agents := NewUserAgents(cfg.UserAgent)
	opts := Options{
		HTTP: NewHTTPStrategy(HTTPOptions{
			Timeout:    cfg.HTTPTimeout,
			Retries:    cfg.HTTPRetries,
			Backoff:    cfg.RetryBackoff,
			MaxSize:    cfg.MaxContentSize,
			UserAgents: agents,
			Proxies:    proxiesFor(cfg, logger),
			Logger:     logger.WithPrefix("http"),
		}),
		JSHeavyDomains: cfg.JSHeavyDomains,
		Accept:         MinLength(cfg.MinHTMLLength),
		Logger:         logger,
	}

	if cfg.EnableBrowser {
		if path, ok := FindChrome(cfg.ChromePath); ok {
			opts.Browser = NewBrowserStrategy(path, cfg.BrowserTimeout, agents)
		} else {
			logger.Debug("headless chrome not found, browser strategy disabled")
		}
	}
	if cfg.EnableAutomation {
		if bin, ok := FindAutomationBrowser(cfg.ChromePath); ok {
			opts.Automation = NewAutomationStrategy(bin, cfg.BrowserTimeout, agents, []string{"news.ycombinator.com"})
		} else {
			logger.Debug("no browser for automation engine, strategy disabled")
		}
	}
	if cfg.RenderServiceURL != "" {
		opts.Render = NewRenderStrategy(cfg.RenderServiceURL, cfg.RenderTimeout)
	}
	return New(opts)
}

func proxiesFor(cfg *config.Config, logger *log.Logger) *ProxyRotator {
	if len(cfg.Proxies) == 0 {
		return nil
	}
	return NewProxyRotator(cfg.Proxies, logger.WithPrefix("proxy"))
}
